package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqttcommon "emstrack-acl/common/mqtt"

	"go.uber.org/zap"
)

// InvalidationMessage payload broadcast when an operator clears the permission cache
type InvalidationMessage struct {
	Origin   string `json:"origin"`
	IssuedAt int64  `json:"issued_at"`
}

// EncodeInvalidation builds the payload for origin
func EncodeInvalidation(origin string, at time.Time) ([]byte, error) {
	return json.Marshal(InvalidationMessage{Origin: origin, IssuedAt: at.Unix()})
}

// Subscriber *mqtt.Client
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Invalidator *permission.Store
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// InvalidationConsumer clears the local permission cache when another
// instance broadcasts a clear. Messages carrying our own instance id are ignored.
type InvalidationConsumer struct {
	client      Subscriber
	topic       string
	qos         byte
	instanceID  string
	invalidator Invalidator
	timeout     time.Duration
	logger      *zap.Logger
}

func NewInvalidationConsumer(
	client Subscriber,
	topic string,
	qos byte,
	instanceID string,
	invalidator Invalidator,
	logger *zap.Logger,
) *InvalidationConsumer {
	return &InvalidationConsumer{
		client:      client,
		topic:       topic,
		qos:         qos,
		instanceID:  instanceID,
		invalidator: invalidator,
		timeout:     5 * time.Second,
		logger:      logger,
	}
}

// Start subscribes; messages are handled on the MQTT client's goroutines.
func (c *InvalidationConsumer) Start(_ context.Context) error {
	if err := c.client.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to invalidation topic: %w", err)
	}
	c.logger.Info("Cache invalidation consumer started",
		zap.String("topic", c.topic),
		zap.String("instance_id", c.instanceID),
	)
	return nil
}

// Stop unsubscribes
func (c *InvalidationConsumer) Stop(_ context.Context) error {
	if err := c.client.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
		return err
	}
	c.logger.Info("Cache invalidation consumer stopped")
	return nil
}

func (c *InvalidationConsumer) handleMessage(topic string, payload []byte) error {
	var msg InvalidationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal invalidation message: %w", err)
	}
	if msg.Origin == c.instanceID {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.invalidator.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate permission cache: %w", err)
	}

	c.logger.Info("Permission cache invalidated by broadcast",
		zap.String("topic", topic),
		zap.String("origin", msg.Origin),
		zap.Time("issued_at", time.Unix(msg.IssuedAt, 0)),
	)
	return nil
}
