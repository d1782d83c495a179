package service

import (
	"context"
	"fmt"
	"time"

	"emstrack-acl/internal/consumer"

	"go.uber.org/zap"
)

// Publisher *mqtt.Client
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// CacheService the operator "reinitialize" action: clears the permission
// cache here and tells the other instances to do the same.
type CacheService struct {
	invalidator consumer.Invalidator
	publisher   Publisher
	topic       string
	qos         byte
	instanceID  string
	logger      *zap.Logger
}

// NewCacheService publisher may be nil (single instance, or shared Redis cache)
func NewCacheService(invalidator consumer.Invalidator, publisher Publisher, topic string, qos byte, instanceID string, logger *zap.Logger) *CacheService {
	return &CacheService{
		invalidator: invalidator,
		publisher:   publisher,
		topic:       topic,
		qos:         qos,
		instanceID:  instanceID,
		logger:      logger,
	}
}

func (s *CacheService) Clear(ctx context.Context) error {
	if err := s.invalidator.Invalidate(ctx); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}

	payload, err := consumer.EncodeInvalidation(s.instanceID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to encode invalidation message: %w", err)
	}
	if err := s.publisher.Publish(s.topic, s.qos, false, payload); err != nil {
		return fmt.Errorf("cache cleared locally but broadcast failed: %w", err)
	}
	s.logger.Debug("Broadcast cache invalidation", zap.String("topic", s.topic))
	return nil
}
