package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"emstrack-acl/internal/consumer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return f.err
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic, qos, payload})
	return nil
}

func TestCacheService_ClearBroadcasts(t *testing.T) {
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	s := NewCacheService(inv, pub, "emstrack/acl/cache/clear", 1, "instance-a", zap.NewNop())

	require.NoError(t, s.Clear(context.Background()))
	assert.Equal(t, 1, inv.calls)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "emstrack/acl/cache/clear", pub.sent[0].topic)
	assert.Equal(t, byte(1), pub.sent[0].qos)

	var msg consumer.InvalidationMessage
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &msg))
	assert.Equal(t, "instance-a", msg.Origin)
	assert.NotZero(t, msg.IssuedAt)
}

func TestCacheService_NoPublisher(t *testing.T) {
	inv := &fakeInvalidator{}
	s := NewCacheService(inv, nil, "t", 1, "instance-a", zap.NewNop())

	require.NoError(t, s.Clear(context.Background()))
	assert.Equal(t, 1, inv.calls)
}

func TestCacheService_LocalFailureSkipsBroadcast(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("redis down")}
	pub := &fakePublisher{}
	s := NewCacheService(inv, pub, "t", 1, "instance-a", zap.NewNop())

	assert.Error(t, s.Clear(context.Background()))
	assert.Empty(t, pub.sent)
}

func TestCacheService_BroadcastFailure(t *testing.T) {
	inv := &fakeInvalidator{}
	pub := &fakePublisher{err: errors.New("not connected")}
	s := NewCacheService(inv, pub, "t", 1, "instance-a", zap.NewNop())

	err := s.Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broadcast failed")
	assert.Equal(t, 1, inv.calls)
}
