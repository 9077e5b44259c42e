// Package bridge is the live-event push channel: every inserted message
// is published to a Redis channel keyed by its receiver, and each
// connected session subscribes to its own inbox channel. Delivery is
// at-least-once with no ordering guarantee relative to REST fetches.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/models"
)

type Bridge struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func New(ctx context.Context, redisURL string, logger *zap.Logger) (*Bridge, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("event bridge connected", zap.String("addr", opt.Addr))
	return &Bridge{rdb: rdb, logger: logger}, nil
}

func (b *Bridge) Close() error {
	return b.rdb.Close()
}

func inboxChannel(userID uuid.UUID) string {
	return "inbox:" + userID.String()
}

// Publish pushes a freshly inserted message to its receiver's inbox
// channel. Receivers with no live subscription miss the event and catch
// up on their next refresh.
func (b *Bridge) Publish(ctx context.Context, m models.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, inboxChannel(m.ReceiverID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscription is one user's live inbox feed. Events() closes after
// Close() is called or the subscribe context is cancelled. There is no
// automatic reconnect: callers tear down and resubscribe on the next
// connection.
type Subscription struct {
	pubsub *redis.PubSub
	events chan models.Message
}

// Subscribe opens the inbox feed for one user. The returned subscription
// lives until Close() or ctx cancellation.
func (b *Bridge) Subscribe(ctx context.Context, userID uuid.UUID) *Subscription {
	sub := &Subscription{
		pubsub: b.rdb.Subscribe(ctx, inboxChannel(userID)),
		events: make(chan models.Message, 16),
	}
	go sub.pump(b.logger)
	return sub
}

func (s *Subscription) pump(logger *zap.Logger) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var m models.Message
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			logger.Warn("dropping malformed inbox event", zap.Error(err))
			continue
		}
		s.events <- m
	}
}

// Events yields inbound messages until the subscription closes.
func (s *Subscription) Events() <-chan models.Message {
	return s.events
}

func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
