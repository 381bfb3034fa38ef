package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/kovanka/streamvault/internal/logger"
)

const channelPrefix = "streamvault:events:"

// RedisBus implements Bus over Redis Pub/Sub, adapted from the teacher's
// internal/events/redis_pubsub.go: one channel per EventType, a buffered
// fan-in goroutine per subscription with drop-on-full semantics so a slow
// subscriber cannot stall publishers.
type RedisBus struct {
	client *redis.Client

	mu     sync.Mutex
	closed bool
}

// NewRedisBus creates a Redis-backed event bus.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) channelName(t EventType) string {
	return channelPrefix + string(t)
}

// Publish publishes event to its type's channel.
func (b *RedisBus) Publish(ctx context.Context, event *Event) error {
	data, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channelName(event.Type), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	logger.Debug().Str("event_type", string(event.Type)).Str("entity_id", event.ID).Msg("event published")
	return nil
}

// Subscribe returns a channel of events matching any of types.
func (b *RedisBus) Subscribe(ctx context.Context, types ...EventType) (<-chan *Event, error) {
	channels := make([]string, len(types))
	for i, t := range types {
		channels[i] = b.channelName(t)
	}

	pubsub := b.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan *Event, 100)

	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				event, err := FromJSON([]byte(msg.Payload))
				if err != nil {
					logger.Error().Err(err).Msg("failed to parse event")
					continue
				}
				select {
				case out <- event:
				default:
					logger.Warn().Str("event_type", string(event.Type)).Msg("event channel full, dropping event")
				}
			}
		}
	}()

	return out, nil
}

// Close marks the bus closed. Individual subscriptions close themselves when
// their context is cancelled.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
