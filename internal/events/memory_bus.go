package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus implementation used by the in-memory Store
// and by tests that exercise the Reactor without a Redis dependency. It
// preserves the same buffered, drop-on-full fan-in semantics as RedisBus so
// behaviour under backpressure is identical regardless of transport.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[EventType][]chan *Event
}

// NewMemoryBus creates an in-memory event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[EventType][]chan *Event)}
}

func (b *MemoryBus) Publish(_ context.Context, event *Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, types ...EventType) (<-chan *Event, error) {
	out := make(chan *Event, 100)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.subs[t] = append(b.subs[t], out)
	}
	return out, nil
}

func (b *MemoryBus) Close() error { return nil }
