// Package event provides the in-process event bus connecting screen
// modules, the notification surface, and the WebSocket view stream.
package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/pkg/module"
)

// Compile-time interface guard.
var _ module.EventBus = (*Bus)(nil)

// Bus is a thread-safe topic-based event bus. Handlers run synchronously
// on Publish and on a fresh goroutine on PublishAsync.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]module.EventHandler // topic -> id -> handler
	all      map[int]module.EventHandler
	logger   *zap.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string]map[int]module.EventHandler),
		all:      make(map[int]module.EventHandler),
		logger:   logger,
	}
}

// Publish delivers the event to topic subscribers and catch-all
// subscribers on the caller's goroutine.
func (b *Bus) Publish(ctx context.Context, event module.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, h := range b.snapshot(event.Topic) {
		b.safeCall(ctx, event, h)
	}
	return nil
}

// PublishAsync delivers the event on a separate goroutine.
func (b *Bus) PublishAsync(ctx context.Context, event module.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	handlers := b.snapshot(event.Topic)
	go func() {
		for _, h := range handlers {
			b.safeCall(ctx, event, h)
		}
	}()
}

// safeCall runs a handler, recovering panics so one bad subscriber
// cannot take down the publisher or the remaining subscribers.
func (b *Bus) safeCall(ctx context.Context, event module.Event, h module.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}

// Subscribe registers a handler for one topic and returns an
// unsubscribe function.
func (b *Bus) Subscribe(topic string, handler module.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]module.EventHandler)
	}
	b.handlers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// SubscribeAll registers a handler for every topic.
func (b *Bus) SubscribeAll(handler module.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// snapshot copies the matching handlers so they run outside the lock.
func (b *Bus) snapshot(topic string) []module.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]module.EventHandler, 0, len(b.handlers[topic])+len(b.all))
	for _, h := range b.handlers[topic] {
		out = append(out, h)
	}
	for _, h := range b.all {
		out = append(out, h)
	}
	return out
}
