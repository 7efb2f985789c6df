package corvid

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventBus is an in-process publish/subscribe bus, injectable into
// handlers as a Dependency- or Primitive-role field. Grounded on the
// teacher's job-queue enqueue/dispatch shape in internal/web/jobs, cut
// down from a durable, retrying background queue to a synchronous
// fan-out bus suited to in-request notifications (cache invalidation,
// audit hooks, WebSocket room broadcasts) rather than at-least-once job
// processing.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[string][]func(context.Context, any)
	logger *zap.Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{subs: make(map[string][]func(context.Context, any)), logger: logger}
}

// Subscribe registers fn to run for every Publish call on topic. It
// returns an unsubscribe function.
func (b *EventBus) Subscribe(topic string, fn func(context.Context, any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], fn)
	idx := len(b.subs[topic]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		if idx < len(subs) {
			subs[idx] = nil
		}
	}
}

// Publish runs every subscriber for topic synchronously, in registration
// order, isolating each subscriber's panic so one broken listener cannot
// take down the publishing request.
func (b *EventBus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	subs := append([]func(context.Context, any){}, b.subs[topic]...)
	b.mu.RUnlock()

	for _, fn := range subs {
		if fn == nil {
			continue
		}
		b.runSafely(ctx, fn, payload)
	}
}

func (b *EventBus) runSafely(ctx context.Context, fn func(context.Context, any), payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked", zap.Any("recovered", r))
		}
	}()
	fn(ctx, payload)
}
