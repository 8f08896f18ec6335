// Package eventbus routes expense domain events to subscribed handlers.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/expense-desk/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed bus
var ErrClosed = errors.New("event bus is closed")

// Handler processes one domain event
type Handler func(ctx context.Context, evt *event.Event) error

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type subscription struct {
	name    string
	handler Handler
}

// Bus delivers events to every handler subscribed to their type, in subscription order
type Bus struct {
	mu     sync.RWMutex
	subs   map[event.Type][]subscription
	logger Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates an empty bus. logger may be nil.
func New(logger Logger) *Bus {
	return &Bus{
		subs:   make(map[event.Type][]subscription),
		logger: logger,
	}
}

// Subscribe registers handler for eventType under name
func (b *Bus) Subscribe(eventType event.Type, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[eventType] = append(b.subs[eventType], subscription{name: name, handler: handler})
	b.info("Handler subscribed", "event_type", eventType, "handler", name)
}

// Handlers returns the handler names subscribed to eventType
func (b *Bus) Handlers(eventType event.Type) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs[eventType]))
	for _, s := range b.subs[eventType] {
		names = append(names, s.name)
	}
	return names
}

// Publish runs every handler synchronously. All handlers run even when some fail;
// the failures are joined into the returned error.
func (b *Bus) Publish(ctx context.Context, evt *event.Event) error {
	if b.closed.Load() {
		return ErrClosed
	}

	var errs []error
	for _, s := range b.snapshot(evt.Type) {
		if err := b.run(ctx, evt, s); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// PublishAsync runs the handlers in the background, detached from ctx cancellation.
// Close waits for pending deliveries.
func (b *Bus) PublishAsync(ctx context.Context, evt *event.Event) {
	if b.closed.Load() {
		b.error("Dropping event, bus is closed", "event_type", evt.Type, "event_id", evt.ID)
		return
	}

	subs := b.snapshot(evt.Type)
	if len(subs) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for _, s := range subs {
			_ = b.run(ctx, evt, s)
		}
	}()
}

// Close stops accepting events and waits for async deliveries to finish
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	b.wg.Wait()
	b.info("Event bus closed")
	return nil
}

func (b *Bus) snapshot(eventType event.Type) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]subscription(nil), b.subs[eventType]...)
}

// run executes one handler, turning a panic into an error
func (b *Bus) run(ctx context.Context, evt *event.Event, s subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			b.error("Event handler failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler", s.name,
				"error", err,
			)
		}
	}()

	return s.handler(ctx, evt)
}

func (b *Bus) info(msg string, kv ...interface{}) {
	if b.logger != nil {
		b.logger.Info(msg, kv...)
	}
}

func (b *Bus) error(msg string, kv ...interface{}) {
	if b.logger != nil {
		b.logger.Error(msg, kv...)
	}
}
