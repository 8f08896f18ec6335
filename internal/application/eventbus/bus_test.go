package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-desk/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func newEvent(t event.Type) *event.Event {
	return event.NewEvent(t, "exp-1", 1, "APPROVE", nil)
}

func TestBus_PublishRunsHandlersInOrder(t *testing.T) {
	bus := New(nil)
	var order []string

	bus.Subscribe(event.TypeActionSucceeded, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(event.TypeActionSucceeded, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})
	bus.Subscribe(event.TypeActionFailed, "other", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "other")
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), newEvent(event.TypeActionSucceeded)))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"first", "second"}, bus.Handlers(event.TypeActionSucceeded))
}

func TestBus_PublishJoinsErrors(t *testing.T) {
	logger := &mockLogger{}
	bus := New(logger)
	errA := errors.New("a failed")
	var ran atomic.Int32

	bus.Subscribe(event.TypeActionFailed, "a", func(ctx context.Context, evt *event.Event) error {
		ran.Add(1)
		return errA
	})
	bus.Subscribe(event.TypeActionFailed, "b", func(ctx context.Context, evt *event.Event) error {
		ran.Add(1)
		panic("b exploded")
	})
	bus.Subscribe(event.TypeActionFailed, "c", func(ctx context.Context, evt *event.Event) error {
		ran.Add(1)
		return nil
	})

	err := bus.Publish(context.Background(), newEvent(event.TypeActionFailed))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.Contains(t, err.Error(), "handler panic: b exploded")
	assert.Equal(t, int32(3), ran.Load(), "every handler runs")
	assert.Equal(t, 2, logger.ErrorCount())
}

func TestBus_PublishAsync(t *testing.T) {
	bus := New(nil)
	done := make(chan string, 1)

	bus.Subscribe(event.TypeActionSucceeded, "async", func(ctx context.Context, evt *event.Event) error {
		done <- evt.ExpenseID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.PublishAsync(ctx, newEvent(event.TypeActionSucceeded))
	cancel()

	select {
	case id := <-done:
		assert.Equal(t, "exp-1", id)
	case <-time.After(time.Second):
		t.Fatal("async handler did not run")
	}
	require.NoError(t, bus.Close())
}

func TestBus_CloseWaitsForAsyncHandlers(t *testing.T) {
	bus := New(nil)
	var finished atomic.Bool

	bus.Subscribe(event.TypeActionSucceeded, "slow", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	bus.PublishAsync(context.Background(), newEvent(event.TypeActionSucceeded))
	require.NoError(t, bus.Close())
	assert.True(t, finished.Load())

	assert.ErrorIs(t, bus.Close(), ErrClosed)
	assert.ErrorIs(t, bus.Publish(context.Background(), newEvent(event.TypeActionSucceeded)), ErrClosed)
}
