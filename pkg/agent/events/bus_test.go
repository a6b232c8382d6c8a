package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

func testEvent(state types.ExecutionState) types.Event {
	return types.NewEvent(state, types.ActorManager, types.EventData{TaskID: "task-1"})
}

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	got := make(map[string]types.ExecutionState)

	for _, name := range []string{"a", "b", "c"} {
		name := name
		bus.Subscribe(types.EventTypeExecution, func(ctx context.Context, event types.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got[name] = event.State
			return nil
		})
	}

	require.NoError(t, bus.Emit(context.Background(), testEvent(types.TaskStart)))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 3)
	for _, state := range got {
		assert.Equal(t, types.TaskStart, state)
	}
}

func TestBus_EmitWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Emit(context.Background(), testEvent(types.TaskStart)))
}

func TestBus_SubscriberErrorPropagatesAfterAllRun(t *testing.T) {
	bus := NewBus()

	boom := errors.New("sink unavailable")
	bus.Subscribe(types.EventTypeExecution, func(ctx context.Context, event types.Event) error {
		return boom
	})

	var mu sync.Mutex
	delivered := 0
	healthy := func(ctx context.Context, event types.Event) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	}
	bus.Subscribe(types.EventTypeExecution, healthy)
	bus.Subscribe(types.EventTypeExecution, healthy)

	err := bus.Emit(context.Background(), testEvent(types.StepOK))
	assert.ErrorIs(t, err, boom)

	// The failing subscriber does not starve the healthy ones.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, delivered)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	cb := func(ctx context.Context, event types.Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}

	first := bus.Subscribe(types.EventTypeExecution, cb)
	second := bus.Subscribe(types.EventTypeExecution, cb)
	assert.Equal(t, 2, bus.SubscriberCount(types.EventTypeExecution))

	// Handles distinguish subscribers that share a function value.
	bus.Unsubscribe(first)
	assert.Equal(t, 1, bus.SubscriberCount(types.EventTypeExecution))

	require.NoError(t, bus.Emit(context.Background(), testEvent(types.StepOK)))
	mu.Lock()
	assert.Equal(t, 1, count)
	mu.Unlock()

	// Removing again is a no-op, as is removing nil.
	bus.Unsubscribe(first)
	bus.Unsubscribe(nil)
	assert.Equal(t, 1, bus.SubscriberCount(types.EventTypeExecution))

	bus.Unsubscribe(second)
	assert.Equal(t, 0, bus.SubscriberCount(types.EventTypeExecution))
}

func TestBus_TopicIsolation(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(types.EventType("other"), func(ctx context.Context, event types.Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), testEvent(types.TaskStart)))
	assert.False(t, called)
}
