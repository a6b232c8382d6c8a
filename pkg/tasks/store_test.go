package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func event(taskID string, state types.ExecutionState) types.Event {
	return types.NewEvent(state, types.ActorManager, types.EventData{TaskID: taskID})
}

func TestStoreCreate(t *testing.T) {
	store := newTestStore(t)

	task, err := store.Create("task-1", "find flights", map[string]interface{}{"max_steps": 5.0})
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "find flights", task.Intent)
	assert.Equal(t, "task-1", store.CurrentID())
}

func TestStoreCreate_Validation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create("", "intent", nil)
	assert.Error(t, err)
	_, err = store.Create("task-1", "   ", nil)
	assert.Error(t, err)
}

func TestStoreCreate_SingleTask(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create("task-1", "first", nil)
	require.NoError(t, err)

	_, err = store.Create("task-2", "second", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another task is currently running")
}

func TestStoreRecordEvent_UnknownTask(t *testing.T) {
	store := newTestStore(t)

	err := store.RecordEvent(event("task-1", types.TaskStart))
	assert.Error(t, err)

	_, err = store.Create("task-1", "intent", nil)
	require.NoError(t, err)

	err = store.RecordEvent(event("task-other", types.StepOK))
	assert.Error(t, err)
}

func TestStoreTerminalEventPersistsAndClears(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create("task-1", "find flights", nil)
	require.NoError(t, err)

	require.NoError(t, store.RecordEvent(event("task-1", types.TaskStart)))
	require.NoError(t, store.RecordEvent(event("task-1", types.StepOK)))
	require.NoError(t, store.RecordEvent(event("task-1", types.TaskOK)))

	// The terminal event closed the task.
	assert.Empty(t, store.CurrentID())

	loaded, err := store.Load("task-1")
	require.NoError(t, err)
	assert.Equal(t, "find flights", loaded.Intent)
	require.Len(t, loaded.Steps, 3)
	assert.Equal(t, types.TaskOK, loaded.Steps[2].State)

	// The slot is free for the next task.
	_, err = store.Create("task-2", "next task", nil)
	assert.NoError(t, err)
}

func TestStoreClose(t *testing.T) {
	store := newTestStore(t)

	// Closing with nothing open is fine.
	require.NoError(t, store.Close())

	_, err := store.Create("task-1", "abandoned task", nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordEvent(event("task-1", types.TaskStart)))

	require.NoError(t, store.Close())
	assert.Empty(t, store.CurrentID())

	loaded, err := store.Load("task-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Steps, 1)
}

func TestStoreLoad_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load("nope")
	assert.Error(t, err)
}
