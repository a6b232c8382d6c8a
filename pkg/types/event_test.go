package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionStateIsTerminal(t *testing.T) {
	terminal := []ExecutionState{TaskOK, TaskFail, TaskCancel}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
	}

	nonTerminal := []ExecutionState{TaskStart, StepStart, StepOK, StepFail, StepCancel, ActStart, ActOK, ActFail}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(StepOK, ActorPlanner, EventData{TaskID: "task-1", Step: 3})

	assert.Equal(t, EventTypeExecution, e.Type)
	assert.Equal(t, StepOK, e.State)
	assert.Equal(t, ActorPlanner, e.Actor)
	assert.Equal(t, "task-1", e.Data.TaskID)
	assert.False(t, e.Timestamp.IsZero())
}

func TestEventDataOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(EventData{TaskID: "task-1", Step: 1})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "tool_round")
	assert.NotContains(t, raw, "plan")
	assert.NotContains(t, raw, "final")
	assert.Contains(t, raw, "task_id")
	assert.Contains(t, raw, "step")
}
