package types

import "time"

// EventType identifies a pub/sub topic on the event bus.
// For now only execution events exist, but the type leaves room for more.
type EventType string

const (
	// EventTypeExecution is the topic carrying task execution state changes.
	EventTypeExecution EventType = "execution"
)

// ExecutionState represents a phase transition in the execution lifecycle.
//
// Format: <scope>.<status>
// Scopes: task, step, act
// Statuses: start, ok, fail, cancel
type ExecutionState string

const (
	// Task level states
	TaskStart  ExecutionState = "task.start"
	TaskOK     ExecutionState = "task.ok"
	TaskFail   ExecutionState = "task.fail"
	TaskCancel ExecutionState = "task.cancel"

	// Step level states
	StepStart  ExecutionState = "step.start"
	StepOK     ExecutionState = "step.ok"
	StepFail   ExecutionState = "step.fail"
	StepCancel ExecutionState = "step.cancel"

	// Action/tool level states
	ActStart ExecutionState = "act.start"
	ActOK    ExecutionState = "act.ok"
	ActFail  ExecutionState = "act.fail"
)

// IsTerminal reports whether the state ends a task's lifecycle.
func (s ExecutionState) IsTerminal() bool {
	return s == TaskOK || s == TaskFail || s == TaskCancel
}

// Actor identifies the component that triggered a state change.
type Actor string

const (
	// ActorManager is the virtual actor representing the execution engine itself.
	ActorManager Actor = "manager"

	// ActorPlanner is the role that plans the task.
	ActorPlanner Actor = "planner"

	// ActorNavigator is the role that drives the browser.
	ActorNavigator Actor = "navigator"

	// ActorUser is the external caller.
	ActorUser Actor = "user"
)

// EventData carries the payload of an execution event. Nesting of task,
// step and tool round is implicit through the shared identifiers rather
// than explicit parent references.
type EventData struct {
	// TaskID is the externally supplied id of the task the event belongs to.
	TaskID string `json:"task_id"`

	// Step is the step number of the task where the event occurred.
	Step int `json:"step"`

	// ToolRound is the round of tool calls used to execute the step.
	ToolRound int `json:"tool_round,omitempty"`

	// Details is the content of the event.
	Details string `json:"details,omitempty"`

	// Final is true if the event carries the final response from the actor.
	Final bool `json:"final,omitempty"`

	// Plan is present if the planner made or revised a plan at this step.
	Plan string `json:"plan,omitempty"`

	// Tool is the tool name used to execute an action.
	Tool string `json:"tool,omitempty"`
}

// Event is an immutable record of a state change during task execution.
// Events are produced continuously, consumed by subscribers, and never
// mutated after creation.
type Event struct {
	Type      EventType      `json:"type"`
	State     ExecutionState `json:"state"`
	Actor     Actor          `json:"actor"`
	Data      EventData      `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates an execution event stamped with the current time.
func NewEvent(state ExecutionState, actor Actor, data EventData) Event {
	return Event{
		Type:      EventTypeExecution,
		State:     state,
		Actor:     actor,
		Data:      data,
		Timestamp: time.Now(),
	}
}
