// Package server exposes the execution engine over a WebSocket control
// channel: clients create and cancel tasks and receive the stream of
// execution state updates.
package server

import (
	"encoding/json"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// MessageKind discriminates control channel messages.
type MessageKind string

const (
	// KindHeartbeat is an application-level heartbeat from the client.
	KindHeartbeat MessageKind = "hb"

	// KindAck acknowledges a heartbeat.
	KindAck MessageKind = "ack"

	// KindCreate asks the server to start a new task.
	KindCreate MessageKind = "create"

	// KindCancel asks the server to cancel a running task.
	KindCancel MessageKind = "cancel"

	// KindTaskState carries an execution state update to the client.
	KindTaskState MessageKind = "state"

	// KindError reports a failure to the client.
	KindError MessageKind = "error"

	// KindGetCurrentTask asks for the currently running task id.
	KindGetCurrentTask MessageKind = "get_task"

	// KindCurrentTask answers KindGetCurrentTask.
	KindCurrentTask MessageKind = "current_task"
)

// Message is the control channel envelope.
type Message struct {
	Kind MessageKind     `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps a payload in an envelope.
func NewMessage(kind MessageKind, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Kind: kind, Data: data}, nil
}

// CreateTaskPayload starts a task.
type CreateTaskPayload struct {
	TaskID string                 `json:"task_id"`
	Intent string                 `json:"intent"`
	Args   map[string]interface{} `json:"args,omitempty"`
}

// CancelTaskPayload cancels a running task.
type CancelTaskPayload struct {
	TaskID string `json:"task_id"`
}

// TaskStatePayload forwards one execution event.
type TaskStatePayload struct {
	TaskID    string               `json:"task_id"`
	State     types.ExecutionState `json:"state"`
	Actor     types.Actor          `json:"actor"`
	Data      types.EventData      `json:"data"`
	Timestamp time.Time            `json:"timestamp"`
}

// TaskStateFromEvent flattens an event into the wire payload.
func TaskStateFromEvent(event types.Event) TaskStatePayload {
	return TaskStatePayload{
		TaskID:    event.Data.TaskID,
		State:     event.State,
		Actor:     event.Actor,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
}

// ErrorPayload reports a failure tied to a task.
type ErrorPayload struct {
	TaskID    string    `json:"task_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CurrentTaskPayload answers a current-task query; TaskID is empty when
// the engine is idle. TabID identifies the tab the browser session is
// bound to, usable as the tab_id argument of a later create message.
type CurrentTaskPayload struct {
	TaskID string `json:"task_id"`
	TabID  string `json:"tab_id,omitempty"`
}
