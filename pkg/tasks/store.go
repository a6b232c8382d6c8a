// Package tasks records task lifecycles: one task at a time accumulates
// its execution events and is persisted as a single JSON document when
// it reaches a terminal state.
package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Task is the durable record of one execution: the caller's intent plus
// every event the run produced.
type Task struct {
	ID        string                 `json:"id"`
	Intent    string                 `json:"intent"`
	Args      map[string]interface{} `json:"args,omitempty"`
	Steps     []types.Event          `json:"steps"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Store tracks the single in-flight task and persists finished ones.
type Store struct {
	mu      sync.Mutex
	dir     string
	current *Task
	log     *logging.Logger
}

// NewStore creates a store writing task documents under dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create tasks directory: %w", err)
	}
	log, err := logging.NewLogger("tasks")
	if err != nil {
		log.Warnf("failed to initialize tasks logger, using stderr fallback: %v", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Create registers a new current task. Fails when id or intent is blank
// or another task is still open.
func (s *Store) Create(id, intent string, args map[string]interface{}) (*Task, error) {
	id = strings.TrimSpace(id)
	intent = strings.TrimSpace(intent)
	if id == "" || intent == "" {
		return nil, fmt.Errorf("task id and intent cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, fmt.Errorf("another task is currently running, please wait for it to complete")
	}

	now := time.Now()
	s.current = &Task{
		ID:        id,
		Intent:    intent,
		Args:      args,
		Steps:     []types.Event{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.current, nil
}

// CurrentID returns the open task's id, empty when none.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// RecordEvent appends an execution event to the open task. A terminal
// event persists the task and clears it.
func (s *Store) RecordEvent(event types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != event.Data.TaskID {
		return fmt.Errorf("task %s not found", event.Data.TaskID)
	}

	s.current.Steps = append(s.current.Steps, event)
	s.current.UpdatedAt = time.Now()

	if event.State.IsTerminal() {
		return s.closeLocked()
	}
	return nil
}

// Close persists and clears the open task, if any. Safe to call when no
// task is open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	return s.closeLocked()
}

func (s *Store) closeLocked() error {
	task := s.current
	s.current = nil

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	path := filepath.Join(s.dir, task.ID+".json")
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("failed to write task %s: %w", task.ID, err)
	}

	s.log.Infof("task %s persisted with %d events", task.ID, len(task.Steps))
	return nil
}

// Load reads a previously persisted task.
func (s *Store) Load(id string) (*Task, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read task %s: %w", id, err)
	}
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task %s: %w", id, err)
	}
	return &task, nil
}
