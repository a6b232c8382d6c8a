// Package agent implements the decision loop that drives a browser task:
// a planner that breaks the task into sub-tasks, a navigator that executes
// them with browser tools, and an executor that coordinates the two under
// step and error budgets.
package agent

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCancelled is returned by planner and navigator invocations that were
// interrupted by task cancellation.
var ErrCancelled = errors.New("task cancelled")

// StepError is a recoverable per-step failure. It is fed back to the
// planner as the next input rather than terminating the task; the error
// budget bounds how many of these a task may absorb.
type StepError struct {
	Msg string
}

func (e *StepError) Error() string {
	return e.Msg
}

// CancelToken signals cooperative cancellation of a running task. It is
// level-triggered and safe to cancel from any goroutine.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

// NewCancelToken creates an uncancelled token.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel trips the token. Subsequent calls are no-ops.
func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether the token has been tripped.
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done exposes the token as a channel for select loops.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

// ExecutionContext is the per-task state shared by the planner, navigator
// and executor: identity, counters, budgets and the cancellation token.
type ExecutionContext struct {
	mu sync.Mutex

	taskID string

	step      int
	toolRound int
	errCount  int

	maxSteps      int
	maxErrors     int
	maxToolRounds int

	cancel *CancelToken
}

// NewExecutionContext creates a context with the given budgets.
func NewExecutionContext(maxSteps, maxErrors, maxToolRounds int) *ExecutionContext {
	return &ExecutionContext{
		maxSteps:      maxSteps,
		maxErrors:     maxErrors,
		maxToolRounds: maxToolRounds,
		cancel:        NewCancelToken(),
	}
}

// Reset rebinds the context to a new task: counters return to zero and a
// fresh cancellation token is issued. An optional per-run step budget
// overrides the configured one.
func (c *ExecutionContext) Reset(taskID string, maxSteps int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.taskID = taskID
	c.step = 0
	c.toolRound = 0
	c.errCount = 0
	if maxSteps > 0 {
		c.maxSteps = maxSteps
	}
	c.cancel = NewCancelToken()
}

// TaskID returns the bound task id, empty when idle.
func (c *ExecutionContext) TaskID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taskID
}

// BeginStep starts a planner decision cycle: the step counter advances
// and the tool round counter rewinds. Returns the new step number.
func (c *ExecutionContext) BeginStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step++
	c.toolRound = 0
	return c.step
}

// Step returns the current step number.
func (c *ExecutionContext) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// NextToolRound advances the tool round counter within the current step.
func (c *ExecutionContext) NextToolRound() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolRound++
	return c.toolRound
}

// ToolRound returns the current tool round within the step.
func (c *ExecutionContext) ToolRound() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toolRound
}

// RecordError bumps the error counter and returns the new count.
func (c *ExecutionContext) RecordError() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errCount++
	return c.errCount
}

// ErrorCount returns how many recoverable errors the task has absorbed.
func (c *ExecutionContext) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errCount
}

// StepsExhausted reports whether the step budget is spent.
func (c *ExecutionContext) StepsExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step >= c.maxSteps
}

// ErrorsExhausted reports whether the error budget is spent.
func (c *ExecutionContext) ErrorsExhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errCount >= c.maxErrors
}

// MaxToolRounds returns the per-step tool round budget.
func (c *ExecutionContext) MaxToolRounds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxToolRounds
}

// CancelToken returns the current task's cancellation token.
func (c *ExecutionContext) CancelToken() *CancelToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel
}

// Cancelled reports whether the current task has been cancelled.
func (c *ExecutionContext) Cancelled() bool {
	return c.CancelToken().Cancelled()
}

// String describes the context for debug logging.
func (c *ExecutionContext) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("task=%s step=%d/%d errors=%d/%d", c.taskID, c.step, c.maxSteps, c.errCount, c.maxErrors)
}
