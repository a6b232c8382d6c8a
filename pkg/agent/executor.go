package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/agent/tools"
	"github.com/webpilot-ai/webpilot/pkg/browser"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Fallback budgets for engines constructed without explicit limits.
const (
	defaultMaxSteps      = 50
	defaultMaxErrors     = 20
	defaultMaxToolRounds = 20
)

// ErrAlreadyRunning is returned when a task arrives while another task
// holds the engine. There is no queue: the caller retries later.
var ErrAlreadyRunning = errors.New("another task is currently running")

// ErrNotInitialized is returned when Run is called before Initialize.
var ErrNotInitialized = errors.New("engine is not initialized")

// Options configures an Engine.
type Options struct {
	PlannerProvider   llm.Provider
	NavigatorProvider llm.Provider

	Browser  *browser.Manager
	Bus      *events.Bus
	Registry *tools.Registry

	// Page overrides browser acquisition with an already-bound page
	// surface. When set, Browser is not touched.
	Page Page

	Transcripts     *TranscriptStore
	SaveChatHistory bool

	Retry llm.RetryConfig

	MaxSteps      int
	MaxErrors     int
	MaxToolRounds int
}

// RunOptions are per-task overrides.
type RunOptions struct {
	// MaxSteps overrides the configured step budget when positive.
	MaxSteps int

	// TabID asks the engine to start on an existing tab instead of the
	// one the session is currently bound to.
	TabID string
}

// Engine executes browser tasks one at a time: the planner decides the
// next sub-task, the navigator performs it, and errors feed back into
// planning until the task terminates or a budget runs out.
type Engine struct {
	mu      sync.Mutex
	current string

	opts Options

	exec      *ExecutionContext
	page      Page
	planner   *Planner
	navigator *Navigator

	initialized bool
	log         *logging.Logger
}

// NewEngine creates an engine; no browser work happens until Initialize.
func NewEngine(opts Options) *Engine {
	log, err := logging.NewLogger("executor")
	if err != nil {
		log.Warnf("failed to initialize executor logger, using stderr fallback: %v", err)
	}
	return &Engine{opts: opts, log: log}
}

// Initialize acquires the browser session and wires the two roles.
// Idempotent.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if e.opts.Page != nil {
		e.page = e.opts.Page
	} else {
		if err := e.opts.Browser.Acquire(ctx); err != nil {
			return fmt.Errorf("failed to acquire browser: %w", err)
		}
		page, err := e.opts.Browser.Session()
		if err != nil {
			return err
		}
		e.page = page
	}

	if e.opts.MaxSteps <= 0 {
		e.opts.MaxSteps = defaultMaxSteps
	}
	if e.opts.MaxErrors <= 0 {
		e.opts.MaxErrors = defaultMaxErrors
	}
	if e.opts.MaxToolRounds <= 0 {
		e.opts.MaxToolRounds = defaultMaxToolRounds
	}

	e.exec = NewExecutionContext(e.opts.MaxSteps, e.opts.MaxErrors, e.opts.MaxToolRounds)
	e.planner = NewPlanner(e.opts.PlannerProvider, e.exec, e.page, e.opts.Bus, e.opts.Retry)
	e.navigator = NewNavigator(e.opts.NavigatorProvider, e.exec, e.page, e.opts.Bus, e.opts.Registry)

	e.initialized = true
	return nil
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *events.Bus {
	return e.opts.Bus
}

// CurrentTaskID returns the running task's id, empty when idle.
func (e *Engine) CurrentTaskID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// CurrentTabID returns the id of the tab the session is bound to, so
// clients can reference the same tab in a later run. Empty before
// initialization or when the page could not be tagged.
func (e *Engine) CurrentTabID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.page == nil {
		return ""
	}
	return e.page.CurrentTabID()
}

// Cancel requests cooperative cancellation of the running task. Returns
// false when taskID is not the running task.
func (e *Engine) Cancel(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == "" || e.current != taskID {
		return false
	}
	e.exec.CancelToken().Cancel()
	e.log.Infof("cancellation requested for task %s", taskID)
	return true
}

// Run executes a task to a terminal state. The engine is single-flight:
// a second task while one is bound gets a task.fail event and
// ErrAlreadyRunning, synchronously and without queueing.
//
// Budget exhaustion and cancellation are normal outcomes reported
// through events; Run returns an error only when the task could not be
// attempted or died unexpectedly.
func (e *Engine) Run(ctx context.Context, taskID, task string, runOpts RunOptions) error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	if e.current != "" {
		bound := e.current
		e.mu.Unlock()
		e.emit(ctx, types.TaskFail, types.EventData{
			TaskID:  taskID,
			Step:    0,
			Details: fmt.Sprintf("Another task is currently running. Please wait for it to complete. Task ID: %s", bound),
		})
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, bound)
	}
	e.current = taskID
	e.mu.Unlock()

	e.exec.Reset(taskID, runOpts.MaxSteps)
	e.planner.Reset()
	e.navigator.Reset()

	defer func() {
		if e.opts.SaveChatHistory && e.opts.Transcripts != nil {
			if err := e.opts.Transcripts.Save(taskID, types.ActorPlanner, e.planner.History()); err != nil {
				e.log.Warnf("failed to save planner transcript: %v", err)
			}
			if err := e.opts.Transcripts.Save(taskID, types.ActorNavigator, e.navigator.History()); err != nil {
				e.log.Warnf("failed to save navigator transcript: %v", err)
			}
		}
		e.mu.Lock()
		e.current = ""
		e.mu.Unlock()
	}()

	return e.execute(ctx, taskID, task, runOpts.TabID)
}

func (e *Engine) execute(ctx context.Context, taskID, task, tabID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			e.emit(ctx, types.TaskFail, types.EventData{
				TaskID:  taskID,
				Step:    e.exec.Step(),
				Details: err.Error(),
			})
		}
	}()

	if tabID != "" {
		if _, err := e.page.SetCurrentPage(ctx, tabID); err != nil {
			e.emit(ctx, types.TaskFail, types.EventData{
				TaskID:  taskID,
				Step:    0,
				Details: fmt.Sprintf("failed to bind tab %s: %v", tabID, err),
			})
			return err
		}
	}

	e.emit(ctx, types.TaskStart, types.EventData{
		TaskID:  taskID,
		Step:    0,
		Details: task,
	})

	next := task
	for {
		if e.exec.Cancelled() {
			e.emit(ctx, types.TaskCancel, types.EventData{
				TaskID:  taskID,
				Step:    e.exec.Step(),
				Details: "task cancelled by user",
			})
			return nil
		}
		if e.exec.StepsExhausted() {
			e.emit(ctx, types.TaskFail, types.EventData{
				TaskID:  taskID,
				Step:    e.exec.Step(),
				Details: fmt.Sprintf("Task failed with max steps reached: %d", e.exec.Step()),
			})
			return nil
		}
		if e.exec.ErrorsExhausted() {
			e.emit(ctx, types.TaskFail, types.EventData{
				TaskID:  taskID,
				Step:    e.exec.Step(),
				Details: fmt.Sprintf("Task failed with max errors encountered: %d", e.exec.ErrorCount()),
			})
			return nil
		}

		decision, perr := e.planner.Step(ctx, next)
		if perr != nil {
			var stepErr *StepError
			switch {
			case errors.Is(perr, ErrCancelled):
				continue // top of loop emits task.cancel
			case errors.As(perr, &stepErr):
				// Planner errors feed back as the next input; the error
				// budget bounds how long this can go on.
				next = stepErr.Msg
				continue
			default:
				e.emit(ctx, types.TaskFail, types.EventData{
					TaskID:  taskID,
					Step:    e.exec.Step(),
					Details: perr.Error(),
				})
				return perr
			}
		}

		if decision.Terminated {
			e.emit(ctx, types.TaskOK, types.EventData{
				TaskID:  taskID,
				Step:    e.exec.Step(),
				Details: decision.FinalResponse,
				Final:   true,
			})
			return nil
		}

		output, nerr := e.navigator.Execute(ctx, decision.NextStep)
		if nerr != nil {
			var stepErr *StepError
			switch {
			case errors.Is(nerr, ErrCancelled):
				continue
			case errors.As(nerr, &stepErr):
				next = stepErr.Msg
				continue
			default:
				e.emit(ctx, types.TaskFail, types.EventData{
					TaskID:  taskID,
					Step:    e.exec.Step(),
					Details: nerr.Error(),
				})
				return nerr
			}
		}
		next = output
	}
}

// Close releases the browser session.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.initialized = false
	if e.opts.Browser != nil {
		return e.opts.Browser.Close()
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, state types.ExecutionState, data types.EventData) {
	if err := e.opts.Bus.Emit(ctx, types.NewEvent(state, types.ActorManager, data)); err != nil {
		e.log.Warnf("event subscriber error: %v", err)
	}
}
