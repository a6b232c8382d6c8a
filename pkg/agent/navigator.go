package agent

import (
	"context"
	"encoding/json"

	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/agent/prompts"
	"github.com/webpilot-ai/webpilot/pkg/agent/tools"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// tooManyToolRounds is fed back to the planner when a sub-task burns its
// whole tool round budget without converging.
const tooManyToolRounds = "too many rounds of tool calls in subtask"

// Navigator executes one sub-task at a time with browser tools. It is
// deliberately stateless across sub-tasks: every invocation starts from
// a fresh transcript so the planner carries all task memory.
type Navigator struct {
	provider llm.Provider
	exec     *ExecutionContext
	page     Page
	bus      *events.Bus
	registry *tools.Registry
	history  *History
	log      *logging.Logger
}

// NewNavigator wires a navigator against the shared execution context.
func NewNavigator(provider llm.Provider, exec *ExecutionContext, page Page, bus *events.Bus, registry *tools.Registry) *Navigator {
	log, err := logging.NewLogger("navigator")
	if err != nil {
		log.Warnf("failed to initialize navigator logger, using stderr fallback: %v", err)
	}
	return &Navigator{
		provider: provider,
		exec:     exec,
		page:     page,
		bus:      bus,
		registry: registry,
		history:  NewHistory(),
		log:      log,
	}
}

// History exposes the navigator transcript for persistence. It holds the
// last sub-task's conversation.
func (n *Navigator) History() *History {
	return n.history
}

// Reset clears the transcript for a new task.
func (n *Navigator) Reset() {
	n.history.Clear()
}

// Execute runs one sub-task through bounded rounds of tool calling and
// returns the navigator's final response with the termination sentinel
// stripped. Recoverable failures return *StepError; cancellation returns
// ErrCancelled. The step number is the planner's: executing a sub-task
// does not advance the step counter.
func (n *Navigator) Execute(ctx context.Context, subtask string) (string, error) {
	step := n.exec.Step()

	n.history.Clear()
	n.history.Add(types.NewSystemMessage(prompts.NavigatorSystem()))

	n.emit(ctx, types.StepStart, types.EventData{
		TaskID:  n.exec.TaskID(),
		Step:    step,
		Details: subtask,
	})

	info, err := n.page.Info(ctx)
	if err != nil {
		return "", n.stepFailed(ctx, step, "failed to read page state: "+err.Error())
	}
	n.history.Add(types.NewUserMessage(prompts.NavigatorUser(subtask, info.URL, info.Title)))

	defs := n.registry.Definitions()
	rounds := 0
	maxRounds := n.exec.MaxToolRounds()

	for rounds < maxRounds && !n.exec.Cancelled() {
		resp, err := n.provider.CompleteWithTools(ctx, n.history.Messages(), defs)
		if err != nil {
			return "", n.stepFailed(ctx, step, err.Error())
		}

		assistant := types.NewAssistantMessage(resp.Text)
		assistant.ToolCalls = resp.ToolCalls
		n.history.Add(assistant)

		if len(resp.ToolCalls) == 0 {
			final := prompts.StripSentinel(resp.Text)
			n.emit(ctx, types.StepOK, types.EventData{
				TaskID:  n.exec.TaskID(),
				Step:    step,
				Details: final,
				Final:   true,
			})
			return final, nil
		}

		round := n.exec.NextToolRound()

		// Tool calls within a round run sequentially; browser actions
		// collide when interleaved.
		for _, call := range resp.ToolCalls {
			if n.exec.Cancelled() {
				break
			}
			n.history.Add(types.NewToolMessage(call.ID, n.invokeTool(ctx, call, round)))
		}

		info, err := n.page.Info(ctx)
		if err != nil {
			return "", n.stepFailed(ctx, step, "failed to read page state: "+err.Error())
		}
		n.history.Add(types.NewUserMessage(prompts.NavigatorUser(prompts.CompletionCheckPrompt, info.URL, info.Title)))

		rounds++
	}

	if n.exec.Cancelled() {
		return "", ErrCancelled
	}

	return "", n.stepFailed(ctx, step, tooManyToolRounds)
}

// invokeTool dispatches one tool call and always produces a message for
// the model: unknown tools and execution faults come back as text the
// model can adjust to.
func (n *Navigator) invokeTool(ctx context.Context, call types.ToolCall, round int) string {
	tool, ok := n.registry.Get(call.Name)
	if !ok {
		n.log.Warnf("model requested unknown tool %q", call.Name)
		return "Unknown tool: " + call.Name
	}

	n.log.Debugf("round %d invoking %s with args %s", round, call.Name, call.Arguments)

	toolCtx := &tools.Context{
		TaskID:    n.exec.TaskID(),
		Step:      n.exec.Step(),
		ToolRound: round,
		Bus:       n.bus,
		Page:      n.page,
	}
	result, err := tool.Execute(ctx, toolCtx, json.RawMessage(call.Arguments))
	if err != nil {
		n.log.Errorf("tool %s failed: %v", call.Name, err)
		return "Tool " + call.Name + " failed: " + err.Error()
	}
	return result
}

func (n *Navigator) stepFailed(ctx context.Context, step int, msg string) error {
	n.exec.RecordError()
	n.emit(ctx, types.StepFail, types.EventData{
		TaskID:    n.exec.TaskID(),
		Step:      step,
		ToolRound: n.exec.ToolRound(),
		Details:   msg,
	})
	n.log.Errorf("sub-task failed at step %d: %s", step, msg)
	return &StepError{Msg: msg}
}

func (n *Navigator) emit(ctx context.Context, state types.ExecutionState, data types.EventData) {
	if err := n.bus.Emit(ctx, types.NewEvent(state, types.ActorNavigator, data)); err != nil {
		n.log.Warnf("event subscriber error: %v", err)
	}
}
