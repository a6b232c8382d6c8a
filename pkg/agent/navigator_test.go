package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/agent/tools"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// recordingTool captures invocations and returns a canned result.
type recordingTool struct {
	mu      sync.Mutex
	name    string
	result  string
	calls   []tools.Context
	rawArgs []string
}

func (t *recordingTool) Name() string        { return t.name }
func (t *recordingTool) Description() string { return "test tool" }
func (t *recordingTool) Schema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (t *recordingTool) Execute(ctx context.Context, exec *tools.Context, args json.RawMessage) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, *exec)
	t.rawArgs = append(t.rawArgs, string(args))
	return t.result, nil
}

func (t *recordingTool) Calls() []tools.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]tools.Context, len(t.calls))
	copy(out, t.calls)
	return out
}

func newTestNavigator(t *testing.T, provider *fakeProvider, toolSet ...tools.Tool) (*Navigator, *ExecutionContext, *eventRecorder) {
	t.Helper()

	registry, err := tools.NewRegistry(toolSet...)
	require.NoError(t, err)

	exec := NewExecutionContext(100, 20, 3)
	exec.Reset("task-1", 0)
	exec.BeginStep()

	bus := events.NewBus()
	rec := newEventRecorder(bus)
	n := NewNavigator(provider, exec, &fakePage{}, bus, registry)
	return n, exec, rec
}

func TestNavigatorExecute_FinalResponseStripsSentinel(t *testing.T) {
	provider := &fakeProvider{
		completeWithToolsFn: func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
			return &llm.ToolResponse{Text: "Clicked the search button. ##TERMINATE TASK##"}, nil
		},
	}
	n, _, rec := newTestNavigator(t, provider)

	out, err := n.Execute(context.Background(), "click the search button")
	require.NoError(t, err)
	assert.Equal(t, "Clicked the search button.", out)

	last := rec.Last()
	assert.Equal(t, types.StepOK, last.State)
	assert.True(t, last.Data.Final)
	assert.NotContains(t, last.Data.Details, "##TERMINATE TASK##")
}

func TestNavigatorExecute_ClearsHistoryEachInvocation(t *testing.T) {
	provider := &fakeProvider{
		completeWithToolsFn: func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
			return &llm.ToolResponse{Text: "done ##TERMINATE TASK##"}, nil
		},
	}
	n, _, _ := newTestNavigator(t, provider)

	_, err := n.Execute(context.Background(), "first sub-task")
	require.NoError(t, err)
	firstLen := n.History().Len()

	_, err = n.Execute(context.Background(), "second sub-task")
	require.NoError(t, err)

	// No carry-over between sub-tasks.
	assert.Equal(t, firstLen, n.History().Len())
}

func TestNavigatorExecute_RunsToolsThenFinishes(t *testing.T) {
	tool := &recordingTool{name: "click", result: "Executed click"}

	provider := &fakeProvider{}
	provider.completeWithToolsFn = func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
		if provider.ToolCallCompletions() == 1 {
			return &llm.ToolResponse{ToolCalls: []types.ToolCall{
				{ID: "call-1", Name: "click", Arguments: `{"selector":"[mmid='5']"}`},
			}}, nil
		}
		return &llm.ToolResponse{Text: "sub-task complete ##TERMINATE TASK##"}, nil
	}

	n, _, _ := newTestNavigator(t, provider, tool)

	out, err := n.Execute(context.Background(), "click the button")
	require.NoError(t, err)
	assert.Equal(t, "sub-task complete", out)

	calls := tool.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "task-1", calls[0].TaskID)
	assert.Equal(t, 1, calls[0].Step)
	assert.Equal(t, 1, calls[0].ToolRound)

	// The tool result went back to the model as a tool message.
	var toolMsg *types.Message
	for _, msg := range n.History().Messages() {
		if msg.Role == types.RoleTool {
			toolMsg = msg
		}
	}
	require.NotNil(t, toolMsg)
	assert.Equal(t, "Executed click", toolMsg.Content)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)
}

func TestNavigatorExecute_UnknownToolFeedsBackMessage(t *testing.T) {
	provider := &fakeProvider{}
	provider.completeWithToolsFn = func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
		if provider.ToolCallCompletions() == 1 {
			return &llm.ToolResponse{ToolCalls: []types.ToolCall{
				{ID: "call-1", Name: "teleport", Arguments: `{}`},
			}}, nil
		}
		return &llm.ToolResponse{Text: "gave up ##TERMINATE TASK##"}, nil
	}

	n, _, _ := newTestNavigator(t, provider)

	_, err := n.Execute(context.Background(), "sub-task")
	require.NoError(t, err)

	found := false
	for _, msg := range n.History().Messages() {
		if msg.Role == types.RoleTool && msg.Content == "Unknown tool: teleport" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNavigatorExecute_ToolRoundBudget(t *testing.T) {
	tool := &recordingTool{name: "click", result: "clicked"}
	provider := &fakeProvider{
		completeWithToolsFn: func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
			return &llm.ToolResponse{ToolCalls: []types.ToolCall{
				{ID: "c", Name: "click", Arguments: `{}`},
			}}, nil
		},
	}

	n, exec, rec := newTestNavigator(t, provider, tool)

	_, err := n.Execute(context.Background(), "sub-task that never converges")

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "too many rounds of tool calls in subtask", stepErr.Msg)
	assert.Equal(t, 1, exec.ErrorCount())
	// Budget of 3 rounds means exactly 3 completions.
	assert.Equal(t, 3, provider.ToolCallCompletions())
	assert.Equal(t, types.StepFail, rec.Last().State)
}

func TestNavigatorExecute_Cancelled(t *testing.T) {
	provider := &fakeProvider{
		completeWithToolsFn: func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
			return &llm.ToolResponse{Text: "done"}, nil
		},
	}
	n, exec, _ := newTestNavigator(t, provider)
	exec.CancelToken().Cancel()

	_, err := n.Execute(context.Background(), "sub-task")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, exec.ErrorCount())
}
