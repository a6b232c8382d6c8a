// Package tools implements the browser actions the navigator can invoke
// through LLM tool calling: navigation, element interaction, DOM reading
// and PDF extraction. Each tool reports progress as act-level events and
// returns outcome strings the model can reason about, including failures.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var toolLog *logging.Logger

func init() {
	var err error
	toolLog, err = logging.NewLogger("tools")
	if err != nil {
		toolLog.Warnf("failed to initialize tools logger, using stderr fallback: %v", err)
	}
}

// PageSession is the browser surface tools act on. *browser.PageSession
// implements it; tests substitute fakes.
type PageSession interface {
	GetCurrentPage(ctx context.Context) (playwright.Page, error)
	WaitForStability(ctx context.Context) error
	Highlight(ctx context.Context, selector string) error
	Screenshot(ctx context.Context, label string) (string, error)
}

// Context carries the per-invocation execution state a tool needs:
// identity for event attribution and the page session to act on.
type Context struct {
	TaskID    string
	Step      int
	ToolRound int

	Bus  *events.Bus
	Page PageSession
}

// Tool is a capability exposed to the navigator through tool calling.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g. "open_url")
	Name() string

	// Description returns what the tool does, phrased for the model
	Description() string

	// Schema returns the JSON schema of the tool's arguments
	Schema() map[string]interface{}

	// Execute runs the tool with JSON-encoded arguments. Expected
	// failures (element not found, navigation refused) come back as the
	// result string so the model can adjust; errors are reserved for
	// faults the model can't act on.
	Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error)
}

// Registry is the static tool set handed to the navigator. It is
// validated once at construction; tools never change at runtime.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry validates and indexes a tool set. Duplicate or empty names
// and missing schemas are construction errors, surfaced at startup
// rather than mid-task.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name: %T", t)
		}
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		if t.Schema() == nil {
			return nil, fmt.Errorf("tool %q has no schema", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// DefaultRegistry assembles the standard browser tool set.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		NewOpenURLTool(),
		NewClickTool(),
		NewEnterTextTool(),
		NewBulkEnterTextTool(),
		NewEnterTextAndClickTool(),
		NewPressKeyCombinationTool(),
		NewGetDOMTool(),
		NewExtractPDFTextTool(),
	)
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions renders the registry for the LLM tool-calling API.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// emitAct publishes an act-level event attributed to the navigator.
// Subscriber failures are logged, not propagated; progress reporting
// must not sink a browser action that already happened.
func emitAct(ctx context.Context, exec *Context, state types.ExecutionState, tool, details string) {
	if exec.Bus == nil {
		return
	}
	err := exec.Bus.Emit(ctx, types.NewEvent(state, types.ActorNavigator, types.EventData{
		TaskID:    exec.TaskID,
		Step:      exec.Step,
		ToolRound: exec.ToolRound,
		Tool:      tool,
		Details:   details,
	}))
	if err != nil {
		toolLog.Warnf("act event subscriber error for %s: %v", tool, err)
	}
}
