package agent

import (
	"context"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/browser"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// fakePage satisfies Page without a browser.
type fakePage struct {
	mu         sync.Mutex
	boundTabID string
}

func (f *fakePage) Info(ctx context.Context) (*browser.PageInfo, error) {
	return &browser.PageInfo{URL: "https://www.google.com", Title: "Google"}, nil
}

func (f *fakePage) SetCurrentPage(ctx context.Context, tabID string) (playwright.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boundTabID = tabID
	return nil, nil
}

func (f *fakePage) CurrentTabID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.boundTabID != "" {
		return f.boundTabID
	}
	return "tab-initial"
}

func (f *fakePage) GetCurrentPage(ctx context.Context) (playwright.Page, error) {
	return nil, nil
}

func (f *fakePage) WaitForStability(ctx context.Context) error {
	return nil
}

func (f *fakePage) Highlight(ctx context.Context, selector string) error {
	return nil
}

func (f *fakePage) Screenshot(ctx context.Context, label string) (string, error) {
	return "", nil
}

// fakeProvider scripts llm.Provider behavior per test.
type fakeProvider struct {
	mu sync.Mutex

	completeFn           func(ctx context.Context, msgs []*types.Message) (*types.Message, error)
	completeStructuredFn func(ctx context.Context, msgs []*types.Message, schema llm.ResponseSchema) (*llm.StructuredResult, error)
	completeWithToolsFn  func(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error)

	structuredCalls int
	toolCalls       int
}

func (f *fakeProvider) Complete(ctx context.Context, msgs []*types.Message) (*types.Message, error) {
	return f.completeFn(ctx, msgs)
}

func (f *fakeProvider) CompleteStructured(ctx context.Context, msgs []*types.Message, schema llm.ResponseSchema) (*llm.StructuredResult, error) {
	f.mu.Lock()
	f.structuredCalls++
	f.mu.Unlock()
	return f.completeStructuredFn(ctx, msgs, schema)
}

func (f *fakeProvider) CompleteWithTools(ctx context.Context, msgs []*types.Message, defs []llm.ToolDefinition) (*llm.ToolResponse, error) {
	f.mu.Lock()
	f.toolCalls++
	f.mu.Unlock()
	return f.completeWithToolsFn(ctx, msgs, defs)
}

func (f *fakeProvider) GetModel() string {
	return "fake-model"
}

func (f *fakeProvider) StructuredCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.structuredCalls
}

func (f *fakeProvider) ToolCallCompletions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toolCalls
}

// structuredResponse builds a provider that always returns the given raw
// JSON as a parsed structured result.
func structuredResponse(raw string) func(context.Context, []*types.Message, llm.ResponseSchema) (*llm.StructuredResult, error) {
	return func(ctx context.Context, msgs []*types.Message, schema llm.ResponseSchema) (*llm.StructuredResult, error) {
		return &llm.StructuredResult{Parsed: []byte(raw), Raw: raw}, nil
	}
}

// eventRecorder captures every event emitted on a bus topic.
type eventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

func newEventRecorder(bus *events.Bus) *eventRecorder {
	r := &eventRecorder{}
	bus.Subscribe(types.EventTypeExecution, func(ctx context.Context, event types.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
		return nil
	})
	return r
}

func (r *eventRecorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) States() []types.ExecutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.ExecutionState, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.State)
	}
	return out
}

func (r *eventRecorder) Last() types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}
