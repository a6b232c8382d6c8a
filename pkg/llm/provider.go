// Package llm provides abstractions for the reasoning services consumed by
// the planner and navigator roles.
//
// Providers handle API communication with LLM services and return plain
// results. This design keeps providers focused on LLM concerns without
// coupling them to agent-level events or orchestration: the agent layer
// owns conversation state, event emission, and budget accounting.
package llm

import (
	"context"
	"encoding/json"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// ToolDefinition describes one tool the LLM may invoke. Parameters is a
// JSON Schema object defining the tool's argument structure.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ResponseSchema describes the structured output expected from the model.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// StructuredResult is the outcome of a structured completion. Parsed is nil
// when the model's output could not be interpreted against the schema; Raw
// always holds the model's verbatim text.
type StructuredResult struct {
	Parsed json.RawMessage
	Raw    string
}

// ToolResponse is the outcome of a tool-bound completion. Either Text is
// the model's terminal answer, or ToolCalls holds the batch of invocations
// it requested for this round.
type ToolResponse struct {
	Text      string
	ToolCalls []types.ToolCall
}

// Provider defines the interface for LLM integrations.
type Provider interface {
	// Complete sends messages to the LLM and returns the full response.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// CompleteStructured requests a response conforming to the given JSON
	// schema. A response the model produced but that fails to parse is not
	// an error: the result carries a nil Parsed and the raw text, and the
	// caller decides whether to retry.
	CompleteStructured(ctx context.Context, messages []*types.Message, schema ResponseSchema) (*StructuredResult, error)

	// CompleteWithTools sends messages alongside a tool set and returns
	// either terminal text or the batch of tool calls the model requested.
	CompleteWithTools(ctx context.Context, messages []*types.Message, tools []ToolDefinition) (*ToolResponse, error)

	// GetModel returns the model name being used.
	GetModel() string
}
