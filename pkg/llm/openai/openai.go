// Package openai provides an OpenAI-compatible implementation of the
// llm.Provider interface, covering plain, structured, and tool-bound
// completions.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Provider implements llm.Provider against OpenAI-compatible APIs.
type Provider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
// This enables using Azure OpenAI, local models, or other compatible services.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
//
// If apiKey is empty, it will attempt to read from the OPENAI_API_KEY
// environment variable. The default model is "gpt-4o".
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	p := &Provider{
		model:  "gpt-4o",
		apiKey: apiKey,
	}
	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(p.apiKey)}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.baseURL))
	}
	p.client = openai.NewClient(clientOpts...)

	return p, nil
}

// Complete sends messages to the API and returns the full response.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertMessages(messages),
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	return types.NewAssistantMessage(resp.Choices[0].Message.Content), nil
}

// CompleteStructured requests a response conforming to the given JSON
// schema. Output that fails to parse yields a result with nil Parsed and
// the raw text; it is not an error.
func (p *Provider) CompleteStructured(ctx context.Context, messages []*types.Message, schema llm.ResponseSchema) (*llm.StructuredResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertMessages(messages),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schema.Name,
					Description: openai.String(schema.Description),
					Schema:      schema.Schema,
				},
			},
		},
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("structured completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("structured completion returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	result := &llm.StructuredResult{Raw: raw}

	// Models occasionally emit prose or truncated JSON despite the schema
	// constraint. Surface that as an unparsed result rather than an error.
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		result.Parsed = probe
	}

	return result, nil
}

// CompleteWithTools sends messages alongside a tool set and returns either
// terminal text or the batch of tool calls the model requested.
func (p *Provider) CompleteWithTools(ctx context.Context, messages []*types.Message, tools []llm.ToolDefinition) (*llm.ToolResponse, error) {
	toolParams := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, def := range tools {
		toolParams = append(toolParams, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  openai.FunctionParameters(def.Parameters),
			},
		})
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertMessages(messages),
		Tools:    toolParams,
	})
	if err != nil {
		return nil, fmt.Errorf("tool completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("tool completion returned no choices")
	}

	choice := resp.Choices[0].Message
	out := &llm.ToolResponse{Text: choice.Content}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used, empty for the default.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// convertMessages converts our Message format to OpenAI's
// ChatCompletionMessageParamUnion format, preserving tool-call linkage on
// assistant and tool messages.
func convertMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				out = append(out, assistantWithToolCalls(msg))
				continue
			}
			out = append(out, openai.AssistantMessage(msg.Content))
		case types.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			// Unknown roles degrade to user messages
			out = append(out, openai.UserMessage(msg.Content))
		}
	}

	return out
}

// assistantWithToolCalls rebuilds an assistant turn that requested tools,
// which the API requires before the matching tool-role results.
func assistantWithToolCalls(msg *types.Message) openai.ChatCompletionMessageParamUnion {
	calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}

	assistant := &openai.ChatCompletionAssistantMessageParam{
		ToolCalls: calls,
	}
	if msg.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}
}
