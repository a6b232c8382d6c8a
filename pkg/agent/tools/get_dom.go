package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// maxDOMOutput caps the payload returned to the model; pages can be
// arbitrarily large and the transcript must not be.
const maxDOMOutput = 48000

// GetDOMTool returns a cleaned representation of the current page: its
// readable text or its interactive fields annotated with mmid ids.
type GetDOMTool struct{}

// NewGetDOMTool creates the get_dom_with_content_type tool.
func NewGetDOMTool() *GetDOMTool {
	return &GetDOMTool{}
}

func (t *GetDOMTool) Name() string {
	return "get_dom_with_content_type"
}

func (t *GetDOMTool) Description() string {
	return "Retrieves the DOM of the current web page based on the given content type. 'text_only' returns the text content of the page for summarization or question answering. 'input_fields' returns a JSON list of the form fields on the page. 'all_fields' returns a JSON list of all interactive elements. Elements carry an mmid attribute for use in selectors."
}

func (t *GetDOMTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content_type": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"text_only", "input_fields", "all_fields"},
				"description": "The type of DOM content to retrieve.",
			},
		},
		"required": []string{"content_type"},
	}
}

type getDOMArgs struct {
	ContentType string `json:"content_type"`
}

func (t *GetDOMTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in getDOMArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid get_dom arguments: %w", err)
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Fetching DOM (%s)", in.ContentType))

	page, err := exec.Page.GetCurrentPage(ctx)
	if err != nil {
		return "", err
	}

	// Tag interactive elements before reading so selectors stay valid.
	if _, err := page.Evaluate(annotateScript); err != nil {
		toolLog.Warnf("mmid annotation failed: %v", err)
	}

	content, err := page.Content()
	if err != nil {
		return fmt.Sprintf("Failed to read page content: %v", err), nil
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Sprintf("Failed to parse page content: %v", err), nil
	}

	var out string
	switch in.ContentType {
	case "text_only":
		out = extractVisibleText(doc)
	case "input_fields":
		out, err = marshalFields(collectFields(doc, true))
	case "all_fields":
		out, err = marshalFields(collectFields(doc, false))
	default:
		return fmt.Sprintf("Unsupported content_type %q. Use text_only, input_fields or all_fields.", in.ContentType), nil
	}
	if err != nil {
		return "", err
	}

	if len(out) > maxDOMOutput {
		out = out[:maxDOMOutput] + "\n[content truncated]"
	}

	emitAct(ctx, exec, types.ActOK, t.Name(), fmt.Sprintf("Fetched DOM (%s), %d characters", in.ContentType, len(out)))
	return out, nil
}

func marshalFields(fields []domField) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode DOM fields: %w", err)
	}
	return string(data), nil
}
