package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// BulkEnterTextTool fills several elements in one tool call, e.g. a
// login form's username and password fields.
type BulkEnterTextTool struct{}

// NewBulkEnterTextTool creates the bulk_enter_text tool.
func NewBulkEnterTextTool() *BulkEnterTextTool {
	return &BulkEnterTextTool{}
}

func (t *BulkEnterTextTool) Name() string {
	return "bulk_enter_text"
}

func (t *BulkEnterTextTool) Description() string {
	return "Enters text into multiple elements in a single operation. Takes a list of selector and text pairs and fills each element in order, clearing existing content first. Returns one message per entry indicating success or failure."
}

func (t *BulkEnterTextTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entries": map[string]interface{}{
				"type":        "array",
				"description": "List of entries to fill, each with a selector and the text to enter.",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"selector": map[string]interface{}{
							"type":        "string",
							"description": "The properly formatted DOM selector query, for example [mmid='1234'], where the text will be entered. Use mmid attribute.",
						},
						"text": map[string]interface{}{
							"type":        "string",
							"description": "The text that will be entered into the element.",
						},
					},
					"required": []string{"selector", "text"},
				},
			},
		},
		"required": []string{"entries"},
	}
}

type bulkEnterTextArgs struct {
	Entries []enterTextArgs `json:"entries"`
}

func (t *BulkEnterTextTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in bulkEnterTextArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid bulk_enter_text arguments: %w", err)
	}
	if len(in.Entries) == 0 {
		return "Failed to enter text: no entries provided.", nil
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Entering text into %d elements", len(in.Entries)))

	exec.Page.Screenshot(ctx, "bulk_enter_text_start")
	results := make([]string, 0, len(in.Entries))
	for _, entry := range in.Entries {
		results = append(results, doEnterText(ctx, exec, entry.Selector, entry.Text))
	}
	exec.Page.Screenshot(ctx, "bulk_enter_text_end")

	msg := strings.Join(results, "\n")
	emitAct(ctx, exec, types.ActOK, t.Name(), msg)
	return msg, nil
}
