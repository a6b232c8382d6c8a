package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// EnterTextTool types text into the element addressed by a DOM selector.
type EnterTextTool struct{}

// NewEnterTextTool creates the enter_text tool.
func NewEnterTextTool() *EnterTextTool {
	return &EnterTextTool{}
}

func (t *EnterTextTool) Name() string {
	return "enter_text"
}

func (t *EnterTextTool) Description() string {
	return "Enters text into the element matching the given selector, for example [mmid='1234']. Existing content is cleared first. Returns a message indicating success or failure of the text entry."
}

func (t *EnterTextTool) Schema() map[string]interface{} {
	return map[string]interface{}{
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
	}
}

type enterTextArgs struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

func (t *EnterTextTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in enterTextArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid enter_text arguments: %w", err)
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Entering text %q into element %q", in.Text, in.Selector))

	exec.Page.Screenshot(ctx, "enter_text_start")
	msg := doEnterText(ctx, exec, in.Selector, in.Text)
	exec.Page.Screenshot(ctx, "enter_text_end")

	emitAct(ctx, exec, types.ActOK, t.Name(), msg)
	return msg, nil
}

// doEnterText clears and fills the element. Success messages start with
// "Success." so composites can branch on the outcome.
func doEnterText(ctx context.Context, exec *Context, selector, text string) string {
	page, err := exec.Page.GetCurrentPage(ctx)
	if err != nil {
		return fmt.Sprintf("Failed to enter text into element with selector %q: %v", selector, err)
	}

	if err := exec.Page.Highlight(ctx, selector); err != nil {
		toolLog.Debugf("highlight failed for %s: %v", selector, err)
	}

	loc := page.Locator(selector)
	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(clickTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Sprintf("Failed to enter text: element with selector %q not found or not clickable. Error: %v", selector, err)
	}
	if err := loc.Fill(text); err != nil {
		return fmt.Sprintf("Failed to enter text into element with selector %q. Error: %v", selector, err)
	}

	exec.Page.WaitForStability(ctx)

	return fmt.Sprintf("Success. Text %q entered into the element with selector %q.", text, selector)
}
