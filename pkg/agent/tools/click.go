package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// clickTimeout bounds how long an element lookup may block before the
// click is reported as failed to the model.
const clickTimeout = 2 * time.Second

// ClickTool clicks the element addressed by a DOM selector.
type ClickTool struct{}

// NewClickTool creates the click tool.
func NewClickTool() *ClickTool {
	return &ClickTool{}
}

func (t *ClickTool) Name() string {
	return "click"
}

func (t *ClickTool) Description() string {
	return "Executes a click action on the element matching the given selector, for example [mmid='1234']. Returns a message indicating success or failure of the click."
}

func (t *ClickTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "The properly formatted DOM selector query, for example [mmid='1234']. Use mmid attribute.",
			},
			"wait_before_execution": map[string]interface{}{
				"type":        "number",
				"description": "Optional wait time in seconds before executing the click.",
			},
		},
		"required": []string{"selector"},
	}
}

type clickArgs struct {
	Selector            string  `json:"selector"`
	WaitBeforeExecution float64 `json:"wait_before_execution"`
}

func (t *ClickTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in clickArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid click arguments: %w", err)
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Clicking element: %q", in.Selector))

	exec.Page.Screenshot(ctx, "click_start")
	msg := doClick(ctx, exec, in.Selector, in.WaitBeforeExecution)
	exec.Page.Screenshot(ctx, "click_end")

	emitAct(ctx, exec, types.ActOK, t.Name(), msg)
	return msg, nil
}

// doClick performs the click and describes the outcome. Shared with the
// enter_text_and_click composite.
func doClick(ctx context.Context, exec *Context, selector string, waitSeconds float64) string {
	page, err := exec.Page.GetCurrentPage(ctx)
	if err != nil {
		return fmt.Sprintf("Failed to click element with selector %q: %v", selector, err)
	}

	if waitSeconds > 0 {
		select {
		case <-time.After(time.Duration(waitSeconds * float64(time.Second))):
		case <-ctx.Done():
			return fmt.Sprintf("Failed to click element with selector %q: %v", selector, ctx.Err())
		}
	}

	loc := page.Locator(selector)
	if err := loc.ScrollIntoViewIfNeeded(); err != nil {
		toolLog.Debugf("scroll into view failed for %s: %v", selector, err)
	}
	if err := exec.Page.Highlight(ctx, selector); err != nil {
		toolLog.Debugf("highlight failed for %s: %v", selector, err)
	}
	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(clickTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Sprintf("Failed to click element with selector %q. Check that the selector is valid. Error: %v", selector, err)
	}

	// Give the mutation observer a beat to report consequences.
	exec.Page.WaitForStability(ctx)

	return fmt.Sprintf("Executed click on element with selector: %q. The click triggered successfully.", selector)
}
