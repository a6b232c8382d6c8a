package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// EnterTextAndClickTool enters text into one element and then clicks
// another, the common search-box-and-submit pattern. When both selectors
// are the same it presses Enter instead of clicking, since clicking the
// field just typed into achieves nothing.
type EnterTextAndClickTool struct{}

// NewEnterTextAndClickTool creates the enter_text_and_click tool.
func NewEnterTextAndClickTool() *EnterTextAndClickTool {
	return &EnterTextAndClickTool{}
}

func (t *EnterTextAndClickTool) Name() string {
	return "enter_text_and_click"
}

func (t *EnterTextAndClickTool) Description() string {
	return "Enters text into an element and then clicks on another element. Returns a message indicating the success or failure of the text entry and click."
}

func (t *EnterTextAndClickTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text_selector": map[string]interface{}{
				"type":        "string",
				"description": "The properly formatted DOM selector query, for example [mmid='1234'], where the text will be entered. Use mmid attribute.",
			},
			"text_to_enter": map[string]interface{}{
				"type":        "string",
				"description": "The text that will be entered into the element specified by text_selector.",
			},
			"click_selector": map[string]interface{}{
				"type":        "string",
				"description": "The properly formatted DOM selector query, for example [mmid='1234'], for the element that will be clicked after text entry.",
			},
			"wait_before_click_execution": map[string]interface{}{
				"type":        "number",
				"description": "Optional wait time in seconds before executing the click.",
			},
		},
		"required": []string{"text_selector", "text_to_enter", "click_selector"},
	}
}

type enterTextAndClickArgs struct {
	TextSelector             string  `json:"text_selector"`
	TextToEnter              string  `json:"text_to_enter"`
	ClickSelector            string  `json:"click_selector"`
	WaitBeforeClickExecution float64 `json:"wait_before_click_execution"`
}

func (t *EnterTextAndClickTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in enterTextAndClickArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid enter_text_and_click arguments: %w", err)
	}

	emitAct(ctx, exec, types.ActStart, t.Name(),
		fmt.Sprintf("Entering text %q into element with selector %q.", in.TextToEnter, in.TextSelector))

	exec.Page.Screenshot(ctx, "enter_text_and_click_start")

	textResult := doEnterText(ctx, exec, in.TextSelector, in.TextToEnter)
	emitAct(ctx, exec, types.ActOK, t.Name(), textResult)
	if !strings.HasPrefix(textResult, "Success") {
		exec.Page.Screenshot(ctx, "enter_text_and_click_end")
		return fmt.Sprintf("Failed to enter text %q into element with selector %q. Check that the selector is valid.",
			in.TextToEnter, in.TextSelector), nil
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Clicking element: %q", in.ClickSelector))

	var clickResult string
	if in.TextSelector == in.ClickSelector {
		pressed := doPressKeyCombination(ctx, exec, "Enter")
		if strings.HasPrefix(pressed, "Key") {
			clickResult = fmt.Sprintf("Instead of click, pressed the Enter key successfully on element: %q.", in.ClickSelector)
		} else {
			clickResult = fmt.Sprintf("Clicking the same element after entering text in it is of no value. Tried pressing the Enter key on element %q instead of click and failed.", in.ClickSelector)
		}
	} else {
		clickResult = doClick(ctx, exec, in.ClickSelector, in.WaitBeforeClickExecution)
	}

	emitAct(ctx, exec, types.ActOK, t.Name(), clickResult)

	exec.Page.WaitForStability(ctx)
	exec.Page.Screenshot(ctx, "enter_text_and_click_end")

	return textResult + " " + clickResult, nil
}
