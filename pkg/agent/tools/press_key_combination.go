package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// PressKeyCombinationTool simulates keyboard input on the current page.
type PressKeyCombinationTool struct{}

// NewPressKeyCombinationTool creates the press_key_combination tool.
func NewPressKeyCombinationTool() *PressKeyCombinationTool {
	return &PressKeyCombinationTool{}
}

func (t *PressKeyCombinationTool) Name() string {
	return "press_key_combination"
}

func (t *PressKeyCombinationTool) Description() string {
	return "Presses a key or a key combination on the current active page, for example 'Enter' to submit a search field or 'Control+C' to copy. Returns the status of the operation."
}

func (t *PressKeyCombinationTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key_combination": map[string]interface{}{
				"type":        "string",
				"description": "The key combination to press, use '+' as a separator for combinations. e.g., 'Control+C'.",
			},
		},
		"required": []string{"key_combination"},
	}
}

type pressKeyArgs struct {
	KeyCombination string `json:"key_combination"`
}

func (t *PressKeyCombinationTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in pressKeyArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid press_key_combination arguments: %w", err)
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Pressing key combination: %s", in.KeyCombination))

	msg := doPressKeyCombination(ctx, exec, in.KeyCombination)

	emitAct(ctx, exec, types.ActOK, t.Name(), msg)
	return msg, nil
}

// doPressKeyCombination holds modifier keys, presses the final key and
// releases in reverse. Shared with the enter_text_and_click composite.
func doPressKeyCombination(ctx context.Context, exec *Context, combination string) string {
	page, err := exec.Page.GetCurrentPage(ctx)
	if err != nil {
		return fmt.Sprintf("Failed to press key combination %q: %v", combination, err)
	}

	keys := strings.Split(combination, "+")
	kb := page.Keyboard()

	for _, key := range keys[:len(keys)-1] {
		if err := kb.Down(key); err != nil {
			return fmt.Sprintf("Failed to press key combination %q: %v", combination, err)
		}
	}
	if err := kb.Press(keys[len(keys)-1]); err != nil {
		return fmt.Sprintf("Failed to press key combination %q: %v", combination, err)
	}
	for i := len(keys) - 2; i >= 0; i-- {
		if err := kb.Up(keys[i]); err != nil {
			return fmt.Sprintf("Failed to release key %q: %v", keys[i], err)
		}
	}

	exec.Page.WaitForStability(ctx)

	return fmt.Sprintf("Key %s executed successfully", combination)
}
