package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// OpenURLTool navigates the current page to a URL.
type OpenURLTool struct{}

// NewOpenURLTool creates the open_url tool.
func NewOpenURLTool() *OpenURLTool {
	return &OpenURLTool{}
}

func (t *OpenURLTool) Name() string {
	return "open_url"
}

func (t *OpenURLTool) Description() string {
	return "Opens a specified URL in the active browser instance. Waits for an initial load event, then waits for either the 'domcontentloaded' event or a configurable timeout, whichever comes first. Returns the URL and title of the loaded page."
}

func (t *OpenURLTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to. Value must include the protocol (http:// or https://).",
			},
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Additional wait time in seconds after initial load. Default is 3 seconds.",
			},
		},
		"required": []string{"url"},
	}
}

type openURLArgs struct {
	URL     string  `json:"url"`
	Timeout float64 `json:"timeout"`
}

func (t *OpenURLTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in openURLArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid open_url arguments: %w", err)
	}
	if in.Timeout <= 0 {
		in.Timeout = 3
	}
	url := ensureProtocol(in.URL)

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Opening URL: %s", url))

	page, err := exec.Page.GetCurrentPage(ctx)
	if err != nil {
		return "", err
	}

	if page.URL() == url {
		title, _ := page.Title()
		msg := fmt.Sprintf("Page already loaded: %s, Title: %s", url, title)
		emitAct(ctx, exec, types.ActOK, t.Name(), msg)
		return msg, nil
	}

	exec.Page.Screenshot(ctx, "open_url_start")

	// Slow pages routinely blow the navigation timeout without being
	// broken. Proceed with whatever loaded and let the model judge.
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(in.Timeout * 1000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		toolLog.Warnf("navigation to %s incomplete: %v", url, err)
	}

	exec.Page.Screenshot(ctx, "open_url_end")

	title, _ := page.Title()
	msg := fmt.Sprintf("Page loaded: %s, Title: %s", page.URL(), title)
	emitAct(ctx, exec, types.ActOK, t.Name(), msg)
	return msg, nil
}

// ensureProtocol defaults bare hostnames to https.
func ensureProtocol(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}
