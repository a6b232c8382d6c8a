package agent

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/agent/tools"
	"github.com/webpilot-ai/webpilot/pkg/browser"
)

// Page is the browser surface the decision roles depend on. The live
// implementation is *browser.PageSession; tests substitute fakes.
type Page interface {
	tools.PageSession

	Info(ctx context.Context) (*browser.PageInfo, error)
	SetCurrentPage(ctx context.Context, tabID string) (playwright.Page, error)
	CurrentTabID() string
}
