package browser

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/logging"
)

// tabIDAttribute tags pages the session has managed so a later
// SetCurrentPage call can find them again after the model switched tabs.
const tabIDAttribute = "data-pilot-tab-id"

// settleDelay is the pause granted after the last observed DOM mutation
// before the page is considered stable enough to read.
const settleDelay = 100 * time.Millisecond

// domObserverScript installs a MutationObserver that reports DOM churn
// back through an exposed binding. Installed once per page on its first
// DOMContentLoaded.
const domObserverScript = `() => {
	if (window.__wpObserverInstalled) { return; }
	window.__wpObserverInstalled = true;
	const observer = new MutationObserver(() => {
		if (window.__wpNotifyDomChange) {
			window.__wpNotifyDomChange(document.location.href);
		}
	});
	observer.observe(document, { childList: true, subtree: true, attributes: true });
}`

// PageInfo is the navigation state surfaced to decision prompts.
type PageInfo struct {
	URL   string
	Title string
}

// PageSession tracks the single page the agent is working against inside
// a browser context, and keeps that page observable across navigations
// and tab switches.
type PageSession struct {
	mu sync.Mutex

	browserCtx playwright.BrowserContext
	current    playwright.Page

	homePage       string
	screenshotsDir string
	captureScreens bool

	// currentTabID is the tag on the bound page, empty when tagging
	// failed. Exposed so clients can refer to the tab in later runs.
	currentTabID string

	// wired records pages that already carry the navigation hook.
	wired map[playwright.Page]bool

	domChanged chan string
	log        *logging.Logger
}

// NewPageSession wraps a browser context. No page is bound until the
// first GetCurrentPage or SetCurrentPage call.
func NewPageSession(browserCtx playwright.BrowserContext, homePage, screenshotsDir string, captureScreens bool) *PageSession {
	log, err := logging.NewLogger("browser")
	if err != nil {
		log.Warnf("failed to initialize browser logger, using stderr fallback: %v", err)
	}
	return &PageSession{
		browserCtx:     browserCtx,
		homePage:       homePage,
		screenshotsDir: screenshotsDir,
		captureScreens: captureScreens,
		wired:          make(map[playwright.Page]bool),
		domChanged:     make(chan string, 64),
		log:            log,
	}
}

// GetCurrentPage returns the bound page, adopting the most recently
// opened page in the context when none is bound yet, or opening a fresh
// page at the home URL when the context is empty.
func (s *PageSession) GetCurrentPage(ctx context.Context) (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPageLocked(ctx)
}

func (s *PageSession) currentPageLocked(ctx context.Context) (playwright.Page, error) {
	if s.current != nil && !s.current.IsClosed() {
		return s.current, nil
	}

	pages := s.browserCtx.Pages()
	if len(pages) > 0 {
		page := pages[len(pages)-1]
		if err := s.adoptLocked(page); err != nil {
			return nil, err
		}
		return s.current, nil
	}

	return s.openHomePageLocked(ctx)
}

// SetCurrentPage rebinds the session to the page previously tagged with
// tabID. An empty or unknown id falls back to a fresh page at the home
// URL; the fallback is logged because it usually means the model referred
// to a tab that no longer exists.
func (s *PageSession) SetCurrentPage(ctx context.Context, tabID string) (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tabID != "" {
		for _, page := range s.browserCtx.Pages() {
			if page.IsClosed() {
				continue
			}
			if s.readTabID(page) == tabID {
				if err := s.adoptLocked(page); err != nil {
					return nil, err
				}
				if err := page.BringToFront(); err != nil {
					s.log.Warnf("failed to focus tab %s: %v", tabID, err)
				}
				return s.current, nil
			}
		}
		s.log.Warnf("tab %s not found, opening home page instead", tabID)
	}

	return s.openHomePageLocked(ctx)
}

// adoptLocked makes page the session's current page. A page that already
// carries a tab id keeps it so external references to the tab stay
// valid; only untagged pages get stamped. The navigation hook is wired
// once per page.
func (s *PageSession) adoptLocked(page playwright.Page) error {
	tabID := s.readTabID(page)
	if tabID == "" {
		tabID = uuid.NewString()
		if _, err := page.Evaluate(
			fmt.Sprintf("id => document.documentElement.setAttribute('%s', id)", tabIDAttribute), tabID,
		); err != nil {
			// Tagging is best effort; an about:blank page before
			// navigation may reject evaluation.
			s.log.Debugf("failed to tag page: %v", err)
			tabID = ""
		}
	}

	if !s.wired[page] {
		s.wirePage(page)
		s.wired[page] = true
	}

	s.current = page
	s.currentTabID = tabID
	return nil
}

// readTabID returns the tab id stamped on a page, empty when untagged or
// unreadable.
func (s *PageSession) readTabID(page playwright.Page) string {
	v, err := page.Evaluate(fmt.Sprintf("() => document.documentElement.getAttribute('%s')", tabIDAttribute))
	if err != nil {
		return ""
	}
	id, _ := v.(string)
	return id
}

// CurrentTabID returns the tab id of the bound page, empty when no page
// is bound or the page could not be tagged.
func (s *PageSession) CurrentTabID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTabID
}

// wirePage installs the DOM mutation observer on every future navigation
// of the page. The exposed binding feeds the domChanged channel.
func (s *PageSession) wirePage(page playwright.Page) {
	err := page.ExposeFunction("__wpNotifyDomChange", func(args ...interface{}) interface{} {
		url := ""
		if len(args) > 0 {
			url, _ = args[0].(string)
		}
		select {
		case s.domChanged <- url:
		default:
			// Drop when nobody is draining; stability checks only care
			// about recency, not completeness.
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("failed to expose dom change binding: %v", err)
		return
	}

	page.OnDOMContentLoaded(func(p playwright.Page) {
		if _, err := p.Evaluate(domObserverScript); err != nil {
			s.log.Debugf("failed to install dom observer: %v", err)
		}
	})
}

// openHomePageLocked opens a new page at the configured home URL and
// binds it.
func (s *PageSession) openHomePageLocked(ctx context.Context) (playwright.Page, error) {
	page, err := s.browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := s.adoptLocked(page); err != nil {
		return nil, err
	}

	if _, err := page.Goto(s.homePage, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		// Slow or flaky home pages shouldn't sink the session; the page
		// object is still usable.
		s.log.Warnf("home page navigation incomplete: %v", err)
	}

	return s.current, nil
}

// Highlight briefly outlines the element matched by selector so a human
// watching the session (or a screenshot) can see what the agent is about
// to act on.
func (s *PageSession) Highlight(ctx context.Context, selector string) error {
	page, err := s.GetCurrentPage(ctx)
	if err != nil {
		return err
	}

	_, err = page.Locator(selector).Evaluate(`el => {
		const prev = el.style.outline;
		el.style.outline = '2px solid #f33';
		setTimeout(() => { el.style.outline = prev; }, 500);
	}`, nil)
	if err != nil {
		return fmt.Errorf("failed to highlight %s: %w", selector, err)
	}
	return nil
}

// Info returns the current page's URL and title.
func (s *PageSession) Info(ctx context.Context) (*PageInfo, error) {
	page, err := s.GetCurrentPage(ctx)
	if err != nil {
		return nil, err
	}

	title, err := page.Title()
	if err != nil {
		return nil, fmt.Errorf("failed to read page title: %w", err)
	}
	return &PageInfo{URL: page.URL(), Title: title}, nil
}

// WaitForStability drains pending DOM mutation notifications and waits
// for a quiet window before returning. Bounded by the context deadline.
func (s *PageSession) WaitForStability(ctx context.Context) error {
	for {
		select {
		case <-s.domChanged:
			// Mutation observed, restart the quiet window.
		case <-time.After(settleDelay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Screenshot captures the current page to the screenshots directory when
// capture is enabled. Returns the file path, or "" when disabled.
func (s *PageSession) Screenshot(ctx context.Context, label string) (string, error) {
	if !s.captureScreens {
		return "", nil
	}

	page, err := s.GetCurrentPage(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.screenshotsDir, fmt.Sprintf("%s-%d.png", label, time.Now().UnixMilli()))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return path, nil
}

// Close closes the bound page if there is one.
func (s *PageSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.IsClosed() {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	s.currentTabID = ""
	return err
}
