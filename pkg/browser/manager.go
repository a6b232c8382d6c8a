// Package browser acquires and supervises the browser session the agent
// drives: either an owned Chromium launched through Playwright, or an
// external Chrome attached over the Chrome DevTools Protocol.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/logging"
)

const (
	cdpProbeTimeout = 3 * time.Second
	cdpStartupWait  = 10 * time.Second
	stopTimeout     = 5 * time.Second
)

// Manager owns the lifecycle of one browser session.
type Manager struct {
	mu sync.Mutex

	cfg            config.BrowserConfig
	screenshotsDir string

	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	launcher   *Launcher
	session    *PageSession

	initialized bool
	log         *logging.Logger
}

// NewManager creates a manager; nothing is launched until Acquire.
func NewManager(cfg config.BrowserConfig, screenshotsDir string) *Manager {
	log, err := logging.NewLogger("browser")
	if err != nil {
		log.Warnf("failed to initialize browser logger, using stderr fallback: %v", err)
	}
	return &Manager{
		cfg:            cfg,
		screenshotsDir: screenshotsDir,
		log:            log,
	}
}

// Acquire brings up the browser session. Idempotent: concurrent and
// repeated calls share the one session.
func (m *Manager) Acquire(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	return m.acquireLocked(ctx)
}

func (m *Manager) acquireLocked(ctx context.Context) error {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	m.pw = pw

	var browser playwright.Browser
	if m.cfg.ChromeAppPath == "" {
		m.log.Infof("launching owned browser (headless=%v)", m.cfg.Headless)
		browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(m.cfg.Headless),
			Args: []string{
				"--no-first-run",
				"--no-default-browser-check",
			},
		})
		if err != nil {
			pw.Stop()
			m.pw = nil
			return fmt.Errorf("failed to launch browser: %w", err)
		}
	} else {
		browser, err = m.attachOverCDP(ctx, pw)
		if err != nil {
			pw.Stop()
			m.pw = nil
			return err
		}
	}
	m.browser = browser

	// Attached Chrome usually brings an existing default context; reuse
	// it so the agent sees the user's open tabs.
	contexts := browser.Contexts()
	if len(contexts) > 0 {
		m.browserCtx = contexts[0]
	} else {
		bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
			NoViewport: playwright.Bool(true),
		})
		if err != nil {
			m.teardownLocked()
			return fmt.Errorf("failed to create browser context: %w", err)
		}
		m.browserCtx = bctx
	}

	m.session = NewPageSession(m.browserCtx, m.cfg.HomePage, m.screenshotsDir, m.cfg.ScreenshotCapture)
	if _, err := m.session.GetCurrentPage(ctx); err != nil {
		m.teardownLocked()
		return fmt.Errorf("failed to open initial page: %w", err)
	}

	m.initialized = true
	return nil
}

// attachOverCDP connects to an external Chrome, starting one when the
// debugging port is not answering.
func (m *Manager) attachOverCDP(ctx context.Context, pw *playwright.Playwright) (playwright.Browser, error) {
	endpoint := fmt.Sprintf("http://127.0.0.1:%d", m.cfg.CDPPort)

	if !m.probeCDP(ctx) {
		m.log.Infof("no browser on port %d, starting %s", m.cfg.CDPPort, m.cfg.ChromeAppPath)
		m.launcher = NewLauncher(m.cfg.ChromeAppPath, m.cfg.CDPPort, filepath.Join(m.screenshotsDir, "..", "chrome-profile"))
		if err := m.launcher.Start(); err != nil {
			return nil, err
		}
		if !m.waitForCDP(ctx) {
			m.launcher.Stop(stopTimeout)
			m.launcher = nil
			return nil, fmt.Errorf("chrome did not expose debugging port %d", m.cfg.CDPPort)
		}
	}

	browser, err := pw.Chromium.ConnectOverCDP(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect over CDP: %w", err)
	}
	return browser, nil
}

// probeCDP checks whether a debuggable browser answers on the configured
// port.
func (m *Manager) probeCDP(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, cdpProbeTimeout)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/json/version", m.cfg.CDPPort)
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// waitForCDP polls the debugging port after spawning Chrome until it
// answers or the startup window elapses.
func (m *Manager) waitForCDP(ctx context.Context) bool {
	deadline := time.Now().Add(cdpStartupWait)
	for time.Now().Before(deadline) {
		if m.probeCDP(ctx) {
			return true
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// Session returns the page session. Errors if Acquire hasn't succeeded.
func (m *Manager) Session() (*PageSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("browser session not acquired")
	}
	return m.session, nil
}

// Reinitialize tears down the current session and acquires a fresh one.
// Used by callers that detect the browser went away mid-task.
func (m *Manager) Reinitialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("reinitializing browser session")
	m.teardownLocked()
	return m.acquireLocked(ctx)
}

// Close shuts the session down, including any Chrome process this
// manager launched.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	return nil
}

func (m *Manager) teardownLocked() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.log.Warnf("error closing browser: %v", err)
		}
		m.browser = nil
	}
	m.browserCtx = nil
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil {
			m.log.Warnf("error stopping playwright: %v", err)
		}
		m.pw = nil
	}
	if m.launcher != nil {
		if err := m.launcher.Stop(stopTimeout); err != nil {
			m.log.Warnf("error stopping chrome: %v", err)
		}
		m.launcher = nil
	}
	m.initialized = false
}
