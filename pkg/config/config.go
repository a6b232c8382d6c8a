// Package config loads the YAML configuration for the webpilot service:
// per-role LLM settings, browser acquisition settings, the control server
// address, and the execution budgets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for execution budgets and infrastructure settings.
const (
	DefaultMaxSteps      = 100
	DefaultMaxErrors     = 20
	DefaultMaxToolRounds = 20

	DefaultCDPPort = 9222

	DefaultServerHost = "127.0.0.1"
	DefaultServerPort = 6768

	DefaultHomePage = "https://www.google.com"

	DefaultRetryAttempts = 3
)

// AgentConfig holds the LLM settings for one decision role.
type AgentConfig struct {
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// BrowserConfig controls how the browser session is acquired.
type BrowserConfig struct {
	// ChromeAppPath points at an external Chrome binary. When set, the
	// session attaches over the remote debugging protocol instead of
	// launching an owned browser.
	ChromeAppPath string `yaml:"chrome_app_path,omitempty"`

	// CDPPort is the local remote-debugging port to probe and attach to.
	CDPPort int `yaml:"cdp_port"`

	Headless bool `yaml:"headless"`

	// ScreenshotCapture records before/after screenshots of tool actions.
	ScreenshotCapture bool `yaml:"screenshot_capture"`

	HomePage string `yaml:"home_page,omitempty"`
}

// ServerConfig is the WebSocket control channel address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RetryConfig bounds the local retry around structured decision output.
type RetryConfig struct {
	Attempts  int `yaml:"attempts"`
	BackoffMS int `yaml:"backoff_ms"`
}

// Backoff returns the configured backoff as a duration.
func (r RetryConfig) Backoff() time.Duration {
	return time.Duration(r.BackoffMS) * time.Millisecond
}

// Config is the full service configuration.
type Config struct {
	BaseDir string `yaml:"base_dir"`

	SaveChatHistory bool `yaml:"save_chat_history"`
	LogEvents       bool `yaml:"log_events"`

	MaxSteps      int `yaml:"max_steps"`
	MaxErrors     int `yaml:"max_errors"`
	MaxToolRounds int `yaml:"max_tool_rounds"`

	Planner   AgentConfig `yaml:"planner"`
	Navigator AgentConfig `yaml:"navigator"`

	Browser BrowserConfig `yaml:"browser"`
	Server  ServerConfig  `yaml:"server"`
	Retry   RetryConfig   `yaml:"retry"`
}

// Load reads and validates a YAML config file, filling defaults for
// anything the file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if cfg.Planner.Model == "" || cfg.Navigator.Model == "" {
		return nil, fmt.Errorf("planner and navigator models must be configured")
	}

	return cfg, nil
}

// defaultConfig returns a config populated with defaults so a sparse YAML
// file only needs to name what it changes.
func defaultConfig() *Config {
	return &Config{
		SaveChatHistory: true,
		LogEvents:       true,
		MaxSteps:        DefaultMaxSteps,
		MaxErrors:       DefaultMaxErrors,
		MaxToolRounds:   DefaultMaxToolRounds,
		Browser: BrowserConfig{
			CDPPort:  DefaultCDPPort,
			HomePage: DefaultHomePage,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
		Retry: RetryConfig{
			Attempts: DefaultRetryAttempts,
		},
	}
}

// applyDefaults fills gaps a YAML document may have introduced by setting
// fields to zero values, and resolves the Chrome path.
func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.BaseDir = filepath.Join(home, ".webpilot")
		} else {
			c.BaseDir = ".webpilot"
		}
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = DefaultMaxErrors
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = DefaultMaxToolRounds
	}
	if c.Browser.CDPPort <= 0 {
		c.Browser.CDPPort = DefaultCDPPort
	}
	if c.Browser.HomePage == "" {
		c.Browser.HomePage = DefaultHomePage
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port <= 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = DefaultRetryAttempts
	}

	// A configured Chrome path that doesn't exist is treated as unset,
	// then autodiscovery gets a chance.
	if c.Browser.ChromeAppPath != "" {
		if _, err := os.Stat(c.Browser.ChromeAppPath); err != nil {
			c.Browser.ChromeAppPath = ""
		}
	}
	if c.Browser.ChromeAppPath == "" {
		c.Browser.ChromeAppPath = FindChromePath()
	}
}

// FindChromePath tries well-known install locations for Google Chrome on
// the current platform. Returns "" when no binary is found, in which case
// the session falls back to launching an owned Chromium.
func FindChromePath() string {
	var candidates []string

	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"),
		}
	case "linux":
		candidates = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
		}
	case "windows":
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			if base := os.Getenv(env); base != "" {
				candidates = append(candidates, filepath.Join(base, "Google/Chrome/Application/chrome.exe"))
			}
		}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
