package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0640))
	return path
}

func TestLoad_SparseConfigGetsDefaults(t *testing.T) {
	path := writeConfig(t, `
planner:
  model: gpt-4o
navigator:
  model: gpt-4o-mini
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Planner.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.Navigator.Model)
	assert.Equal(t, DefaultMaxSteps, cfg.MaxSteps)
	assert.Equal(t, DefaultMaxErrors, cfg.MaxErrors)
	assert.Equal(t, DefaultMaxToolRounds, cfg.MaxToolRounds)
	assert.Equal(t, DefaultCDPPort, cfg.Browser.CDPPort)
	assert.Equal(t, DefaultHomePage, cfg.Browser.HomePage)
	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultRetryAttempts, cfg.Retry.Attempts)
	assert.True(t, cfg.SaveChatHistory)
	assert.NotEmpty(t, cfg.BaseDir)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
max_steps: 7
max_errors: 3
planner:
  model: gpt-4o
navigator:
  model: gpt-4o
server:
  host: 0.0.0.0
  port: 9000
retry:
  attempts: 5
  backoff_ms: 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxSteps)
	assert.Equal(t, 3, cfg.MaxErrors)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, int64(250), cfg.Retry.Backoff().Milliseconds())
}

func TestLoad_RequiresModels(t *testing.T) {
	path := writeConfig(t, `
planner:
  model: gpt-4o
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models must be configured")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_NonexistentChromePathCleared(t *testing.T) {
	path := writeConfig(t, `
planner:
  model: gpt-4o
navigator:
  model: gpt-4o
browser:
  chrome_app_path: /definitely/not/a/real/chrome
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Either autodiscovery found a real binary or the path is unset;
	// the bogus configured value never survives.
	assert.NotEqual(t, "/definitely/not/a/real/chrome", cfg.Browser.ChromeAppPath)
}
