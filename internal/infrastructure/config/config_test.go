package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Window config
	assert.Equal(t, "webbridge", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.False(t, cfg.Window.Debug)

	// Remote config
	assert.Equal(t, "127.0.0.1:8080", cfg.Remote.Addr)
	assert.True(t, cfg.Remote.Metrics)
	assert.Equal(t, 100, cfg.Remote.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.Remote.RateLimit.Burst)
	assert.True(t, cfg.Remote.RateLimit.Enabled)
	assert.False(t, cfg.Remote.RateLimit.Global)

	// Headless config
	assert.Equal(t, 5*time.Second, cfg.Headless.ScriptTimeout)
	assert.Equal(t, 3, cfg.Headless.FetchFailures)
	assert.Equal(t, 30*time.Second, cfg.Headless.FetchCooldown)
	assert.True(t, cfg.Headless.Console)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "127.0.0.1:8080", cfg.Remote.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"WEBBRIDGE_TITLE":              "Counter",
		"WEBBRIDGE_WIDTH":              "1024",
		"WEBBRIDGE_ADDR":               ":9000",
		"WEBBRIDGE_ALLOWED_ORIGINS":    "http://a.test,http://b.test",
		"WEBBRIDGE_RATE_LIMIT_RPS":     "500",
		"WEBBRIDGE_RATE_LIMIT_ENABLED": "false",
		"WEBBRIDGE_RATE_LIMIT_GLOBAL":  "true",
		"WEBBRIDGE_SCRIPT_TIMEOUT":     "250ms",
		"LOG_LEVEL":                    "debug",
		"LOG_DEV":                      "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Counter", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, ":9000", cfg.Remote.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Remote.AllowedOrigins)
	assert.Equal(t, 500, cfg.Remote.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.Remote.RateLimit.Burst)
	assert.False(t, cfg.Remote.RateLimit.Enabled)
	assert.True(t, cfg.Remote.RateLimit.Global)
	assert.Equal(t, 250*time.Millisecond, cfg.Headless.ScriptTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("WEBBRIDGE_WIDTH", "wide")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 800, cfg.Window.Width)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webbridge.yaml")
	content := `
window:
  title: From File
  width: 1280
remote:
  addr: 0.0.0.0:7000
  rate_limit:
    burst: 50
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("WEBBRIDGE_ADDR", "127.0.0.1:7001")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	// file values
	assert.Equal(t, "From File", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 50, cfg.Remote.RateLimit.Burst)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// defaults survive for keys the file omits
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, 100, cfg.Remote.RateLimit.RequestsPerSecond)

	// environment wins over the file
	assert.Equal(t, "127.0.0.1:7001", cfg.Remote.Addr)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [unclosed"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
