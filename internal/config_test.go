package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := configFromViper(newViper(t.TempDir(), ""))

	require.NoError(t, config.Validate())
	assert.Equal(t, "http://localhost:8000", config.BackendURL)
	assert.Equal(t, DefaultClockInterval, config.ClockInterval)
	assert.Equal(t, "transcribe", config.DefaultMode)
	assert.Equal(t, 2, config.UploadConcurrency)
}

func TestEmbeddedConfigFileLoads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureDefaultConfig(dir))
	require.NoError(t, EnsureDefaultPrompt(dir))
	assert.FileExists(t, filepath.Join(dir, "prompt.txt"))

	v := newViper(dir, "")
	require.NoError(t, v.ReadInConfig())
	config := configFromViper(v)

	require.NoError(t, config.Validate())
	assert.Equal(t, 200*time.Millisecond, config.ClockInterval)
	assert.Equal(t, "127.0.0.1:8765", config.ListenAddr)
	assert.Equal(t, DefaultSessionIdleTimeout, config.SessionIdleTimeout)
}

func TestConfigFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend_url = "https://readtube.example"
poll_interval = "500ms"
log_level = "DEBUG"
`), 0644))

	t.Setenv("READTUBE_DEFAULT_MODE", "summarize")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	v := newViper(t.TempDir(), path)
	require.NoError(t, v.ReadInConfig())
	config := configFromViper(v)

	require.NoError(t, config.Validate())
	assert.Equal(t, "https://readtube.example", config.BackendURL)
	assert.Equal(t, 500*time.Millisecond, config.PollInterval)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "summarize", config.DefaultMode)
	assert.Equal(t, "sk-test", config.OpenAIAPIKey)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return configFromViper(newViper(t.TempDir(), ""))
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no backend", func(c *Config) { c.BackendURL = "" }},
		{"bad mode", func(c *Config) { c.DefaultMode = "translate" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"negative clock", func(c *Config) { c.ClockInterval = -time.Second }},
		{"no idle timeout", func(c *Config) { c.SessionIdleTimeout = 0 }},
		{"no uploads", func(c *Config) { c.UploadConcurrency = 0 }},
		{"verbose and quiet", func(c *Config) { c.Verbose, c.Quiet = true, true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	config := &Config{LogLevel: "warn"}
	assert.Equal(t, "warn", config.EffectiveLogLevel())

	config.Verbose = true
	assert.Equal(t, "debug", config.EffectiveLogLevel())
}
