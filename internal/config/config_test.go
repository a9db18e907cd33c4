package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	cmd.Flags().String("output-dir", "", "")
	cmd.Flags().String("column", "", "")
	cmd.Flags().Int("max-failures", 0, "")
	return cmd
}

// isolate points HOME at an empty directory and clears the variables Load reads
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "PROFILER_GEMINI_MODEL", "LINKEDIN_EMAIL", "LINKEDIN_PASSWORD",
		"PROFILER_CHROME_PATH", "PROFILER_PROXY", "PROFILER_USER_AGENT", "PROFILER_HEADLESS"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(newCmd(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".profiler"), 0755))
	yaml := `
log_level: info
browser:
  headless: false
  user_agent: file-agent
  page_timeout: 20s
linkedin:
  email: file@example.com
  session: work
gemini:
  model: file-model
  temperature: 0.2
pacing:
  before_min: 1s
  before_max: 2s
  max_consecutive_failures: 5
output:
  dir: ~/reports
`
	require.NoError(t, os.WriteFile(filepath.Join(home, ".profiler", "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("PROFILER_GEMINI_MODEL", "env-model")
	t.Setenv("PROFILER_USER_AGENT", "env-agent")

	cmd := newCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--model", "flag-model", "--verbose", "--max-failures", "3"}))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.BrowserHeadless)
	assert.Equal(t, "env-agent", cfg.UserAgent)
	assert.Equal(t, 20*time.Second, cfg.PageTimeout)
	assert.Equal(t, "file@example.com", cfg.LinkedInEmail)
	assert.Equal(t, "work", cfg.SessionName)
	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
	assert.Equal(t, "flag-model", cfg.GeminiModel)
	assert.InDelta(t, 0.2, cfg.GeminiTemperature, 1e-6)
	assert.Equal(t, time.Second, cfg.BeforeItemMin)
	assert.Equal(t, 2*time.Second, cfg.BeforeItemMax)
	assert.Equal(t, 3, cfg.MaxConsecutiveFailures)
	assert.Equal(t, filepath.Join(home, "reports"), cfg.OutputDir)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	cmd := newCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}))
	_, err := Load(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadRejectsBadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pacing:\n  after_min: soon\n"), 0644))

	cmd := newCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path}))
	_, err := Load(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pacing.after_min")
}

func TestLoadBadTimeoutFlag(t *testing.T) {
	isolate(t)
	cmd := newCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--timeout", "fast"}))
	_, err := Load(cmd)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log_level", func(c *Config) { c.LogLevel = "loud" }},
		{"page_timeout", func(c *Config) { c.PageTimeout = 0 }},
		{"pause_range", func(c *Config) { c.AfterItemMax = c.AfterItemMin - time.Second }},
		{"max_failures", func(c *Config) { c.MaxConsecutiveFailures = -1 }},
		{"rps", func(c *Config) { c.GeminiRPS = 0 }},
		{"temperature", func(c *Config) { c.GeminiTemperature = 3 }},
		{"backend", func(c *Config) { c.SessionBackend = "vault" }},
		{"column", func(c *Config) { c.URLColumn = " " }},
		{"proxy", func(c *Config) { c.Proxy = "localhost" }},
	}
	require.NoError(t, validate(Default()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, validate(c))
		})
	}
}
