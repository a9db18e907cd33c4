package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/profiler/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SessionBackend = "file"
	cfg.SessionDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewWritesLogFile(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	cfg := testConfig(t)
	cfg.LogLevel = "debug"
	cfg.JSONLog = true
	cfg.LogFile = filepath.Join(t.TempDir(), "profiler.log")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	log.Debug().Str("probe", "value").Msg("hello from test")
	require.NoError(t, a.Close(context.Background()))

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"probe":"value"`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("info"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(""))
}

func TestOrchestratorNeedsAPIKey(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	_, err = a.Orchestrator(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestSummarizerIsReused(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKey = "test-key"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	first, err := a.Summarizer(context.Background())
	require.NoError(t, err)
	second, err := a.Summarizer(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, config.DefaultGeminiModel, first.Model())

	orch, err := a.Orchestrator(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, orch)
}

func TestSessionsUseConfiguredDir(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, cfg.SessionDir, a.Sessions.Location())
	names, err := a.Sessions.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
