// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/profiler/internal/auth"
	"github.com/law-makers/profiler/internal/cache"
	"github.com/law-makers/profiler/internal/config"
	"github.com/law-makers/profiler/internal/engine"
	"github.com/law-makers/profiler/internal/engine/dynamic"
	"github.com/law-makers/profiler/internal/ratelimit"
	"github.com/law-makers/profiler/internal/report"
	"github.com/law-makers/profiler/internal/summarize"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command and closed when the command returns.
type Application struct {
	Config   *config.Config
	Logger   *zerolog.Logger
	Cache    *cache.MemoryCache
	Sessions *auth.Store
	Pacer    *ratelimit.Jitter
	Reports  *report.Writer

	summarizerMu sync.Mutex
	summarizer   *summarize.Gemini
	logFile      *lumberjack.Logger
	startTime    time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// The Gemini client is created on first use so that commands which never
// call the API (login, sessions) work without GEMINI_API_KEY.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	var logFile *lumberjack.Logger
	if cfg.LogFile != "" {
		logFile = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    config.DefaultLogFileMaxSizeMB,
			MaxBackups: config.DefaultLogFileMaxBackups,
		}
		logWriter = zerolog.MultiLevelWriter(logWriter, logFile)
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Str("log_file", cfg.LogFile).
		Msg("Logger initialized")

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	logger.Debug().
		Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
		Msg("Memory cache initialized")

	app := &Application{
		Config:    cfg,
		Logger:    &logger,
		Cache:     memCache,
		Sessions:  auth.NewStore(cfg.SessionDir, auth.Backend(cfg.SessionBackend)),
		Pacer:     ratelimit.NewJitter(),
		Reports:   report.NewWriter(cfg.OutputDir),
		logFile:   logFile,
		startTime: time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// Summarizer returns the Gemini client, creating it on first use
func (a *Application) Summarizer(ctx context.Context) (*summarize.Gemini, error) {
	a.summarizerMu.Lock()
	defer a.summarizerMu.Unlock()

	if a.summarizer != nil {
		return a.summarizer, nil
	}

	g, err := summarize.New(ctx, summarize.Config{
		APIKey:            a.Config.GeminiAPIKey,
		Model:             a.Config.GeminiModel,
		BaseURL:           a.Config.GeminiBaseURL,
		RequestsPerSecond: a.Config.GeminiRPS,
		Temperature:       &a.Config.GeminiTemperature,
	})
	if err != nil {
		return nil, err
	}
	a.summarizer = g
	a.Logger.Debug().Str("model", g.Model()).Msg("Gemini client initialized")
	return g, nil
}

// LoginOptions selects how a session authenticates
type LoginOptions struct {
	// Interactive lets a person finish the login in a visible browser
	Interactive bool
	// Fresh ignores the stored session
	Fresh bool
}

// Authenticator builds the LinkedIn authenticator for the configured session
func (a *Application) Authenticator(opts LoginOptions) *auth.LinkedIn {
	return auth.NewLinkedIn(a.Sessions, auth.LinkedInOptions{
		SessionName: a.Config.SessionName,
		Credentials: auth.Credentials{
			Email:    a.Config.LinkedInEmail,
			Password: a.Config.LinkedInPassword,
		},
		Interactive:   opts.Interactive,
		SkipRestore:   opts.Fresh,
		ManualTimeout: a.Config.LoginTimeout,
	})
}

// OpenSession starts a browser session. A visible browser also allows manual login.
func (a *Application) OpenSession(ctx context.Context, opts LoginOptions) (*dynamic.Session, error) {
	headless := a.Config.BrowserHeadless && !opts.Interactive
	return dynamic.Open(ctx, dynamic.SessionOptions{
		Browser: dynamic.BrowserOptions{
			Headless:   headless,
			UserAgent:  a.Config.UserAgent,
			Proxy:      a.Config.Proxy,
			ChromePath: a.Config.ChromePath,
		},
		PageTimeout: a.Config.PageTimeout,
	}, a.Authenticator(LoginOptions{Interactive: opts.Interactive || !headless, Fresh: opts.Fresh}))
}

// Orchestrator wires a batch orchestrator. onOutcome may be nil.
func (a *Application) Orchestrator(ctx context.Context, onOutcome func(models.Outcome)) (*engine.Orchestrator, error) {
	summarizer, err := a.Summarizer(ctx)
	if err != nil {
		return nil, err
	}

	open := func(ctx context.Context) (engine.Session, error) {
		s, err := a.OpenSession(ctx, LoginOptions{})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	opts := engine.DefaultOptions()
	opts.BeforeItem = engine.Interval{Min: a.Config.BeforeItemMin, Max: a.Config.BeforeItemMax}
	opts.AfterItem = engine.Interval{Min: a.Config.AfterItemMin, Max: a.Config.AfterItemMax}
	opts.MaxConsecutiveFailures = a.Config.MaxConsecutiveFailures
	opts.OnOutcome = onOutcome

	processor := engine.NewProcessor(a.Cache, a.Config.CacheTTL)
	return engine.NewOrchestrator(open, processor, summarizer, a.Pacer, opts), nil
}

// Close releases the application's resources.
func (a *Application) Close(ctx context.Context) error {
	if a.Cache != nil {
		a.Logger.Debug().Interface("cache", a.Cache.Stats()).Msg("Profile cache statistics")
		a.Cache.Close()
	}

	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}
	return nil
}
