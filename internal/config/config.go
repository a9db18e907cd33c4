package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	LogFile  string

	// Browser
	PageTimeout     time.Duration
	LoginTimeout    time.Duration
	UserAgent       string
	Proxy           string
	BrowserHeadless bool
	ChromePath      string

	// LinkedIn session
	SessionName      string
	SessionBackend   string
	SessionDir       string
	LinkedInEmail    string
	LinkedInPassword string

	// Gemini
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GeminiRPS         float64
	GeminiTemperature float32

	// Pacing between profiles
	BeforeItemMin time.Duration
	BeforeItemMax time.Duration
	AfterItemMin  time.Duration
	AfterItemMax  time.Duration

	// MaxConsecutiveFailures stops a batch after that many failed items in a row; 0 disables
	MaxConsecutiveFailures int

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Output
	OutputDir string
	URLColumn string
}

// Default returns a Config holding only built-in defaults
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		PageTimeout:       DefaultPageTimeout,
		LoginTimeout:      DefaultLoginTimeout,
		UserAgent:         DefaultUserAgent,
		BrowserHeadless:   DefaultBrowserHeadless,
		SessionName:       DefaultSessionName,
		SessionBackend:    DefaultSessionBackend,
		GeminiModel:       DefaultGeminiModel,
		GeminiRPS:         DefaultGeminiRPS,
		GeminiTemperature: DefaultGeminiTemperature,
		BeforeItemMin:     DefaultBeforeItemMin,
		BeforeItemMax:     DefaultBeforeItemMax,
		AfterItemMin:      DefaultAfterItemMin,
		AfterItemMax:      DefaultAfterItemMax,
		CacheTTL:          DefaultCacheTTL,
		CacheMaxSizeBytes: DefaultCacheMaxSizeBytes,
		OutputDir:         DefaultOutputDir,
		URLColumn:         DefaultURLColumn,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path, explicit := "", false
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path, explicit = f.Value.String(), true
		}
	}
	if path == "" {
		path = DefaultConfigPath
	}
	if err := loadFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("PROFILER_GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := os.Getenv("LINKEDIN_EMAIL"); v != "" {
		cfg.LinkedInEmail = v
	}
	if v := os.Getenv("LINKEDIN_PASSWORD"); v != "" {
		cfg.LinkedInPassword = v
	}
	if v := os.Getenv("PROFILER_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("PROFILER_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("PROFILER_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("PROFILER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.BrowserHeadless = b
		}
	}
}

// applyFlags copies flags the user actually set on the command line
func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if changed("proxy") {
		cfg.Proxy, _ = flags.GetString("proxy")
	}
	if changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", s, err)
		}
		cfg.PageTimeout = d
	}
	if changed("headless") {
		cfg.BrowserHeadless, _ = flags.GetBool("headless")
	}
	if changed("chrome-path") {
		cfg.ChromePath, _ = flags.GetString("chrome-path")
	}
	if changed("session") {
		cfg.SessionName, _ = flags.GetString("session")
	}
	if changed("model") {
		cfg.GeminiModel, _ = flags.GetString("model")
	}
	if changed("json") {
		cfg.JSONLog, _ = flags.GetBool("json")
	}
	if changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if changed("quiet") {
		if q, _ := flags.GetBool("quiet"); q {
			cfg.LogLevel = "error"
		}
	}
	if changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			cfg.LogLevel = "debug"
		}
	}
	if changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if changed("column") {
		cfg.URLColumn, _ = flags.GetString("column")
	}
	if changed("max-failures") {
		cfg.MaxConsecutiveFailures, _ = flags.GetInt("max-failures")
	}
	return nil
}
