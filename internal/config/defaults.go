package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel   = "warn"
	DefaultJSONLog    = false
	DefaultConfigPath = "~/.profiler/config.yaml"
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	DefaultPageTimeout     = 45 * time.Second
	DefaultLoginTimeout    = 5 * time.Minute
	DefaultBrowserHeadless = true
	DefaultSessionName     = "linkedin"
	DefaultSessionBackend  = "auto"

	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultGeminiRPS         = 1.0
	DefaultGeminiTemperature = 0.7

	DefaultBeforeItemMin = 2 * time.Second
	DefaultBeforeItemMax = 4 * time.Second
	DefaultAfterItemMin  = 3 * time.Second
	DefaultAfterItemMax  = 6 * time.Second

	DefaultCacheTTL          = 30 * time.Minute
	DefaultCacheMaxSizeBytes = 20 * 1024 * 1024 // 20MB

	DefaultOutputDir = "."
	DefaultURLColumn = "profile_url"

	DefaultLogFileMaxSizeMB  = 10
	DefaultLogFileMaxBackups = 3
)
