package config

import (
	"fmt"
	"net/url"
	"strings"
)

func validate(c *Config) error {
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page timeout must be > 0")
	}
	if c.LoginTimeout <= 0 {
		return fmt.Errorf("login timeout must be > 0")
	}
	if c.BeforeItemMin < 0 || c.BeforeItemMax < c.BeforeItemMin {
		return fmt.Errorf("pre-profile pause range %s-%s is invalid", c.BeforeItemMin, c.BeforeItemMax)
	}
	if c.AfterItemMin < 0 || c.AfterItemMax < c.AfterItemMin {
		return fmt.Errorf("post-profile pause range %s-%s is invalid", c.AfterItemMin, c.AfterItemMax)
	}
	if c.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("max consecutive failures must be >= 0")
	}
	if c.GeminiRPS <= 0 {
		return fmt.Errorf("gemini requests per second must be > 0")
	}
	if c.GeminiTemperature < 0 || c.GeminiTemperature > 2 {
		return fmt.Errorf("gemini temperature must be between 0 and 2")
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	switch c.SessionBackend {
	case "auto", "keyring", "file":
	default:
		return fmt.Errorf("session backend must be auto, keyring or file")
	}
	if strings.TrimSpace(c.SessionName) == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if strings.TrimSpace(c.URLColumn) == "" {
		return fmt.Errorf("url column cannot be empty")
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy must be a URL such as http://host:port")
		}
	}
	return nil
}
