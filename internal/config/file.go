package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileSettings is the YAML configuration file layout. Empty values keep the defaults.
type FileSettings struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Browser struct {
		Headless     *bool  `yaml:"headless"`
		ChromePath   string `yaml:"chrome_path"`
		UserAgent    string `yaml:"user_agent"`
		Proxy        string `yaml:"proxy"`
		PageTimeout  string `yaml:"page_timeout"`
		LoginTimeout string `yaml:"login_timeout"`
	} `yaml:"browser"`

	LinkedIn struct {
		Email          string `yaml:"email"`
		Session        string `yaml:"session"`
		SessionBackend string `yaml:"session_backend"`
		SessionDir     string `yaml:"session_dir"`
	} `yaml:"linkedin"`

	Gemini struct {
		APIKey            string   `yaml:"api_key"`
		Model             string   `yaml:"model"`
		BaseURL           string   `yaml:"base_url"`
		RequestsPerSecond float64  `yaml:"requests_per_second"`
		Temperature       *float32 `yaml:"temperature"`
	} `yaml:"gemini"`

	Pacing struct {
		BeforeMin              string `yaml:"before_min"`
		BeforeMax              string `yaml:"before_max"`
		AfterMin               string `yaml:"after_min"`
		AfterMax               string `yaml:"after_max"`
		MaxConsecutiveFailures int    `yaml:"max_consecutive_failures"`
	} `yaml:"pacing"`

	Output struct {
		Dir       string `yaml:"dir"`
		URLColumn string `yaml:"url_column"`
	} `yaml:"output"`
}

// loadFile merges the YAML file at path into cfg. A missing file is only an
// error when the path was given explicitly.
func loadFile(cfg *Config, path string, explicit bool) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("invalid config path %q: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fs FileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", expanded, err)
	}
	if err := fs.apply(cfg); err != nil {
		return fmt.Errorf("config file %s: %w", expanded, err)
	}

	log.Debug().Str("path", expanded).Msg("Loaded config file")
	return nil
}

func (fs *FileSettings) apply(cfg *Config) error {
	setString(&cfg.LogLevel, fs.LogLevel)
	setString(&cfg.LogFile, fs.LogFile)

	if fs.Browser.Headless != nil {
		cfg.BrowserHeadless = *fs.Browser.Headless
	}
	setString(&cfg.ChromePath, fs.Browser.ChromePath)
	setString(&cfg.UserAgent, fs.Browser.UserAgent)
	setString(&cfg.Proxy, fs.Browser.Proxy)

	setString(&cfg.LinkedInEmail, fs.LinkedIn.Email)
	setString(&cfg.SessionName, fs.LinkedIn.Session)
	setString(&cfg.SessionBackend, fs.LinkedIn.SessionBackend)
	if fs.LinkedIn.SessionDir != "" {
		dir, err := homedir.Expand(fs.LinkedIn.SessionDir)
		if err != nil {
			return err
		}
		cfg.SessionDir = dir
	}

	setString(&cfg.GeminiAPIKey, fs.Gemini.APIKey)
	setString(&cfg.GeminiModel, fs.Gemini.Model)
	setString(&cfg.GeminiBaseURL, fs.Gemini.BaseURL)
	if fs.Gemini.RequestsPerSecond > 0 {
		cfg.GeminiRPS = fs.Gemini.RequestsPerSecond
	}
	if fs.Gemini.Temperature != nil {
		cfg.GeminiTemperature = *fs.Gemini.Temperature
	}

	if fs.Pacing.MaxConsecutiveFailures > 0 {
		cfg.MaxConsecutiveFailures = fs.Pacing.MaxConsecutiveFailures
	}
	if fs.Output.Dir != "" {
		dir, err := homedir.Expand(fs.Output.Dir)
		if err != nil {
			return err
		}
		cfg.OutputDir = dir
	}
	setString(&cfg.URLColumn, fs.Output.URLColumn)

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"browser.page_timeout", fs.Browser.PageTimeout, &cfg.PageTimeout},
		{"browser.login_timeout", fs.Browser.LoginTimeout, &cfg.LoginTimeout},
		{"pacing.before_min", fs.Pacing.BeforeMin, &cfg.BeforeItemMin},
		{"pacing.before_max", fs.Pacing.BeforeMax, &cfg.BeforeItemMax},
		{"pacing.after_min", fs.Pacing.AfterMin, &cfg.AfterItemMin},
		{"pacing.after_max", fs.Pacing.AfterMax, &cfg.AfterItemMax},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
