// Package config provides configuration management for the news pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"newspipe/pkg/utils"
)

// Environment variables read by ApplyEnv.
const (
	EnvNewsAPIKey     = "NEWSAPI_API_KEY"
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvGeminiModel    = "GEMINI_MODEL"
	EnvOpenRouterKey  = "OPENROUTER_API_KEY"
	EnvValidatorModel = "VALIDATOR_MODEL"
	EnvLogLevel       = "NEWSPIPE_LOG_LEVEL"
)

// Defaults.
const (
	DefaultTopic           = "India Politics"
	DefaultLimit           = 5
	DefaultNewsAPIURL      = "https://newsapi.org/v2"
	DefaultLanguage        = "en"
	DefaultSortBy          = "publishedAt"
	DefaultAnalyzerModel   = "gemini-2.5-flash"
	DefaultValidatorModel  = "mistralai/mistral-7b-instruct"
	DefaultValidatorURL    = "https://openrouter.ai/api/v1"
	DefaultValidatorTitle  = "newspipe"
	DefaultValidatorRefer  = "http://localhost:8000"
	DefaultOutputDir       = "output"
	DefaultCourtesyDelayMs = 1000
)

// Configuration validation errors.
var (
	ErrMissingCredential        = errors.New("required credential is missing")
	ErrInvalidLimit             = errors.New("pipeline.limit must be at least 1")
	ErrMissingTopic             = errors.New("pipeline.topic is required")
	ErrInvalidCourtesyDelay     = errors.New("pipeline.courtesy_delay_ms must be non-negative")
	ErrMissingBaseURL           = errors.New("base_url is required")
	ErrInvalidURL               = errors.New("must be an absolute http(s) URL")
	ErrInvalidMaxAttempts       = errors.New("fetcher.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetcher.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("fetcher.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("timeout_sec must be at least 1")
	ErrInvalidMaxPageSize       = errors.New("fetcher.max_page_size must be between 1 and 100")
	ErrInvalidMinTextLength     = errors.New("analyzer.min_text_length must be non-negative")
	ErrInvalidExcerptChars      = errors.New("validator.max_excerpt_chars must be at least 1")
	ErrInvalidTemperature       = errors.New("validator.temperature must be between 0 and 2")
	ErrMissingOutputDir         = errors.New("output.dir is required")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Pipeline    PipelineConfig  `yaml:"pipeline"`
	Fetcher     FetcherConfig   `yaml:"fetcher"`
	Analyzer    AnalyzerConfig  `yaml:"analyzer"`
	Validator   ValidatorConfig `yaml:"validator"`
	Output      OutputConfig    `yaml:"output"`
	Logging     LoggingConfig   `yaml:"logging"`
	Credentials Credentials     `yaml:"-"`
}

// PipelineConfig controls the run itself.
type PipelineConfig struct {
	Topic           string `yaml:"topic"`
	Limit           int    `yaml:"limit"`
	CourtesyDelayMs int    `yaml:"courtesy_delay_ms"`
}

// FetcherConfig contains article search settings.
type FetcherConfig struct {
	BaseURL     string      `yaml:"base_url"`
	Language    string      `yaml:"language"`
	SortBy      string      `yaml:"sort_by"`
	MaxPageSize int         `yaml:"max_page_size"`
	Retry       RetryPolicy `yaml:"retry"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// AnalyzerConfig contains primary provider settings.
type AnalyzerConfig struct {
	Model         string `yaml:"model"`
	Endpoint      string `yaml:"endpoint"`
	MinTextLength int    `yaml:"min_text_length"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// ValidatorConfig contains secondary provider settings.
type ValidatorConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	Referer         string  `yaml:"referer"`
	Title           string  `yaml:"title"`
	Temperature     float64 `yaml:"temperature"`
	MaxExcerptChars int     `yaml:"max_excerpt_chars"`
	TimeoutSec      int     `yaml:"timeout_sec"`
}

// OutputConfig defines where artifacts go.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	RawArticles string `yaml:"raw_articles"`
	Results     string `yaml:"results"`
	Report      string `yaml:"report"`
	SourceLabel string `yaml:"source_label"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Credentials are only ever read from the environment.
type Credentials struct {
	NewsAPIKey    string
	GeminiKey     string
	OpenRouterKey string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Topic:           DefaultTopic,
			Limit:           DefaultLimit,
			CourtesyDelayMs: DefaultCourtesyDelayMs,
		},
		Fetcher: FetcherConfig{
			BaseURL:     DefaultNewsAPIURL,
			Language:    DefaultLanguage,
			SortBy:      DefaultSortBy,
			MaxPageSize: 100,
			Retry: RetryPolicy{
				MaxAttempts:       4,
				InitialDelayMs:    1000,
				MaxDelayMs:        4000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        10,
			},
		},
		Analyzer: AnalyzerConfig{
			Model:         DefaultAnalyzerModel,
			MinTextLength: 50,
			TimeoutSec:    60,
		},
		Validator: ValidatorConfig{
			Enabled:         true,
			Model:           DefaultValidatorModel,
			BaseURL:         DefaultValidatorURL,
			Referer:         DefaultValidatorRefer,
			Title:           DefaultValidatorTitle,
			Temperature:     0.1,
			MaxExcerptChars: 1000,
			TimeoutSec:      10,
		},
		Output: OutputConfig{
			Dir:         DefaultOutputDir,
			RawArticles: "raw_articles.json",
			Results:     "analysis_results.json",
			Report:      "final_report.md",
			SourceLabel: "NewsAPI",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv fills credentials and model overrides from getenv.
// Non-empty environment values win over the file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.Credentials = Credentials{
		NewsAPIKey:    strings.TrimSpace(getenv(EnvNewsAPIKey)),
		GeminiKey:     strings.TrimSpace(getenv(EnvGeminiKey)),
		OpenRouterKey: strings.TrimSpace(getenv(EnvOpenRouterKey)),
	}

	if v := strings.TrimSpace(getenv(EnvGeminiModel)); v != "" {
		c.Analyzer.Model = v
	}

	if v := strings.TrimSpace(getenv(EnvValidatorModel)); v != "" {
		c.Validator.Model = v
	}

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// RequireCredentials checks the credentials of the stages that always run.
// The validator key is optional: without it validation is skipped.
func (c *Config) RequireCredentials() error {
	var missing []string

	if c.Credentials.NewsAPIKey == "" {
		missing = append(missing, EnvNewsAPIKey)
	}

	if c.Credentials.GeminiKey == "" {
		missing = append(missing, EnvGeminiKey)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Pipeline.Topic) == "" {
		return ErrMissingTopic
	}

	if c.Pipeline.Limit < 1 {
		return ErrInvalidLimit
	}

	if c.Pipeline.CourtesyDelayMs < 0 {
		return ErrInvalidCourtesyDelay
	}

	urls := utils.NewHTTPHelper()

	if c.Fetcher.BaseURL == "" {
		return fmt.Errorf("fetcher.%w", ErrMissingBaseURL)
	}

	if !urls.IsValidURL(c.Fetcher.BaseURL) {
		return fmt.Errorf("fetcher.base_url %q %w", c.Fetcher.BaseURL, ErrInvalidURL)
	}

	if c.Fetcher.MaxPageSize < 1 || c.Fetcher.MaxPageSize > 100 {
		return ErrInvalidMaxPageSize
	}

	if err := c.Fetcher.Retry.Validate(); err != nil {
		return err
	}

	if c.Analyzer.MinTextLength < 0 {
		return ErrInvalidMinTextLength
	}

	if c.Analyzer.TimeoutSec < 1 {
		return fmt.Errorf("analyzer.%w", ErrInvalidTimeout)
	}

	// An empty endpoint means the SDK default.
	if c.Analyzer.Endpoint != "" && !urls.IsValidURL(c.Analyzer.Endpoint) {
		return fmt.Errorf("analyzer.endpoint %q %w", c.Analyzer.Endpoint, ErrInvalidURL)
	}

	if c.Validator.BaseURL == "" {
		return fmt.Errorf("validator.%w", ErrMissingBaseURL)
	}

	if !urls.IsValidURL(c.Validator.BaseURL) {
		return fmt.Errorf("validator.base_url %q %w", c.Validator.BaseURL, ErrInvalidURL)
	}

	if c.Validator.MaxExcerptChars < 1 {
		return ErrInvalidExcerptChars
	}

	if c.Validator.Temperature < 0 || c.Validator.Temperature > 2 {
		return ErrInvalidTemperature
	}

	if c.Validator.TimeoutSec < 1 {
		return fmt.Errorf("validator.%w", ErrInvalidTimeout)
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// Validate checks the retry policy bounds.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if rp.TimeoutSec < 1 {
		return fmt.Errorf("fetcher.retry.%w", ErrInvalidTimeout)
	}

	return nil
}

// GetRetryDelay returns the backoff before retry number n (1-based):
// InitialDelay * Multiplier^(n-1), capped at MaxDelayMs when that is set.
func (rp *RetryPolicy) GetRetryDelay(retry int) time.Duration {
	if retry < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < retry; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-attempt timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// CourtesyDelay returns the fixed pause between articles.
func (c *Config) CourtesyDelay() time.Duration {
	return time.Duration(c.Pipeline.CourtesyDelayMs) * time.Millisecond
}

// GetTimeout returns the per-call analysis timeout.
func (a *AnalyzerConfig) GetTimeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// GetTimeout returns the per-call validation timeout.
func (v *ValidatorConfig) GetTimeout() time.Duration {
	return time.Duration(v.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Topic: %q, Limit: %d, Analyzer: %s, Validator: %s, Output: %s}",
		c.Pipeline.Topic,
		c.Pipeline.Limit,
		c.Analyzer.Model,
		c.Validator.Model,
		c.Output.Dir,
	)
}
