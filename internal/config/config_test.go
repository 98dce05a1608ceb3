package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML overrides a handful of defaults.
const validConfigYAML = `
pipeline:
  topic: "Climate Policy"
  limit: 8
  courtesy_delay_ms: 250
fetcher:
  retry:
    max_attempts: 2
    initial_delay_ms: 100
analyzer:
  model: "gemini-2.0-flash"
validator:
  timeout_sec: 5
output:
  dir: "./out"
logging:
  level: "debug"
`

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Pipeline.Topic != "Climate Policy" {
		t.Errorf("Expected topic 'Climate Policy', got '%s'", cfg.Pipeline.Topic)
	}

	if cfg.Pipeline.Limit != 8 {
		t.Errorf("Expected limit 8, got %d", cfg.Pipeline.Limit)
	}

	if cfg.Fetcher.Retry.MaxAttempts != 2 {
		t.Errorf("Expected max_attempts 2, got %d", cfg.Fetcher.Retry.MaxAttempts)
	}

	// Untouched keys keep their defaults.
	if cfg.Fetcher.Retry.BackoffMultiplier != 2.0 {
		t.Errorf("Expected default backoff multiplier 2.0, got %v", cfg.Fetcher.Retry.BackoffMultiplier)
	}

	if cfg.Fetcher.Language != "en" {
		t.Errorf("Expected default language 'en', got '%s'", cfg.Fetcher.Language)
	}

	if cfg.Validator.Model != DefaultValidatorModel {
		t.Errorf("Expected default validator model, got '%s'", cfg.Validator.Model)
	}

	if !cfg.Validator.Enabled {
		t.Error("Expected validator enabled by default")
	}

	if cfg.CourtesyDelay() != 250*time.Millisecond {
		t.Errorf("Expected courtesy delay 250ms, got %v", cfg.CourtesyDelay())
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "pipeline: [unclosed")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := createTempConfigFile(t, "pipeline:\n  limit: 0\n")

	_, err := LoadConfig(configPath)
	if !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("Expected ErrInvalidLimit, got %v", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"blank topic", func(c *Config) { c.Pipeline.Topic = "  " }, ErrMissingTopic},
		{"zero limit", func(c *Config) { c.Pipeline.Limit = 0 }, ErrInvalidLimit},
		{"negative delay", func(c *Config) { c.Pipeline.CourtesyDelayMs = -1 }, ErrInvalidCourtesyDelay},
		{"no fetcher url", func(c *Config) { c.Fetcher.BaseURL = "" }, ErrMissingBaseURL},
		{"page size too big", func(c *Config) { c.Fetcher.MaxPageSize = 101 }, ErrInvalidMaxPageSize},
		{"zero attempts", func(c *Config) { c.Fetcher.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"negative initial delay", func(c *Config) { c.Fetcher.Retry.InitialDelayMs = -5 }, ErrInvalidInitialDelay},
		{"shrinking backoff", func(c *Config) { c.Fetcher.Retry.BackoffMultiplier = 0.5 }, ErrInvalidBackoffMultiplier},
		{"zero fetch timeout", func(c *Config) { c.Fetcher.Retry.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"negative min text", func(c *Config) { c.Analyzer.MinTextLength = -1 }, ErrInvalidMinTextLength},
		{"zero analyzer timeout", func(c *Config) { c.Analyzer.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"no validator url", func(c *Config) { c.Validator.BaseURL = "" }, ErrMissingBaseURL},
		{"relative fetcher url", func(c *Config) { c.Fetcher.BaseURL = "newsapi.org/v2" }, ErrInvalidURL},
		{"non-http validator url", func(c *Config) { c.Validator.BaseURL = "ftp://openrouter.ai" }, ErrInvalidURL},
		{"hostless analyzer endpoint", func(c *Config) { c.Analyzer.Endpoint = "https://" }, ErrInvalidURL},
		{"zero excerpt", func(c *Config) { c.Validator.MaxExcerptChars = 0 }, ErrInvalidExcerptChars},
		{"hot temperature", func(c *Config) { c.Validator.Temperature = 3 }, ErrInvalidTemperature},
		{"zero validator timeout", func(c *Config) { c.Validator.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"no output dir", func(c *Config) { c.Output.Dir = "" }, ErrMissingOutputDir},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Validate_EndpointOverride(t *testing.T) {
	cfg := Default()
	cfg.Analyzer.Endpoint = "http://127.0.0.1:8080/"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for an absolute endpoint", err)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envFrom(map[string]string{
		EnvNewsAPIKey:     " news-key ",
		EnvGeminiKey:      "gemini-key",
		EnvGeminiModel:    "gemini-exp",
		EnvOpenRouterKey:  "router-key",
		EnvValidatorModel: "meta/llama",
		EnvLogLevel:       "WARN",
	}))

	if cfg.Credentials.NewsAPIKey != "news-key" {
		t.Errorf("NewsAPIKey = %q, want trimmed value", cfg.Credentials.NewsAPIKey)
	}

	if cfg.Credentials.GeminiKey != "gemini-key" || cfg.Credentials.OpenRouterKey != "router-key" {
		t.Errorf("unexpected credentials: %+v", cfg.Credentials)
	}

	if cfg.Analyzer.Model != "gemini-exp" {
		t.Errorf("Analyzer.Model = %q, want gemini-exp", cfg.Analyzer.Model)
	}

	if cfg.Validator.Model != "meta/llama" {
		t.Errorf("Validator.Model = %q, want meta/llama", cfg.Validator.Model)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestConfig_ApplyEnv_KeepsFileModels(t *testing.T) {
	cfg := Default()
	cfg.Analyzer.Model = "from-file"
	cfg.ApplyEnv(envFrom(nil))

	if cfg.Analyzer.Model != "from-file" {
		t.Errorf("empty env should not override model, got %q", cfg.Analyzer.Model)
	}
}

func TestConfig_RequireCredentials(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envFrom(map[string]string{EnvNewsAPIKey: "n"}))

	err := cfg.RequireCredentials()
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}

	if !strings.Contains(err.Error(), EnvGeminiKey) {
		t.Errorf("error should name the missing variable: %v", err)
	}

	// The validator key is optional.
	cfg.ApplyEnv(envFrom(map[string]string{EnvNewsAPIKey: "n", EnvGeminiKey: "g"}))

	if err := cfg.RequireCredentials(); err != nil {
		t.Errorf("RequireCredentials() = %v, want nil", err)
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := Default().Fetcher.Retry

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 0},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 4 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := rp.GetRetryDelay(tt.retry); got != tt.want {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestRetryPolicy_GetRetryDelay_Uncapped(t *testing.T) {
	rp := RetryPolicy{InitialDelayMs: 100, BackoffMultiplier: 3}

	if got := rp.GetRetryDelay(3); got != 900*time.Millisecond {
		t.Errorf("GetRetryDelay(3) = %v, want 900ms", got)
	}
}

func TestRetryPolicy_GetTimeout(t *testing.T) {
	rp := RetryPolicy{TimeoutSec: 10}

	if got := rp.GetTimeout(); got != 10*time.Second {
		t.Errorf("GetTimeout() = %v, want 10s", got)
	}
}

func TestStageTimeouts(t *testing.T) {
	cfg := Default()

	if got := cfg.Analyzer.GetTimeout(); got != 60*time.Second {
		t.Errorf("Analyzer.GetTimeout() = %v, want 60s", got)
	}

	if got := cfg.Validator.GetTimeout(); got != 10*time.Second {
		t.Errorf("Validator.GetTimeout() = %v, want 10s", got)
	}
}

func TestConfig_String(t *testing.T) {
	s := Default().String()

	if !strings.Contains(s, DefaultTopic) || !strings.Contains(s, DefaultAnalyzerModel) {
		t.Errorf("String() = %q, missing topic or model", s)
	}
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Topic = "Round Trip"
	cfg.Credentials.GeminiKey = "secret"

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if strings.Contains(string(data), "secret") {
		t.Error("credentials must never be written to the config file")
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig of saved file failed: %v", err)
	}

	if loaded.Pipeline.Topic != "Round Trip" {
		t.Errorf("Expected topic 'Round Trip', got '%s'", loaded.Pipeline.Topic)
	}
}
