// Package validator cross-checks an analysis with an independent model.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newspipe/internal/llmjson"
	"newspipe/internal/logger"
	"newspipe/internal/models"
	"newspipe/pkg/utils"
)

// Default configuration values.
const (
	DefaultBaseURL         = "https://openrouter.ai/api/v1"
	DefaultModel           = "mistralai/mistral-7b-instruct"
	DefaultTimeout         = 10 * time.Second
	DefaultTemperature     = 0.1
	DefaultMaxExcerptChars = 1000
)

// Validator errors.
var (
	ErrMissingCredential = errors.New("validator credential missing")
	ErrTimeout           = errors.New("validation request timed out")
	ErrTransport         = errors.New("validation request failed")
	ErrMalformedResponse = errors.New("validation response has no message content")
)

// Config holds configuration for the validation client.
type Config struct {
	// APIKey is the gateway key. Empty disables validation.
	APIKey string

	// BaseURL is the chat-completions API base URL.
	BaseURL string

	// Model is the validating model.
	Model string

	// Referer and Title identify the caller to the gateway.
	Referer string
	Title   string

	// Temperature is kept low for a deterministic verdict.
	Temperature float64

	// MaxExcerptChars bounds how much article text is sent.
	MaxExcerptChars int

	// Timeout bounds each request.
	Timeout time.Duration
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a role-tagged chat message.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Validator asks the secondary provider whether an analysis is supported
// by the article. It never returns an error to its caller.
type Validator struct {
	client  *http.Client
	cfg     Config
	log     *logger.Logger
	headers *utils.HTTPHelper
	text    *utils.StringHelper
}

// New creates a validator. A missing API key is allowed: every call is
// then skipped.
func New(cfg Config, log *logger.Logger) *Validator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.MaxExcerptChars <= 0 {
		cfg.MaxExcerptChars = DefaultMaxExcerptChars
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.APIKey == "" {
		log.Warn("⚠️  OpenRouter API key missing, validation will be skipped")
	}

	return &Validator{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		log:     log,
		headers: utils.NewHTTPHelper(),
		text:    utils.NewStringHelper(),
	}
}

// Enabled reports whether validation calls will be made.
func (v *Validator) Enabled() bool {
	return v.cfg.APIKey != ""
}

// ModelName returns the validating model.
func (v *Validator) ModelName() string {
	return v.cfg.Model
}

// Excerpt returns the part of text that is sent to the provider.
func (v *Validator) Excerpt(text string) string {
	return v.text.TruncateString(text, v.cfg.MaxExcerptChars)
}

// Validate judges analysis against an excerpt of originalText.
func (v *Validator) Validate(ctx context.Context, originalText string, analysis map[string]any) models.StageResult[models.ValidationResult] {
	if !v.Enabled() {
		return models.Skipped[models.ValidationResult](ErrMissingCredential)
	}

	prompt, err := BuildPrompt(v.Excerpt(originalText), analysis)
	if err != nil {
		v.log.Warn("Validation error", "error", err)

		return models.Failed[models.ValidationResult](err)
	}

	content, err := v.complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			v.log.Warn("Validation skipped: provider timed out", "timeout", v.cfg.Timeout)
		} else {
			v.log.Warn("Validation error", "error", err)
		}

		return models.Failed[models.ValidationResult](err)
	}

	result, err := llmjson.ValidationSchema.Decode(content)
	if err != nil {
		v.log.Warn("Validation error", "error", err)
		v.log.Debug("Raw validation content", "content", content)

		return models.Failed[models.ValidationResult](err)
	}

	return models.OK(result)
}

// complete posts one user message and returns choices[0].message.content.
func (v *Validator) complete(ctx context.Context, prompt string) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:       v.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: v.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}

	req.Header = v.headers.BuildHeaders(map[string]string{
		"Authorization": "Bearer " + v.cfg.APIKey,
		"HTTP-Referer":  v.cfg.Referer,
		"X-Title":       v.cfg.Title,
		"Content-Type":  "application/json",
	})

	resp, err := v.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		return "", fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrMalformedResponse, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrTransport, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil || chatResp.Choices[0].Message.Content == nil {
		return "", ErrMalformedResponse
	}

	return *chatResp.Choices[0].Message.Content, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var te interface{ Timeout() bool }

	return errors.As(err, &te) && te.Timeout()
}
