package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrMissingAPIKey is returned when the Gemini client is built without a key.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// blockedFinishReasons end a candidate without usable text for policy reasons.
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
	"IMAGE_SAFETY":       true,
}

// GeminiConfig holds configuration for the Gemini generator.
type GeminiConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model name, with or without the "models/" prefix.
	Model string

	// Endpoint overrides the API base URL. Tests point it at httptest.
	Endpoint string

	// Timeout bounds each generateContent call.
	Timeout time.Duration
}

// GeminiGenerator calls models/{model}:generateContent. Build it once per
// run and share it.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates the Gemini client.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// ModelName returns the configured model.
func (g *GeminiGenerator) ModelName() string {
	return g.model
}

// Generate sends prompt as a single user turn and returns the joined text
// of the first candidate. Provider refusals map to ErrContentBlocked,
// everything else to ErrProvider.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}

	return responseText(resp)
}

// responseText extracts the first candidate's text or explains why there
// is none.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", ErrProvider)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no candidates returned", ErrContentBlocked)
	}

	cand := resp.Candidates[0]

	var sb strings.Builder

	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		reason := string(cand.FinishReason)
		if blockedFinishReasons[reason] {
			return "", fmt.Errorf("%w: finish reason %s", ErrContentBlocked, reason)
		}

		return "", fmt.Errorf("%w: empty candidate (finish reason %q)", ErrProvider, reason)
	}

	return text, nil
}

// ListModels returns the models that support generateContent.
func ListModels(ctx context.Context, cfg GeminiConfig) ([]string, error) {
	g, err := NewGeminiGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var names []string

	page, err := g.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 100})

	for {
		if errors.Is(err, genai.ErrPageDone) {
			return names, nil
		}

		if err != nil {
			return nil, fmt.Errorf("%w: list models: %w", ErrProvider, err)
		}

		for _, m := range page.Items {
			if m != nil && supportsGenerate(m.SupportedActions) {
				names = append(names, m.Name)
			}
		}

		if page.NextPageToken == "" {
			return names, nil
		}

		page, err = page.Next(ctx)
	}
}

func supportsGenerate(actions []string) bool {
	for _, action := range actions {
		if action == "generateContent" {
			return true
		}
	}

	return false
}
