// Package analyzer produces the primary structured analysis of an article.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"newspipe/internal/llmjson"
	"newspipe/internal/logger"
	"newspipe/internal/models"
)

// DefaultMinTextLength is the shortest text worth sending to the provider.
const DefaultMinTextLength = 50

// Analyzer errors.
var (
	ErrTextTooShort   = errors.New("text too short for analysis")
	ErrContentBlocked = errors.New("content blocked by provider safety filters")
	ErrProvider       = errors.New("analysis provider error")
)

// Generator sends one prompt to the primary provider and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer turns article text into an AnalysisResult. It never returns
// an error to its caller: every failure becomes a StageResult.
type Analyzer struct {
	gen           Generator
	log           *logger.Logger
	minTextLength int
}

// New creates an analyzer around an already constructed generator.
func New(gen Generator, minTextLength int, log *logger.Logger) *Analyzer {
	if minTextLength < 0 {
		minTextLength = DefaultMinTextLength
	}

	return &Analyzer{gen: gen, log: log, minTextLength: minTextLength}
}

// Analyze returns a present result only when the provider answered with a
// schema-valid object. Short text is skipped without any outbound call.
func (a *Analyzer) Analyze(ctx context.Context, text string) models.StageResult[models.AnalysisResult] {
	if n := utf8.RuneCountInString(text); text == "" || n < a.minTextLength {
		a.log.Info("Skipping analysis: text too short", "chars", n, "min", a.minTextLength)

		return models.Skipped[models.AnalysisResult](fmt.Errorf("%w (%d chars)", ErrTextTooShort, n))
	}

	raw, err := a.gen.Generate(ctx, BuildPrompt(text))
	if err != nil {
		if errors.Is(err, ErrContentBlocked) {
			a.log.Warn("Analysis failed: content blocked by safety filters", "error", err)
		} else {
			a.log.Warn("Analysis provider error", "error", err)
		}

		return models.Failed[models.AnalysisResult](err)
	}

	result, err := llmjson.AnalysisSchema.Decode(raw)
	if err != nil {
		a.log.Warn("Parsing error", "error", err)

		return models.Failed[models.AnalysisResult](err)
	}

	return models.OK(result)
}
