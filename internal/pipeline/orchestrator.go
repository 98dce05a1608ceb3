// Package pipeline sequences fetch, analysis and validation for one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newspipe/internal/logger"
	"newspipe/internal/models"
	"newspipe/pkg/utils"
)

// DefaultCourtesyDelay is the fixed pause between articles.
const DefaultCourtesyDelay = time.Second

// Run errors.
var (
	ErrNoArticles = errors.New("no articles found")
	ErrStagePanic = errors.New("stage panicked")
)

// ArticleSource fetches the run's articles.
type ArticleSource interface {
	Fetch(ctx context.Context, topic string, limit int) ([]models.Article, error)
}

// Analyzer produces the primary analysis of one article.
type Analyzer interface {
	Analyze(ctx context.Context, text string) models.StageResult[models.AnalysisResult]
}

// Validator cross-checks one analysis.
type Validator interface {
	Validate(ctx context.Context, originalText string, analysis map[string]any) models.StageResult[models.ValidationResult]
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Orchestrator runs Fetch -> Analyze -> Validate strictly sequentially.
type Orchestrator struct {
	source    ArticleSource
	analyzer  Analyzer
	validator Validator
	log       *logger.Logger
	sleep     SleepFunc
	now       func() time.Time
	newID     func() string
	text      *utils.StringHelper
	delay     time.Duration
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithCourtesyDelay sets the pause between articles.
func WithCourtesyDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// WithSleep replaces the sleeper used for the courtesy delay.
func WithSleep(fn SleepFunc) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRunID fixes the run ID generator.
func WithRunID(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// New creates an orchestrator. validator may be nil, in which case every
// analyzed article is recorded with validation skipped.
func New(source ArticleSource, analyzer Analyzer, validator Validator, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:    source,
		analyzer:  analyzer,
		validator: validator,
		log:       log,
		sleep:     sleepContext,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		text:      utils.NewStringHelper(),
		delay:     DefaultCourtesyDelay,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run fetches once and processes every article in order. It returns
// ErrNoArticles when the fetch yields nothing. A cancelled context stops
// the loop between articles; the records gathered so far are returned
// with the context error.
func (o *Orchestrator) Run(ctx context.Context, topic string, limit int) (*models.PipelineOutput, error) {
	out := &models.PipelineOutput{
		RunID:     o.newID(),
		Topic:     topic,
		Limit:     limit,
		StartedAt: o.now(),
	}

	log := o.log.With("run", out.RunID)
	log.Info(fmt.Sprintf("🚀 Starting pipeline | Topic: '%s' | Limit: %d", topic, limit))

	log.Info("Phase 1: Fetching articles...")

	articles, err := o.source.Fetch(ctx, topic, limit)
	if err != nil || len(articles) == 0 {
		out.FinishedAt = o.now()
		log.Error("❌ No articles found. Aborting.", "error", err)

		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrNoArticles, err)
		}

		return out, ErrNoArticles
	}

	out.Fetched = len(articles)
	out.Records = make([]models.PipelineRecord, 0, len(articles))

	log.Info(fmt.Sprintf("✅ Found %d valid articles. Beginning analysis loop.", len(articles)))
	log.Info("Phase 2: Analysis & validation...")

	for i, article := range articles {
		if i > 0 {
			if err := o.sleep(ctx, o.delay); err != nil {
				out.FinishedAt = o.now()
				log.Warn("⚠️  Run interrupted", "processed", len(out.Records), "error", err)

				return out, err
			}
		}

		alog := log.With("article", fmt.Sprintf("%d/%d", i+1, len(articles)))
		alog.Info("Processing", "title", o.text.Snippet(article.Title, 50))

		out.Records = append(out.Records, o.processArticle(ctx, article, alog))
	}

	out.FinishedAt = o.now()

	summary := out.Summary()
	log.Info(fmt.Sprintf("🎉 Pipeline complete. Processed %d/%d articles successfully.", summary.Analyzed, out.Fetched),
		"validated", summary.Validated, "flagged", summary.Flagged, "duration", out.FinishedAt.Sub(out.StartedAt))

	return out, nil
}

// processArticle runs both stages for one article. Every path, including
// a panicking stage, yields a record.
func (o *Orchestrator) processArticle(ctx context.Context, article models.Article, log *logger.Logger) models.PipelineRecord {
	analysis := o.analyze(ctx, article.Text)
	if !analysis.Present() {
		log.Info("Analysis: SKIPPED", "status", analysis.Status, "reason", analysis.Reason())

		return models.NewRecord(article, analysis,
			models.Skipped[models.ValidationResult](errors.New("no analysis to validate")))
	}

	log.Info("Analysis: DONE", "sentiment", analysis.Value.Sentiment, "confidence", analysis.Value.Confidence)

	validation := o.validate(ctx, article.Text, analysis.Value.AsMap())
	if validation.Present() {
		log.Info("Validation: DONE", "valid", validation.Value.IsValid)
	} else {
		log.Info("Validation: SKIPPED", "status", validation.Status, "reason", validation.Reason())
	}

	return models.NewRecord(article, analysis, validation)
}

func (o *Orchestrator) analyze(ctx context.Context, text string) (res models.StageResult[models.AnalysisResult]) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Failed[models.AnalysisResult](fmt.Errorf("%w: analyze: %v", ErrStagePanic, r))
		}
	}()

	return o.analyzer.Analyze(ctx, text)
}

func (o *Orchestrator) validate(ctx context.Context, text string, analysis map[string]any) (res models.StageResult[models.ValidationResult]) {
	if o.validator == nil {
		return models.Skipped[models.ValidationResult](errors.New("validation disabled"))
	}

	defer func() {
		if r := recover(); r != nil {
			res = models.Failed[models.ValidationResult](fmt.Errorf("%w: validate: %v", ErrStagePanic, r))
		}
	}()

	return o.validator.Validate(ctx, text, analysis)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
