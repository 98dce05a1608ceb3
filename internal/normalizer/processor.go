// Package normalizer turns raw search results into clean articles.
package normalizer

import (
	"fmt"

	"newspipe/internal/models"
)

// Processor handles validation and transformation of raw articles.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process normalizes one raw article or reports why it was dropped.
func (p *Processor) Process(raw models.RawArticle) (models.Article, error) {
	if err := p.validator.Validate(raw); err != nil {
		return models.Article{}, fmt.Errorf("dropped %q: %w", raw.Title, err)
	}

	return p.transformer.Transform(raw), nil
}

// BatchResult describes one ProcessBatch call.
type BatchResult struct {
	Articles []models.Article
	Dropped  []error
	Examined int
}

// ProcessBatch normalizes raw articles in order and stops examining them
// as soon as limit articles are collected. Fewer than limit is not an error.
func (p *Processor) ProcessBatch(raws []models.RawArticle, limit int) BatchResult {
	var res BatchResult
	if limit <= 0 {
		return res
	}

	res.Articles = make([]models.Article, 0, min(limit, len(raws)))

	for _, raw := range raws {
		res.Examined++

		article, err := p.Process(raw)
		if err != nil {
			res.Dropped = append(res.Dropped, err)

			continue
		}

		res.Articles = append(res.Articles, article)
		if len(res.Articles) >= limit {
			break
		}
	}

	return res
}
