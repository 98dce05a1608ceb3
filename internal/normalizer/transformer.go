package normalizer

import (
	"strings"

	"newspipe/internal/models"
)

// Transformer maps validated raw articles to the pipeline's Article.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform trims fields and fills in the source default. The input is
// expected to have passed Validator.Validate.
func (t *Transformer) Transform(raw models.RawArticle) models.Article {
	source := strings.TrimSpace(raw.SourceName())
	if source == "" {
		source = models.UnknownSource
	}

	return models.Article{
		Title:       strings.TrimSpace(raw.Title),
		Source:      source,
		PublishedAt: raw.PublishedAt,
		URL:         raw.URL,
		Text:        selectText(raw),
	}
}
