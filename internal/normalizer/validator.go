package normalizer

import (
	"errors"
	"strings"

	"newspipe/internal/models"
)

// RemovedTitle is the placeholder the provider uses for withdrawn articles.
const RemovedTitle = "[Removed]"

// Normalization errors. Each one drops the article.
var (
	ErrMissingTitle = errors.New("article has no title")
	ErrRemovedTitle = errors.New("article was removed by the provider")
	ErrMissingText  = errors.New("article has neither content nor description")
)

// Validator applies the drop rules to raw articles.
type Validator struct {
	removedTitle string
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{removedTitle: RemovedTitle}
}

// Validate returns the first rule the article breaks, in order:
// title, then body text.
func (v *Validator) Validate(raw models.RawArticle) error {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return ErrMissingTitle
	}

	if title == v.removedTitle {
		return ErrRemovedTitle
	}

	if selectText(raw) == "" {
		return ErrMissingText
	}

	return nil
}

// selectText prefers content and falls back to description.
func selectText(raw models.RawArticle) string {
	if content := strings.TrimSpace(raw.Content); content != "" {
		return content
	}

	return strings.TrimSpace(raw.Description)
}
