package llmjson

import (
	"github.com/google/jsonschema-go/jsonschema"

	"newspipe/internal/models"
)

// AnalysisSchema accepts exactly the primary provider's analysis object.
var AnalysisSchema = NewSchema[models.AnalysisResult]("analysis", &jsonschema.Schema{
	Type:     "object",
	Required: []string{"gist", "sentiment", "tone", "confidence_score"},
	Properties: map[string]*jsonschema.Schema{
		"gist":      {Type: "string"},
		"sentiment": {Type: "string", Enum: []any{"Positive", "Negative", "Neutral"}},
		"tone":      {Type: "string"},
		"confidence_score": {
			Type:    "number",
			Minimum: Float64(0),
			Maximum: Float64(1),
		},
	},
})

// ValidationSchema accepts exactly the secondary provider's verdict.
var ValidationSchema = NewSchema[models.ValidationResult]("validation", &jsonschema.Schema{
	Type:     "object",
	Required: []string{"is_valid", "reasoning"},
	Properties: map[string]*jsonschema.Schema{
		"is_valid":  {Type: "boolean"},
		"reasoning": {Type: "string"},
	},
})
