package models

// Sentiment is the overall polarity of an article.
type Sentiment string

// Allowed sentiments.
const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Sentiments lists every allowed sentiment in report order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// Valid reports whether s is one of the allowed sentiments.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}

	return false
}

// AnalysisResult is the primary provider's structured reading of an article.
type AnalysisResult struct {
	Gist       string    `json:"gist"`
	Sentiment  Sentiment `json:"sentiment"`
	Tone       string    `json:"tone"`
	Confidence float64   `json:"confidence_score"`
}

// AsMap returns the analysis as a plain mapping keyed like its JSON form.
func (a AnalysisResult) AsMap() map[string]any {
	return map[string]any{
		"gist":             a.Gist,
		"sentiment":        string(a.Sentiment),
		"tone":             a.Tone,
		"confidence_score": a.Confidence,
	}
}

// ValidationResult is the secondary provider's verdict on an analysis.
type ValidationResult struct {
	IsValid   bool   `json:"is_valid"`
	Reasoning string `json:"reasoning"`
}
