package models

import "time"

// PipelineRecord pairs an article with its optional analysis and validation.
// A nil Analysis or Validation serializes as null.
type PipelineRecord struct {
	Analysis         *AnalysisResult   `json:"analysis"`
	Validation       *ValidationResult `json:"validation"`
	Article          Article           `json:"article"`
	AnalysisStatus   StageStatus       `json:"analysis_status"`
	ValidationStatus StageStatus       `json:"validation_status"`
	AnalysisError    string            `json:"analysis_error,omitempty"`
	ValidationError  string            `json:"validation_error,omitempty"`
}

// NewRecord builds a record from the two stage results.
func NewRecord(article Article, analysis StageResult[AnalysisResult], validation StageResult[ValidationResult]) PipelineRecord {
	rec := PipelineRecord{
		Article:          article,
		AnalysisStatus:   analysis.Status,
		ValidationStatus: validation.Status,
		AnalysisError:    analysis.Reason(),
		ValidationError:  validation.Reason(),
	}

	if analysis.Present() {
		a := *analysis.Value
		rec.Analysis = &a
	}

	if validation.Present() {
		v := *validation.Value
		rec.Validation = &v
	}

	return rec
}

// PipelineOutput is the ordered result of one run.
type PipelineOutput struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	RunID      string           `json:"run_id"`
	Topic      string           `json:"topic"`
	Records    []PipelineRecord `json:"records"`
	Limit      int              `json:"limit"`
	Fetched    int              `json:"fetched"`
}

// Articles returns the article projection of every record, in order.
func (o *PipelineOutput) Articles() []Article {
	articles := make([]Article, 0, len(o.Records))
	for _, rec := range o.Records {
		articles = append(articles, rec.Article)
	}

	return articles
}

// RunSummary aggregates counts over a run's records.
type RunSummary struct {
	Sentiments map[Sentiment]int
	Processed  int
	Analyzed   int
	Validated  int
	Flagged    int
	Skipped    int
}

// Summary computes counts over the records.
func (o *PipelineOutput) Summary() RunSummary {
	s := RunSummary{Sentiments: make(map[Sentiment]int, len(Sentiments))}
	for _, sentiment := range Sentiments {
		s.Sentiments[sentiment] = 0
	}

	for _, rec := range o.Records {
		s.Processed++

		if rec.Analysis == nil {
			s.Skipped++

			continue
		}

		s.Analyzed++
		if rec.Analysis.Sentiment.Valid() {
			s.Sentiments[rec.Analysis.Sentiment]++
		}

		if rec.Validation != nil {
			s.Validated++
			if !rec.Validation.IsValid {
				s.Flagged++
			}
		}
	}

	return s
}
