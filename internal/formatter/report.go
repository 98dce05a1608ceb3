package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"newspipe/internal/models"
	"newspipe/pkg/metadata"
)

// Report markers.
const (
	IconCorrect = "✓"
	IconFlagged = "⚠️"
	IconSkipped = "❓"
)

// ReportOptions controls report rendering.
type ReportOptions struct {
	// Now is the report date. Zero means time.Now().
	Now time.Time
	// Source names the article provider in the header.
	Source string
}

// BuildReport renders the human-readable report for one run and stamps it
// with the run ID and a hash of the body.
func BuildReport(out *models.PipelineOutput, opts ReportOptions) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	summary := out.Summary()

	var b strings.Builder

	b.WriteString("# News Analysis Report\n")
	fmt.Fprintf(&b, "**Date:** %s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Topic:** %s\n", out.Topic)
	fmt.Fprintf(&b, "**Articles Analyzed:** %d of %d\n", summary.Analyzed, summary.Processed)
	fmt.Fprintf(&b, "**Source:** %s\n", opts.Source)

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Sentiment | Articles |\n| --- | --- |\n")

	for _, s := range models.Sentiments {
		fmt.Fprintf(&b, "| %s | %d |\n", s, summary.Sentiments[s])
	}

	b.WriteString("\n| Validation | Articles |\n| --- | --- |\n")
	fmt.Fprintf(&b, "| Correct | %d |\n", summary.Validated-summary.Flagged)
	fmt.Fprintf(&b, "| Flagged | %d |\n", summary.Flagged)
	fmt.Fprintf(&b, "| Not validated | %d |\n", summary.Processed-summary.Validated)

	b.WriteString("\n## Detailed Analysis\n")

	for i, rec := range out.Records {
		b.WriteString("\n")
		writeRecord(&b, i+1, rec)
	}

	body := AlignTables(b.String())

	return metadata.Sign(body, metadata.Stamp{RunID: out.RunID, Topic: out.Topic, GeneratedAt: now})
}

func writeRecord(b *strings.Builder, n int, rec models.PipelineRecord) {
	art := rec.Article

	fmt.Fprintf(b, "### Article %d: \"%s\"\n", n, art.Title)

	if art.URL != "" {
		fmt.Fprintf(b, "- **Source:** %s ([Link](%s))\n", art.Source, art.URL)
	} else {
		fmt.Fprintf(b, "- **Source:** %s\n", art.Source)
	}

	if art.PublishedAt != "" {
		fmt.Fprintf(b, "- **Published:** %s\n", art.PublishedAt)
	}

	if rec.Analysis == nil {
		fmt.Fprintf(b, "- **LLM#1 Analysis:** %s\n", skippedLine(rec.AnalysisStatus, rec.AnalysisError))

		return
	}

	fmt.Fprintf(b, "- **Gist:** %s\n", rec.Analysis.Gist)
	fmt.Fprintf(b, "- **Tone:** %s\n", rec.Analysis.Tone)
	fmt.Fprintf(b, "- **LLM#1 Sentiment:** %s (Conf: %s)\n",
		rec.Analysis.Sentiment, strconv.FormatFloat(rec.Analysis.Confidence, 'f', -1, 64))

	switch {
	case rec.Validation == nil:
		fmt.Fprintf(b, "- **LLM#2 Validation:** %s\n", skippedLine(rec.ValidationStatus, rec.ValidationError))
	case rec.Validation.IsValid:
		fmt.Fprintf(b, "- **LLM#2 Validation:** %s Correct. %s\n", IconCorrect, rec.Validation.Reasoning)
	default:
		fmt.Fprintf(b, "- **LLM#2 Validation:** %s Flagged. %s\n", IconFlagged, rec.Validation.Reasoning)
	}
}

func skippedLine(status models.StageStatus, reason string) string {
	label := "Skipped"
	if status == models.StageFailed {
		label = "Skipped (Timeout/Error)"
	}

	if reason == "" {
		return IconSkipped + " " + label
	}

	return fmt.Sprintf("%s %s: %s", IconSkipped, label, reason)
}
