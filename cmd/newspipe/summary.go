package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"newspipe/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Width(11)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)
)

// renderSummary returns the end-of-run console box.
func renderSummary(out *models.PipelineOutput, paths []string) string {
	s := out.Summary()

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	sentiments := make([]string, 0, len(models.Sentiments))
	for _, sentiment := range models.Sentiments {
		sentiments = append(sentiments, fmt.Sprintf("%s %d", sentiment, s.Sentiments[sentiment]))
	}

	flagged := okStyle.Render("0 flagged")
	if s.Flagged > 0 {
		flagged = warnStyle.Render(fmt.Sprintf("%d flagged", s.Flagged))
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Processed %d/%d articles successfully.", s.Analyzed, s.Processed)),
		"",
		row("Topic", out.Topic),
		row("Run", out.RunID),
		row("Sentiment", strings.Join(sentiments, " · ")),
		row("Validation", fmt.Sprintf("%d checked, %s", s.Validated, flagged)),
		row("Skipped", strconv.Itoa(s.Skipped)),
	}

	for i, p := range paths {
		label := ""
		if i == 0 {
			label = "Files"
		}

		lines = append(lines, row(label, p))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}
