// Package formatter renders the run report as markdown.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// minColumnWidth keeps separator rows at least "---".
const minColumnWidth = 3

// AlignTables pads every pipe table in content so its columns line up
// by display width. Lines outside tables are left untouched.
func AlignTables(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	var table []string

	flush := func() {
		if len(table) > 0 {
			out = append(out, alignTable(table)...)
			table = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") && len(trimmed) > 1 {
			table = append(table, line)

			continue
		}

		flush()

		out = append(out, line)
	}

	flush()

	return strings.Join(out, "\n")
}

// alignTable rewrites one table. A table needs a header and a separator
// row; anything shorter is returned as is.
func alignTable(rows []string) []string {
	if len(rows) < 2 {
		return rows
	}

	cells := make([][]string, len(rows))
	cols := 0

	for i, row := range rows {
		cells[i] = splitRow(row)
		cols = max(cols, len(cells[i]))
	}

	sepIdx := -1
	if isSeparator(cells[1]) {
		sepIdx = 1
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = minColumnWidth
	}

	for i, row := range cells {
		if i == sepIdx {
			continue
		}

		for j, cell := range row {
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}

	out := make([]string, len(cells))

	for i, row := range cells {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range cols {
			sb.WriteString(" ")

			if i == sepIdx {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				cell := ""
				if j < len(row) {
					cell = row[j]
				}

				sb.WriteString(runewidth.FillRight(cell, widths[j]))
			}

			sb.WriteString(" |")
		}

		out[i] = sb.String()
	}

	return out
}

// splitRow returns the trimmed cells of "| a | b |".
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	parts := strings.Split(row, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}

// isSeparator reports whether every cell is made of dashes and alignment colons.
func isSeparator(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}

	return len(cells) > 0
}
