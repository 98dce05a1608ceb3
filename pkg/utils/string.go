package utils

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks text that was cut short.
const Ellipsis = "..."

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString keeps the first maxChars characters (runes) of str and
// appends Ellipsis when anything was dropped.
func (s *StringHelper) TruncateString(str string, maxChars int) string {
	if maxChars < 0 {
		maxChars = 0
	}

	if utf8.RuneCountInString(str) <= maxChars {
		return str
	}

	count := 0
	for i := range str {
		if count == maxChars {
			return str[:i] + Ellipsis
		}
		count++
	}

	return str
}

// Snippet shortens str for log lines.
func (s *StringHelper) Snippet(str string, maxChars int) string {
	return s.TruncateString(s.NormalizeWhitespace(str), maxChars)
}
