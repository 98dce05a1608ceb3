// Package metadata stamps generated reports with a trailing run block and
// verifies that the report body has not been edited since.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart opens the stamp block.
	TagStart = "<!-- NEWSPIPE_RUN"
	// TagEnd closes the stamp block.
	TagEnd = "NEWSPIPE_RUN -->"
)

// Verification errors.
var (
	ErrNoStamp      = errors.New("no run stamp found")
	ErrNoHashFound  = errors.New("no hash found in run stamp")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Stamp identifies the run that produced a report.
type Stamp struct {
	GeneratedAt time.Time
	RunID       string
	Topic       string
	Hash        string
}

var stampRegex = regexp.MustCompile(`(?s)<!--\s*NEWSPIPE_RUN\s*\n(.*?)\n\s*NEWSPIPE_RUN\s*-->`)

// Extract splits content into its stamp (nil when absent) and the body
// that the hash covers.
func Extract(content string) (*Stamp, string) {
	match := stampRegex.FindStringSubmatch(content)
	body := strings.TrimRight(stampRegex.ReplaceAllString(content, ""), "\n")

	if len(match) < 2 {
		return nil, body
	}

	stamp := &Stamp{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		val = strings.TrimSpace(val)

		switch strings.TrimSpace(key) {
		case "RUN_ID":
			stamp.RunID = val
		case "TOPIC":
			stamp.Topic = val
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				stamp.GeneratedAt = t
			}
		case "HASH":
			stamp.Hash = val
		}
	}

	return stamp, body
}

// Hash returns the hex SHA-256 of the body, ignoring any existing stamp.
func Hash(content string) string {
	_, body := Extract(content)
	sum := sha256.Sum256([]byte(body))

	return hex.EncodeToString(sum[:])
}

// Sign replaces any existing stamp with a fresh one for s. s.Hash is
// recomputed.
func Sign(content string, s Stamp) string {
	_, body := Extract(content)

	block := fmt.Sprintf("\n\n%s\nRUN_ID: %s\nTOPIC: %s\nGENERATED_AT: %s\nHASH: %s\n%s\n",
		TagStart, s.RunID, oneLine(s.Topic), s.GeneratedAt.UTC().Format(time.RFC3339), Hash(body), TagEnd)

	return body + block
}

// Verify checks content against the hash in its stamp and returns the stamp.
func Verify(content string) (*Stamp, error) {
	stamp, body := Extract(content)
	if stamp == nil {
		return nil, ErrNoStamp
	}

	if stamp.Hash == "" {
		return stamp, ErrNoHashFound
	}

	if got := Hash(body); got != stamp.Hash {
		return stamp, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, stamp.Hash, got)
	}

	return stamp, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
