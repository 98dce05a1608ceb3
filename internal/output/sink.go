// Package output writes a run's artifacts to disk.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newspipe/internal/config"
	"newspipe/internal/formatter"
	"newspipe/internal/logger"
	"newspipe/internal/models"
)

// ErrWriteFailed wraps every artifact write failure.
var ErrWriteFailed = errors.New("failed to write artifact")

// Sink writes the raw articles, the full records and the report.
type Sink struct {
	log    *logger.Logger
	now    func() time.Time
	cfg    config.OutputConfig
	report formatter.ReportOptions
}

// NewSink creates a sink for the output section of the config.
func NewSink(cfg config.OutputConfig, log *logger.Logger) *Sink {
	return &Sink{
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		report: formatter.ReportOptions{Source: cfg.SourceLabel},
	}
}

// SetClock replaces time.Now for the report date.
func (s *Sink) SetClock(now func() time.Time) {
	s.now = now
}

// Paths returns the three artifact paths in write order.
func (s *Sink) Paths() []string {
	return []string{
		filepath.Join(s.cfg.Dir, s.cfg.RawArticles),
		filepath.Join(s.cfg.Dir, s.cfg.Results),
		filepath.Join(s.cfg.Dir, s.cfg.Report),
	}
}

// Save writes every artifact. A failure on one artifact does not stop the
// others; all failures are joined into the returned error.
func (s *Sink) Save(out *models.PipelineOutput) error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output directory %s: %w", ErrWriteFailed, s.cfg.Dir, err)
	}

	records := out.Records
	if records == nil {
		records = []models.PipelineRecord{}
	}

	paths := s.Paths()

	opts := s.report
	opts.Now = s.now()

	var errs []error

	if err := writeJSON(paths[0], out.Articles()); err != nil {
		s.log.Error("❌ Error saving raw articles", "path", paths[0], "error", err)
		errs = append(errs, err)
	} else {
		s.log.Info("💾 Raw data saved", "path", paths[0])
	}

	if err := writeJSON(paths[1], records); err != nil {
		s.log.Error("❌ Error saving analysis JSON", "path", paths[1], "error", err)
		errs = append(errs, err)
	} else {
		s.log.Info("💾 Analysis results saved", "path", paths[1])
	}

	if err := writeFile(paths[2], []byte(formatter.BuildReport(out, opts))); err != nil {
		s.log.Error("❌ Error saving Markdown", "path", paths[2], "error", err)
		errs = append(errs, err)
	} else {
		s.log.Info("📄 Report generated", "path", paths[2])
	}

	return errors.Join(errs...)
}

// writeJSON writes v indented by two spaces, without HTML escaping.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrWriteFailed, path, err)
	}

	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}
