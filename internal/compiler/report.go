package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Outcome is the typed enumeration of final compile result states.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// Report captures the result of one compile pass. Per-entry failures and
// link-resolution warnings are aggregated here instead of aborting the pass.
type Report struct {
	SchemaVersion     int       `json:"schema_version"`
	BuildID           string    `json:"build_id"`
	Full              bool      `json:"full"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	DocumentsRendered int       `json:"documents_rendered"`
	DocumentsSkipped  int       `json:"documents_skipped"` // render-cache hits
	AssetsCopied      int       `json:"assets_copied"`
	OutputsRemoved    int       `json:"outputs_removed"`
	Warnings          []string  `json:"warnings"`
	Errors            []string  `json:"errors"`
	Outcome           Outcome   `json:"outcome"`
}

func newReport(full bool) *Report {
	return &Report{
		SchemaVersion: 1,
		BuildID:       uuid.NewString(),
		Full:          full,
		Start:         time.Now(),
	}
}

// AddWarning records a non-fatal diagnostic.
func (r *Report) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError records an isolated per-entry failure.
func (r *Report) AddError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

func (r *Report) finish() {
	r.End = time.Now()
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration returns the wall-clock time of the pass.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("build=%s full=%t documents=%d skipped=%d assets=%d removed=%d warnings=%d errors=%d duration=%s outcome=%s",
		r.BuildID, r.Full, r.DocumentsRendered, r.DocumentsSkipped, r.AssetsCopied,
		r.OutputsRemoved, len(r.Warnings), len(r.Errors), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the report atomically into the output root:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but do not change the
// compile outcome.
func (r *Report) Persist(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	summaryPath := filepath.Join(root, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}
