// Package report renders and persists the per-run summary: one line of
// Written/Skipped/Failed counts per course, saved atomically as
// report.json in the download directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"canvasgrab/pkg/scraper"
)

// CourseSummary is the per-course roll-up
type CourseSummary struct {
	Course   string   `json:"course"`
	Written  int      `json:"written"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Warnings []string `json:"warnings,omitempty"`
}

// Report is the whole-run summary
type Report struct {
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Courses      []CourseSummary `json:"courses"`
	TotalWritten int             `json:"total_written"`
	TotalSkipped int             `json:"total_skipped"`
	TotalFailed  int             `json:"total_failed"`
	BytesWritten int64           `json:"bytes_written"`
}

// Build rolls a manifest up into a report
func Build(manifest *scraper.Manifest, startedAt, finishedAt time.Time, bytesWritten int64) *Report {
	r := &Report{
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		BytesWritten: bytesWritten,
	}
	for i := range manifest.Courses {
		cm := &manifest.Courses[i]
		summary := CourseSummary{
			Course:   cm.Course,
			Written:  cm.Written(),
			Skipped:  cm.Skipped(),
			Failed:   cm.Failed(),
			Warnings: cm.Warnings,
		}
		r.Courses = append(r.Courses, summary)
		r.TotalWritten += summary.Written
		r.TotalSkipped += summary.Skipped
		r.TotalFailed += summary.Failed
	}
	return r
}

// Save writes the report atomically: bytes go to a temporary file, synced,
// then renamed into place, so a crash never leaves a corrupt report
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tempFile := path + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close report: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename report into place: %w", err)
	}

	return nil
}

// Load reads a previously saved report
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
