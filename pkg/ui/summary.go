package ui

import (
	"fmt"
	"time"

	"canvasgrab/pkg/report"
)

// FormatSize renders a byte count in human-readable form
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// PrintSummary prints the per-course and total counts for a finished run
func PrintSummary(r *report.Report) {
	if quiet {
		return
	}

	fmt.Println()
	PrintHighlight("Run summary")
	for _, c := range r.Courses {
		line := fmt.Sprintf("  %-40s written %3d  skipped %3d  failed %3d",
			c.Course, c.Written, c.Skipped, c.Failed)
		if c.Failed > 0 {
			fmt.Println(Yellow(line))
		} else {
			fmt.Println(line)
		}
		for _, w := range c.Warnings {
			fmt.Println(Dim("    warning: " + w))
		}
	}

	fmt.Println()
	PrintInfo("Total written", fmt.Sprintf("%d", r.TotalWritten))
	PrintInfo("Total skipped", fmt.Sprintf("%d", r.TotalSkipped))
	if r.TotalFailed > 0 {
		PrintWarning(fmt.Sprintf("Total failed: %d", r.TotalFailed))
	}
	PrintInfo("Bytes written", FormatSize(r.BytesWritten))
	PrintInfo("Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String())
}
