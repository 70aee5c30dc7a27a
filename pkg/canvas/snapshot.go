package canvas

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Snapshotter captures the raw HTML of a navigation for diagnostics.
// Implementations must not alter control flow: capture failures are
// swallowed by the implementation, never surfaced to the caller.
type Snapshotter interface {
	Snapshot(name string, html []byte)
}

// NopSnapshotter discards all snapshots
type NopSnapshotter struct{}

func (NopSnapshotter) Snapshot(name string, html []byte) {}

var snapshotNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileSnapshotter writes one timestamped .html file per navigation into a
// directory, typically <downloadDir>/.snapshots. Used in debug mode.
type FileSnapshotter struct {
	dir string
}

// NewFileSnapshotter creates the snapshot directory and returns a snapshotter
func NewFileSnapshotter(dir string) (*FileSnapshotter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSnapshotter{dir: dir}, nil
}

// Snapshot writes the HTML to <dir>/<name>_<timestamp>.html, best effort
func (f *FileSnapshotter) Snapshot(name string, html []byte) {
	name = snapshotNameSanitizer.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		name = "page"
	}
	filename := fmt.Sprintf("%s_%s.html", name, time.Now().Format("20060102_150405.000"))
	_ = os.WriteFile(filepath.Join(f.dir, filename), html, 0644)
}
