package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"canvasgrab/pkg/scraper"
)

// Manager maps resolved files onto the local mirror tree and writes bytes
// atomically. Layout: <root>/<course>/<surface>/<path...>. The tree itself
// is the only state carried between runs.
type Manager struct {
	root string
}

// NewManager creates a storage manager rooted at the download directory
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the mirror tree root
func (m *Manager) Root() string {
	return m.root
}

// TargetPath computes the local path for a resolved file, sanitizing every
// component
func (m *Manager) TargetPath(file scraper.ResolvedFile) string {
	parts := []string{m.root, SanitizeName(file.Course), file.Surface.String()}
	parts = append(parts, sanitizePath(file.Path)...)
	return filepath.Join(parts...)
}

// HasContent reports whether the file already exists with non-zero size.
// Zero-byte files count as missing so an interrupted legacy run is not
// mistaken for a completed download.
func (m *Manager) HasContent(file scraper.ResolvedFile) bool {
	info, err := os.Stat(m.TargetPath(file))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Save writes the stream to the file's target path. Bytes go to a
// temporary file first and are renamed into place only on full completion,
// so a failed download never leaves a truncated file at the final path.
func (m *Manager) Save(file scraper.ResolvedFile, r io.Reader) (int64, error) {
	target := m.TargetPath(file)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directories for %s: %w", target, err)
	}

	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}
