package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"canvasgrab/pkg/scraper"
)

func testFile() scraper.ResolvedFile {
	return scraper.ResolvedFile{
		Course:  "BIO101",
		Surface: scraper.SurfaceFiles,
		Path:    "Readings/ch1.pdf",
		URL:     "https://canvas.example.edu/courses/101/files/3",
	}
}

func TestTargetPath(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	got := m.TargetPath(testFile())
	want := filepath.Join(m.Root(), "BIO101", "Files", "Readings", "ch1.pdf")
	if got != want {
		t.Errorf("TargetPath = %q, want %q", got, want)
	}
}

func TestTargetPathSanitizesComponents(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	f := scraper.ResolvedFile{
		Course:  "CS: Intro?",
		Surface: scraper.SurfaceModules,
		Path:    "Week 1/notes|v2.pdf",
	}
	got := m.TargetPath(f)
	want := filepath.Join(m.Root(), "CS_ Intro_", "Modules", "Week 1", "notes_v2.pdf")
	if got != want {
		t.Errorf("TargetPath = %q, want %q", got, want)
	}
}

func TestSaveAndHasContent(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	f := testFile()

	if m.HasContent(f) {
		t.Fatal("HasContent should be false before saving")
	}

	n, err := m.Save(f, strings.NewReader("chapter one"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if n != int64(len("chapter one")) {
		t.Errorf("Save wrote %d bytes, want %d", n, len("chapter one"))
	}

	if !m.HasContent(f) {
		t.Error("HasContent should be true after saving")
	}

	data, err := os.ReadFile(m.TargetPath(f))
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "chapter one" {
		t.Errorf("saved content = %q", data)
	}
}

func TestZeroByteFileCountsAsMissing(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	f := testFile()

	target := m.TargetPath(f)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if m.HasContent(f) {
		t.Error("a zero-byte file must count as missing")
	}
}

// failingReader errors partway through a transfer
type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestInterruptedSaveLeavesNoPartialFile(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	f := testFile()

	if _, err := m.Save(f, &failingReader{data: "partial"}); err == nil {
		t.Fatal("Save should fail when the reader errors")
	}

	if _, err := os.Stat(m.TargetPath(f)); !os.IsNotExist(err) {
		t.Error("target path must not exist after a failed save")
	}
	if _, err := os.Stat(m.TargetPath(f) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file must be cleaned up after a failed save")
	}
}

func TestInterruptedSavePreservesPriorContent(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	f := testFile()

	if _, err := m.Save(f, strings.NewReader("good content")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := m.Save(f, &failingReader{data: "bad"}); err == nil {
		t.Fatal("Save should fail when the reader errors")
	}

	data, err := os.ReadFile(m.TargetPath(f))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "good content" {
		t.Errorf("prior content must survive a failed overwrite, got %q", data)
	}
}

func TestSaveOverwrites(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	f := testFile()

	if _, err := m.Save(f, strings.NewReader("v1")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Save(f, strings.NewReader("version two")); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(m.TargetPath(f))
	if string(data) != "version two" {
		t.Errorf("expected overwrite, got %q", data)
	}
}

var _ io.Reader = (*failingReader)(nil)
