package scraper

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Surface is one of the three page categories files are discovered from
type Surface int

const (
	SurfaceHomepage Surface = iota
	SurfaceModules
	SurfaceFiles
)

// String returns the surface's directory name in the local mirror tree.
// These exact names are an external contract: rerun passes locate prior
// downloads by them.
func (s Surface) String() string {
	switch s {
	case SurfaceHomepage:
		return "Homepage"
	case SurfaceModules:
		return "Modules"
	case SurfaceFiles:
		return "Files"
	default:
		return "Unknown"
	}
}

// LinkKind is the tagged classification of a discovered link
type LinkKind int

const (
	// KindFile is a direct download target
	KindFile LinkKind = iota
	// KindFolder is a folder listing to expand recursively
	KindFolder
	// KindPageCandidate is a page that may itself list files,
	// followed at most one extra hop
	KindPageCandidate
)

func (k LinkKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindPageCandidate:
		return "page"
	default:
		return "unknown"
	}
}

// ResourceLink is one discovered reference on a page
type ResourceLink struct {
	Kind    LinkKind
	Surface Surface
	// Module is the owning module name, set only for the Modules surface
	Module string
	URL    string
	Name   string
}

// ResolvedFile is the terminal unit of work: a file with its fully
// qualified relative path below <downloadDir>/<course>/<surface>/
type ResolvedFile struct {
	Course  string
	Surface Surface
	// Path is slash-separated and includes the file name
	Path string
	URL  string
}

// StoreStatus is the outcome of persisting one resolved file
type StoreStatus int

const (
	StatusWritten StoreStatus = iota
	StatusSkipped
	StatusFailed
)

func (s StoreStatus) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result records the persistence outcome for one file
type Result struct {
	File   ResolvedFile
	Status StoreStatus
	Err    error
}

// CourseManifest collects results for one course in discovery order
type CourseManifest struct {
	Course   string
	Results  []Result
	Warnings []string
}

// Written counts files written for this course
func (m *CourseManifest) Written() int { return m.count(StatusWritten) }

// Skipped counts files skipped because they were already on disk
func (m *CourseManifest) Skipped() int { return m.count(StatusSkipped) }

// Failed counts files that could not be downloaded
func (m *CourseManifest) Failed() int { return m.count(StatusFailed) }

func (m *CourseManifest) count(status StoreStatus) int {
	n := 0
	for _, r := range m.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Manifest is the full run record, one entry per course
type Manifest struct {
	Courses []CourseManifest
}

// Session is the authenticated browser-session collaborator. Every
// operation that navigates or downloads takes it explicitly; nothing in
// this package holds ambient session state.
type Session interface {
	// FetchPage navigates to a page and returns its rendered document
	FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error)
	// Download streams the bytes of a file link
	Download(ctx context.Context, fileURL string) (io.ReadCloser, error)
}

// Sink persists resolved files. The orchestrator dispatches every file it
// discovers to the sink and records the returned result.
type Sink interface {
	Store(ctx context.Context, file ResolvedFile) Result
}
