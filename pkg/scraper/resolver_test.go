package scraper

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "canvasgrab/pkg/errors"
	"canvasgrab/pkg/logger"
)

// fakeSession serves canned HTML pages and records every fetch
type fakeSession struct {
	mu      sync.Mutex
	pages   map[string]string // URL -> HTML
	errors  map[string]error  // URL -> error to return instead
	content map[string]string // file URL -> bytes
	fetched []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:   make(map[string]string),
		errors:  make(map[string]error),
		content: make(map[string]string),
	}
}

func (f *fakeSession) FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, pageURL)
	f.mu.Unlock()

	if err, ok := f.errors[pageURL]; ok {
		return nil, err
	}
	html, ok := f.pages[pageURL]
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeNotFound, "no page at %s", pageURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeSession) Download(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	if err, ok := f.errors[fileURL]; ok {
		return nil, err
	}
	data, ok := f.content[fileURL]
	if !ok {
		data = "bytes of " + fileURL
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (f *fakeSession) fetchCount(pageURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == pageURL {
			n++
		}
	}
	return n
}

func folderHTML(entries ...string) string {
	return "<div>" + strings.Join(entries, "\n") + "</div>"
}

func folderRow(name, href string) string {
	return `<div class="ef-item-row ef-item-folder"><a class="ef-name-col__link" href="` + href +
		`"><span class="ef-name-col__text">` + name + `</span></a></div>`
}

func fileRow(name, href string) string {
	return `<div class="ef-item-row"><a class="ef-name-col__link" href="` + href +
		`"><span class="ef-name-col__text">` + name + `</span></a></div>`
}

func testResolver(t *testing.T, session Session) *Resolver {
	t.Helper()
	base, err := url.Parse("https://canvas.example.edu")
	require.NoError(t, err)
	log := logger.NewNopLogger()
	return NewResolver(session, NewExtractor(base, log), log)
}

func TestResolveNestedFolders(t *testing.T) {
	session := newFakeSession()
	session.pages["https://canvas.example.edu/courses/1/files/folder/Readings"] = folderHTML(
		fileRow("ch1.pdf", "/courses/1/files/21"),
		folderRow("Extra", "/courses/1/files/folder/Readings/Extra"),
	)
	session.pages["https://canvas.example.edu/courses/1/files/folder/Readings/Extra"] = folderHTML()

	resolver := testResolver(t, session)
	seen := map[string]bool{}
	files, err := resolver.Resolve(context.Background(), ResourceLink{
		Kind: KindFolder,
		Name: "Readings",
		URL:  "https://canvas.example.edu/courses/1/files/folder/Readings",
	}, "Readings", seen)

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Readings/ch1.pdf", files[0].Path)
	assert.Equal(t, SurfaceFiles, files[0].Surface)

	// the empty subfolder was visited exactly once
	assert.Equal(t, 1, session.fetchCount("https://canvas.example.edu/courses/1/files/folder/Readings/Extra"))
}

func TestResolveTerminatesOnCycles(t *testing.T) {
	const (
		folderA = "https://canvas.example.edu/courses/1/files/folder/A"
		folderB = "https://canvas.example.edu/courses/1/files/folder/B"
	)
	session := newFakeSession()
	session.pages[folderA] = folderHTML(
		fileRow("a.pdf", "/courses/1/files/31"),
		folderRow("B", "/courses/1/files/folder/B"),
	)
	session.pages[folderB] = folderHTML(
		fileRow("b.pdf", "/courses/1/files/32"),
		folderRow("A", "/courses/1/files/folder/A"),
	)

	resolver := testResolver(t, session)
	seen := map[string]bool{folderA: true}
	files, err := resolver.Resolve(context.Background(), ResourceLink{
		Kind: KindFolder, Name: "A", URL: folderA,
	}, "A", seen)

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "A/a.pdf", files[0].Path)
	assert.Equal(t, "A/B/b.pdf", files[1].Path)

	assert.Equal(t, 1, session.fetchCount(folderA), "each folder visited at most once")
	assert.Equal(t, 1, session.fetchCount(folderB), "each folder visited at most once")
}

func TestResolveFailedFolderYieldsZeroFilesAndContinues(t *testing.T) {
	const (
		root    = "https://canvas.example.edu/courses/1/files/folder/Root"
		broken  = "https://canvas.example.edu/courses/1/files/folder/Broken"
		healthy = "https://canvas.example.edu/courses/1/files/folder/Healthy"
	)
	session := newFakeSession()
	session.pages[root] = folderHTML(
		folderRow("Broken", "/courses/1/files/folder/Broken"),
		folderRow("Healthy", "/courses/1/files/folder/Healthy"),
	)
	session.errors[broken] = errs.New(errs.ErrorTypePageLoadTimeout, "timed out")
	session.pages[healthy] = folderHTML(fileRow("ok.pdf", "/courses/1/files/41"))

	resolver := testResolver(t, session)
	files, err := resolver.Resolve(context.Background(), ResourceLink{
		Kind: KindFolder, Name: "Root", URL: root,
	}, "Root", map[string]bool{root: true})

	require.NoError(t, err)
	require.Len(t, files, 1, "sibling folders still resolve after one fails")
	assert.Equal(t, "Root/Healthy/ok.pdf", files[0].Path)
}

func TestResolvePropagatesSessionUnusable(t *testing.T) {
	const root = "https://canvas.example.edu/courses/1/files/folder/Root"
	session := newFakeSession()
	session.errors[root] = errs.New(errs.ErrorTypeSessionUnusable, "session expired")

	resolver := testResolver(t, session)
	_, err := resolver.Resolve(context.Background(), ResourceLink{
		Kind: KindFolder, Name: "Root", URL: root,
	}, "Root", map[string]bool{root: true})

	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
}
