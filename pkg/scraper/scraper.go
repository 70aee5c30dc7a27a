package scraper

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"canvasgrab/pkg/canvas"
	errs "canvasgrab/pkg/errors"
	"canvasgrab/pkg/logger"
)

// Scraper is the download orchestrator. For every course it scans the
// three file-bearing surfaces in order, resolves folders, and dispatches
// each discovered file to the sink. Everything runs strictly sequentially
// over the one session.
type Scraper struct {
	session   Session
	sink      Sink
	extractor *Extractor
	resolver  *Resolver
	log       logger.Logger
}

// New creates an orchestrator over a session and a persistence sink
func New(session Session, sink Sink, base *url.URL, log logger.Logger) *Scraper {
	extractor := NewExtractor(base, log)
	return &Scraper{
		session:   session,
		sink:      sink,
		extractor: extractor,
		resolver:  NewResolver(session, extractor, log),
		log:       log,
	}
}

// Run processes every course and returns the full manifest. Course
// failures are isolated; an unusable session aborts only the course it
// occurred in. Cancellation is honored between courses only.
func (s *Scraper) Run(ctx context.Context, courses []canvas.Course) (*Manifest, error) {
	manifest := &Manifest{}

	for _, course := range courses {
		if err := ctx.Err(); err != nil {
			return manifest, fmt.Errorf("run cancelled: %w", err)
		}
		manifest.Courses = append(manifest.Courses, s.scrapeCourse(ctx, course))
	}

	return manifest, nil
}

// scrapeCourse walks one course through HomepageScan, ModulesScan and
// FilesSectionScan. Each surface runs regardless of earlier surfaces'
// recoverable failures.
func (s *Scraper) scrapeCourse(ctx context.Context, course canvas.Course) CourseManifest {
	run := &courseRun{
		s:        s,
		course:   course,
		manifest: CourseManifest{Course: course.Name},
		log:      s.log.WithField("course", course.Name),
	}

	scans := []struct {
		surface Surface
		scan    func(context.Context) ([]ResolvedFile, error)
	}{
		{SurfaceHomepage, run.scanHomepage},
		{SurfaceModules, run.scanModules},
		{SurfaceFiles, run.scanFiles},
	}

	for _, sc := range scans {
		files, err := sc.scan(ctx)
		if err != nil {
			// only SessionUnusable escapes a scan
			run.log.WithError(err).Error("session unusable, abandoning course")
			run.manifest.Warnings = append(run.manifest.Warnings, err.Error())
			break
		}
		run.store(ctx, sc.surface, files)
	}

	run.log.InfoWithFields("course done", map[string]interface{}{
		"written": run.manifest.Written(),
		"skipped": run.manifest.Skipped(),
		"failed":  run.manifest.Failed(),
	})
	return run.manifest
}

// courseRun carries the per-course state of one orchestrator pass
type courseRun struct {
	s        *Scraper
	course   canvas.Course
	manifest CourseManifest
	log      logger.Logger
}

// store qualifies paths, enforces per-surface path uniqueness, and
// dispatches each file to the sink in discovery order
func (r *courseRun) store(ctx context.Context, surface Surface, files []ResolvedFile) {
	seenPaths := make(map[string]bool, len(files))
	for _, file := range files {
		file.Course = r.course.Name
		file.Surface = surface
		file.Path = uniquePath(seenPaths, file.Path)

		result := r.s.sink.Store(ctx, file)
		r.manifest.Results = append(r.manifest.Results, result)
		logger.LogDownload(r.log, r.course.Name,
			path.Join(surface.String(), file.Path), result.Status == StatusWritten, result.Err)
	}
}

// scanHomepage scans the course homepage for direct file links and
// single-hop page candidates
func (r *courseRun) scanHomepage(ctx context.Context) ([]ResolvedFile, error) {
	return r.scanAnchorSurface(ctx, SurfaceHomepage, r.course.URL)
}

// scanModules scans the modules listing; files carry their module name
func (r *courseRun) scanModules(ctx context.Context) ([]ResolvedFile, error) {
	return r.scanAnchorSurface(ctx, SurfaceModules, canvas.ModulesURL(r.course.URL))
}

// scanAnchorSurface is the shared homepage/modules scan: extract links,
// keep files, follow each page candidate exactly one hop
func (r *courseRun) scanAnchorSurface(ctx context.Context, surface Surface, pageURL string) ([]ResolvedFile, error) {
	logger.LogNavigation(r.log, r.course.Name, surface.String(), pageURL)

	doc, err := r.s.session.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, r.pageFailure(surface, pageURL, err)
	}

	var files []ResolvedFile
	for _, link := range r.s.extractor.Extract(doc, surface) {
		switch link.Kind {
		case KindFile:
			files = append(files, ResolvedFile{
				Surface: surface,
				Path:    path.Join(link.Module, link.Name),
				URL:     link.URL,
			})
		case KindPageCandidate:
			sub, err := r.followPage(ctx, link)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

// followPage visits a page candidate once and collects only its direct
// file links. One extra hop, never recursive.
func (r *courseRun) followPage(ctx context.Context, page ResourceLink) ([]ResolvedFile, error) {
	doc, err := r.s.session.FetchPage(ctx, page.URL)
	if err != nil {
		if errs.IsFatal(err) {
			return nil, err
		}
		r.log.WithFields(map[string]interface{}{
			"page": page.Name,
			"url":  page.URL,
		}).WithError(err).Warn("page candidate failed to load, skipping")
		return nil, nil
	}

	// a followed page is plain content, never a modules listing; scan its
	// anchors directly no matter which surface found the candidate
	prefix := path.Join(page.Module, page.Name)
	var files []ResolvedFile
	for _, link := range r.s.extractor.extractAnchors(doc, page.Surface) {
		if link.Kind != KindFile {
			continue
		}
		files = append(files, ResolvedFile{
			Surface: page.Surface,
			Path:    path.Join(prefix, link.Name),
			URL:     link.URL,
		})
	}
	return files, nil
}

// scanFiles scans the files-section root, expanding folders recursively
// with a fresh seen-set
func (r *courseRun) scanFiles(ctx context.Context) ([]ResolvedFile, error) {
	filesURL := canvas.FilesURL(r.course.URL)
	logger.LogNavigation(r.log, r.course.Name, SurfaceFiles.String(), filesURL)

	doc, err := r.s.session.FetchPage(ctx, filesURL)
	if err != nil {
		return nil, r.pageFailure(SurfaceFiles, filesURL, err)
	}

	var files []ResolvedFile
	seen := make(map[string]bool)
	for _, link := range r.s.extractor.Extract(doc, SurfaceFiles) {
		switch link.Kind {
		case KindFile:
			files = append(files, ResolvedFile{
				Surface: SurfaceFiles,
				Path:    link.Name,
				URL:     link.URL,
			})
		case KindFolder:
			if seen[link.URL] {
				continue
			}
			seen[link.URL] = true
			sub, err := r.s.resolver.Resolve(ctx, link, link.Name, seen)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

// pageFailure downgrades a recoverable page error to a warning recorded on
// the manifest; fatal errors are returned to abort the course
func (r *courseRun) pageFailure(surface Surface, pageURL string, err error) error {
	if errs.IsFatal(err) {
		return err
	}
	r.log.WithFields(map[string]interface{}{
		"surface": surface.String(),
		"url":     pageURL,
	}).WithError(err).Warn("surface failed to load, continuing with next surface")
	r.manifest.Warnings = append(r.manifest.Warnings,
		fmt.Sprintf("%s: %v", surface, err))
	return nil
}

// uniquePath returns p, or a numbered variant if p was already produced
// within this (course, surface) pair
func uniquePath(seen map[string]bool, p string) string {
	if !seen[p] {
		seen[p] = true
		return p
	}
	ext := path.Ext(p)
	stem := p[:len(p)-len(ext)]
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if !seen[candidate] {
			seen[candidate] = true
			return candidate
		}
	}
}
