package scraper

import (
	"context"
	"path"

	errs "canvasgrab/pkg/errors"
	"canvasgrab/pkg/logger"
)

// Resolver expands folder links into their full set of leaf files.
// Recursion is guarded by a seen-set keyed by folder URL, so it terminates
// even on cyclic folder graphs.
type Resolver struct {
	session   Session
	extractor *Extractor
	log       logger.Logger
}

// NewResolver creates a folder resolver bound to a session and extractor
func NewResolver(session Session, extractor *Extractor, log logger.Logger) *Resolver {
	return &Resolver{session: session, extractor: extractor, log: log}
}

// Resolve visits folder's listing and emits every file beneath it, path-
// qualified by pathPrefix. A folder URL already in seen is skipped; new
// folders are added to seen before recursing. A folder that fails to load
// yields zero files and a warning; only an unusable session is returned as
// an error.
func (r *Resolver) Resolve(ctx context.Context, folder ResourceLink, pathPrefix string, seen map[string]bool) ([]ResolvedFile, error) {
	doc, err := r.session.FetchPage(ctx, folder.URL)
	if err != nil {
		if errs.IsFatal(err) {
			return nil, err
		}
		r.log.WithFields(map[string]interface{}{
			"folder": folder.Name,
			"url":    folder.URL,
		}).WithError(err).Warn("folder failed to load, skipping subtree")
		return nil, nil
	}

	var files []ResolvedFile
	for _, link := range r.extractor.Extract(doc, SurfaceFiles) {
		switch link.Kind {
		case KindFile:
			files = append(files, ResolvedFile{
				Surface: SurfaceFiles,
				Path:    path.Join(pathPrefix, link.Name),
				URL:     link.URL,
			})
		case KindFolder:
			if seen[link.URL] {
				continue
			}
			seen[link.URL] = true
			sub, err := r.Resolve(ctx, link, path.Join(pathPrefix, link.Name), seen)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		default:
			// page links inside a folder listing are noise, not candidates
		}
	}
	return files, nil
}
