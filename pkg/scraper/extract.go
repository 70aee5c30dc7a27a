package scraper

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"canvasgrab/pkg/logger"
)

// File extensions recognized as direct downloads regardless of URL shape
var fileExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".csv": true, ".txt": true, ".rtf": true,
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".mp4": true, ".mp3": true, ".m4a": true, ".mov": true, ".avi": true,
}

// Portal chrome links that must never be treated as page candidates
var navNames = map[string]bool{
	"home": true, "announcements": true, "grades": true, "people": true,
	"files": true, "syllabus": true, "modules": true, "settings": true,
	"dashboard": true, "courses": true, "calendar": true, "inbox": true,
	"help": true, "logout": true, "log out": true,
}

// Path prefixes for portal chrome, skipped during anchor scans
var navPathPrefixes = []string{
	"/login", "/logout", "/profile", "/calendar", "/conversations",
	"/accounts", "/about",
}

// Extractor turns a rendered page into classified resource links
type Extractor struct {
	base *url.URL
	log  logger.Logger
}

// NewExtractor creates an extractor for pages of one Canvas instance
func NewExtractor(base *url.URL, log logger.Logger) *Extractor {
	return &Extractor{base: base, log: log}
}

// Extract returns the classified links of a page for the given surface.
// Malformed links are skipped with a warning, never an error.
func (e *Extractor) Extract(doc *goquery.Document, surface Surface) []ResourceLink {
	switch surface {
	case SurfaceModules:
		return e.extractModules(doc)
	case SurfaceFiles:
		return e.extractFileRows(doc)
	default:
		return e.extractAnchors(doc, surface)
	}
}

// extractAnchors scans every anchor on a page. Used for the homepage and
// for single-hop page candidates.
func (e *Extractor) extractAnchors(doc *goquery.Document, surface Surface) []ResourceLink {
	var links []ResourceLink
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if navNames[strings.ToLower(name)] {
			return
		}

		target, ok := e.resolveHref(sel)
		if !ok {
			return
		}

		kind, ok := classify(target, e.base)
		if !ok {
			return
		}
		switch kind {
		case KindFile:
			links = append(links, ResourceLink{
				Kind:    KindFile,
				Surface: surface,
				URL:     target.String(),
				Name:    linkName(name, target),
			})
		case KindPageCandidate:
			if name == "" {
				return
			}
			links = append(links, ResourceLink{
				Kind:    KindPageCandidate,
				Surface: surface,
				URL:     target.String(),
				Name:    name,
			})
		}
	})
	return links
}

// extractModules scans the modules listing: one block per module, each
// holding file and page items that belong to that module
func (e *Extractor) extractModules(doc *goquery.Document) []ResourceLink {
	var links []ResourceLink
	doc.Find("div.context_module").Each(func(_ int, module *goquery.Selection) {
		moduleName := strings.TrimSpace(module.Find(".name, .ig-header-title").First().Text())
		if moduleName == "" {
			moduleName, _ = module.Attr("aria-label")
			moduleName = strings.TrimSpace(moduleName)
		}

		module.Find(".context_module_item").Each(func(_ int, item *goquery.Selection) {
			anchor := item.Find("a.ig-title, a.title, a[href]").First()
			target, ok := e.resolveHref(anchor)
			if !ok {
				return
			}

			name := strings.TrimSpace(item.Find(".item_name").First().Text())
			if name == "" {
				name = strings.TrimSpace(anchor.Text())
			}

			isAttachment := item.HasClass("attachment") || item.HasClass("Attachment")
			kind, ok := classify(target, e.base)
			switch {
			case isAttachment || (ok && kind == KindFile):
				links = append(links, ResourceLink{
					Kind:    KindFile,
					Surface: SurfaceModules,
					Module:  moduleName,
					URL:     target.String(),
					Name:    linkName(name, target),
				})
			case ok && kind == KindPageCandidate && name != "":
				links = append(links, ResourceLink{
					Kind:    KindPageCandidate,
					Surface: SurfaceModules,
					Module:  moduleName,
					URL:     target.String(),
					Name:    name,
				})
			}
		})
	})
	return links
}

// extractFileRows scans a files-section listing: each row is a folder or a
// file, identified by the row's class rather than its URL shape
func (e *Extractor) extractFileRows(doc *goquery.Document) []ResourceLink {
	var links []ResourceLink
	doc.Find(".ef-item-row").Each(func(_ int, row *goquery.Selection) {
		anchor := row.Find("a.ef-name-col__link").First()
		if anchor.Length() == 0 {
			anchor = row.Find("a[href]").First()
		}
		target, ok := e.resolveHref(anchor)
		if !ok {
			return
		}

		name := strings.TrimSpace(row.Find(".ef-name-col__text").First().Text())
		if name == "" {
			name = strings.TrimSpace(anchor.Text())
		}

		isFolder := row.HasClass("ef-item-folder") ||
			row.Find("i.icon-folder, .ef-folder-icon").Length() > 0

		if isFolder {
			if name == "" {
				return
			}
			links = append(links, ResourceLink{
				Kind:    KindFolder,
				Surface: SurfaceFiles,
				URL:     target.String(),
				Name:    name,
			})
			return
		}

		links = append(links, ResourceLink{
			Kind:    KindFile,
			Surface: SurfaceFiles,
			URL:     target.String(),
			Name:    linkName(name, target),
		})
	})
	return links
}

// resolveHref resolves an anchor's href against the instance base URL.
// Empty, fragment-only, and unparseable hrefs are dropped; the latter with
// a malformed-link warning.
func (e *Extractor) resolveHref(sel *goquery.Selection) (*url.URL, bool) {
	href, exists := sel.Attr("href")
	if !exists {
		return nil, false
	}
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") {
		return nil, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		e.log.WarnWithFields("skipping malformed link", map[string]interface{}{
			"href":  href,
			"error": err.Error(),
		})
		return nil, false
	}
	return e.base.ResolveReference(ref), true
}

// classify decides what a link points at: a downloadable file, an internal
// page that may list files, or nothing of interest (ok=false)
func classify(target *url.URL, base *url.URL) (LinkKind, bool) {
	if isFileURL(target) {
		return KindFile, true
	}
	if target.Host != base.Host {
		return 0, false // external, discarded
	}
	for _, prefix := range navPathPrefixes {
		if strings.HasPrefix(target.Path, prefix) {
			return 0, false
		}
	}
	return KindPageCandidate, true
}

// isFileURL reports whether a URL points at downloadable bytes: either a
// Canvas file endpoint or a path with a known file extension
func isFileURL(u *url.URL) bool {
	p := strings.ToLower(u.Path)
	if strings.Contains(p, "/files/") {
		if strings.HasSuffix(p, "/download") {
			return true
		}
		if u.Query().Has("download") || u.Query().Get("download_frd") == "1" {
			return true
		}
		// bare file id, e.g. /courses/1/files/42 (a preview page)
		if canvasFileID(p) != "" {
			return true
		}
	}
	return fileExtensions[path.Ext(p)]
}

// canvasFileID extracts the trailing numeric id of a /files/<id> path
func canvasFileID(p string) string {
	idx := strings.LastIndex(p, "/files/")
	if idx < 0 {
		return ""
	}
	rest := strings.Trim(p[idx+len("/files/"):], "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return rest
}

// linkName picks a display name, falling back to the URL's file name
func linkName(text string, target *url.URL) string {
	if text != "" {
		return text
	}
	base := path.Base(target.Path)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if base == "." || base == "/" || base == "download" {
		return "unnamed"
	}
	return base
}
