package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	errs "canvasgrab/pkg/errors"
	"canvasgrab/pkg/logger"
	"canvasgrab/pkg/ratelimit"
)

// Client is an authenticated Canvas session. It is the session handle the
// scraper core receives: it fetches rendered pages and streams file bytes.
// All navigation goes through one cookie jar; callers must not issue
// concurrent requests.
type Client struct {
	base  *url.URL
	http  *resty.Client
	pacer ratelimit.Limiter
	snaps Snapshotter
	log   logger.Logger

	pageTimeout time.Duration
	loggedIn    bool
}

// Options configures a Client
type Options struct {
	BaseURL     string
	UserAgent   string
	PageTimeout time.Duration
	// Delay is the minimum interval between any two requests
	Delay       time.Duration
	Logger      logger.Logger
	Snapshotter Snapshotter
}

// NewClient creates a Canvas client for the given instance URL
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errs.Newf(errs.ErrorTypeParsing, "invalid canvas URL %q", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpClient := resty.New().
		SetCookieJar(jar).
		SetHeader("User-Agent", opts.UserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	var pacer ratelimit.Limiter = ratelimit.Nop{}
	if opts.Delay > 0 {
		pacer = ratelimit.NewPacer(opts.Delay)
	}

	snaps := opts.Snapshotter
	if snaps == nil {
		snaps = NopSnapshotter{}
	}

	pageTimeout := opts.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = 20 * time.Second
	}

	return &Client{
		base:        base,
		http:        httpClient,
		pacer:       pacer,
		snaps:       snaps,
		log:         log,
		pageTimeout: pageTimeout,
	}, nil
}

// BaseURL returns the Canvas instance base URL
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// FetchPage fetches and parses a rendered page. Mid-run redirects back to
// the login form mean the session died; those surface as SessionUnusable.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	doc, _, err := c.getDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if c.loggedIn && hasLoginForm(doc) {
		return nil, errs.Newf(errs.ErrorTypeSessionUnusable, "session expired: %s redirected to login", pageURL)
	}

	return doc, nil
}

// getDocument performs a paced GET and parses the body, without the
// session-loss check. Login uses it to fetch the login form itself.
func (c *Client) getDocument(ctx context.Context, pageURL string) (*goquery.Document, []byte, error) {
	body, err := c.getBytes(ctx, pageURL, c.pageTimeout, errs.ErrorTypePageLoadTimeout)
	if err != nil {
		return nil, nil, err
	}

	c.snaps.Snapshot(snapshotName(pageURL), body)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse page "+pageURL, err)
	}
	return doc, body, nil
}

// getBytes performs a paced GET and returns the full response body
func (c *Client) getBytes(ctx context.Context, rawURL string, timeout time.Duration, timeoutKind errs.ErrorType) ([]byte, error) {
	c.pacer.Wait()

	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c.log.DebugWithFields("GET", map[string]interface{}{"url": rawURL})

	res, err := c.http.R().SetContext(reqCtx).Get(rawURL)
	if err != nil {
		return nil, classifyTransportError(rawURL, err, timeoutKind)
	}

	if res.StatusCode() != 200 {
		if c.loggedIn && (res.StatusCode() == 401 || res.StatusCode() == 403) {
			return nil, errs.Newf(errs.ErrorTypeSessionUnusable,
				"session rejected by %s", rawURL).WithCode(res.StatusCode())
		}
		return nil, errs.FromStatusCode(res.StatusCode(), "GET "+rawURL)
	}

	return res.Body(), nil
}

// Download resolves a file link to its byte stream. Canvas file links often
// point at a preview page rather than the bytes; in that case the preview's
// download anchor is followed.
func (c *Client) Download(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	body, contentType, err := c.getRaw(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(contentType, "text/html") {
		return body, nil
	}

	// Preview page: find the real download URL in it
	defer body.Close()
	htmlBytes, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeDownloadIO, "failed to read preview page", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse preview page", err)
	}

	downloadURL, ok := findDownloadAnchor(doc, c.base)
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeDownloadIO, "no download link on preview page %s", fileURL)
	}

	stream, contentType, err := c.getRaw(ctx, downloadURL)
	if err != nil {
		return nil, err
	}
	if strings.Contains(contentType, "text/html") {
		stream.Close()
		return nil, errs.Newf(errs.ErrorTypeDownloadIO, "download URL %s returned another page", downloadURL)
	}
	return stream, nil
}

// getRaw performs a paced GET without parsing the response body. The
// caller's context bounds the transfer; the downloader sets the deadline.
func (c *Client) getRaw(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	c.pacer.Wait()

	c.log.DebugWithFields("GET (raw)", map[string]interface{}{"url": rawURL})

	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, "", classifyTransportError(rawURL, err, errs.ErrorTypeDownloadTimeout)
	}

	raw := res.RawBody()
	if res.StatusCode() != 200 {
		raw.Close()
		return nil, "", errs.FromStatusCode(res.StatusCode(), "GET "+rawURL)
	}

	return raw, res.Header().Get("Content-Type"), nil
}

// findDownloadAnchor locates the byte-download link on a file preview page
func findDownloadAnchor(doc *goquery.Document, base *url.URL) (string, bool) {
	for _, selector := range []string{"a.icon-download", "a.file_download_btn", "a[download]"} {
		href, exists := doc.Find(selector).First().Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			continue
		}
		resolved, err := resolveRef(base, href)
		if err != nil {
			continue
		}
		return resolved, true
	}
	return "", false
}

// classifyTransportError maps a transport failure to a typed error
func classifyTransportError(rawURL string, err error, timeoutKind errs.ErrorType) error {
	var uerr *url.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &uerr) && uerr.Timeout())
	if timedOut {
		return errs.Wrap(timeoutKind, "request to "+rawURL+" timed out", err)
	}
	return errs.Wrap(errs.ErrorTypeNetwork, "request to "+rawURL+" failed", err)
}

// hasLoginForm reports whether the document is the Canvas login page
func hasLoginForm(doc *goquery.Document) bool {
	return doc.Find("#pseudonym_session_unique_id, input[name='pseudonym_session[unique_id]']").Length() > 0
}

// snapshotName derives a short snapshot label from a URL
func snapshotName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "page"
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		name = "root"
	}
	return strings.ReplaceAll(name, "/", "_")
}
