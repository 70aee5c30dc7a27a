// Package downloader persists resolved files: it checks the mirror for
// existing content, streams bytes from the session, and writes them
// atomically, retrying transient failures.
package downloader

import (
	"context"
	"io"
	"time"

	errs "canvasgrab/pkg/errors"
	"canvasgrab/pkg/logger"
	"canvasgrab/pkg/retry"
	"canvasgrab/pkg/scraper"
)

// Fetcher streams the bytes of a file URL. Satisfied by the canvas client.
type Fetcher interface {
	Download(ctx context.Context, fileURL string) (io.ReadCloser, error)
}

// FileStore is the local mirror the downloader writes into. Satisfied by
// the storage manager.
type FileStore interface {
	HasContent(file scraper.ResolvedFile) bool
	Save(file scraper.ResolvedFile, r io.Reader) (int64, error)
	TargetPath(file scraper.ResolvedFile) string
}

// Options configures a Downloader
type Options struct {
	// SkipExisting skips files already present with non-zero size
	SkipExisting bool
	// Timeout bounds one download attempt
	Timeout time.Duration
	// MaxAttempts is the number of tries per file
	MaxAttempts int
	// InitialDelay is the first retry backoff delay
	InitialDelay time.Duration
	// BackoffMultiplier grows the delay between attempts
	BackoffMultiplier float64
	Logger            logger.Logger
}

// Downloader implements scraper.Sink over a Fetcher and a FileStore.
// Downloads run strictly sequentially; there is exactly one session.
type Downloader struct {
	fetcher Fetcher
	store   FileStore
	opts    Options
	log     logger.Logger

	bytesWritten int64
}

// New creates a downloader sink
func New(fetcher Fetcher, store FileStore, opts Options) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 2 * time.Second
	}
	if opts.BackoffMultiplier < 1 {
		opts.BackoffMultiplier = 2.0
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{fetcher: fetcher, store: store, opts: opts, log: log}
}

// BytesWritten returns the total bytes written this run
func (d *Downloader) BytesWritten() int64 {
	return d.bytesWritten
}

// Store persists one resolved file. Skips are decided before any network
// action; failures are retried per the backoff policy and never leave a
// partial file at the target path.
func (d *Downloader) Store(ctx context.Context, file scraper.ResolvedFile) scraper.Result {
	if d.opts.SkipExisting && d.store.HasContent(file) {
		return scraper.Result{File: file, Status: scraper.StatusSkipped}
	}

	cfg := &retry.Config{
		MaxAttempts: d.opts.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    d.opts.InitialDelay,
			MaxDelay:     time.Minute,
			Multiplier:   d.opts.BackoffMultiplier,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  d.log,
	}

	err := retry.Do(func() error {
		return d.attempt(ctx, file)
	}, cfg)
	if err != nil {
		return scraper.Result{File: file, Status: scraper.StatusFailed, Err: classifyFailure(err)}
	}

	return scraper.Result{File: file, Status: scraper.StatusWritten}
}

// attempt performs one bounded download-and-save
func (d *Downloader) attempt(ctx context.Context, file scraper.ResolvedFile) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	stream, err := d.fetcher.Download(attemptCtx, file.URL)
	if err != nil {
		return err
	}
	defer stream.Close()

	n, err := d.store.Save(file, stream)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeDownloadIO, "failed to write "+d.store.TargetPath(file), err)
	}

	d.bytesWritten += n
	return nil
}

// classifyFailure makes sure a failed result carries a typed error
func classifyFailure(err error) error {
	if errs.TypeOf(err) != errs.ErrorTypeUnknown {
		return err
	}
	return errs.Wrap(errs.ErrorTypeDownloadIO, "download failed", err)
}
