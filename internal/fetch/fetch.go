// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
)

const (
	// PartialSuffix is appended to the sanitized name for the in-progress file.
	PartialSuffix = ".partial"
	// LockSuffix is appended to the sanitized name for the fetch lock file.
	LockSuffix = ".lock"

	defaultLockTimeout = 30 * time.Second
	lockRetryInterval  = 100 * time.Millisecond
	chunkSize          = 32 << 10
	maxRedirects       = 10
)

// Failure categories. Every error returned by Fetch wraps exactly one.
var (
	// ErrPrepareFailed covers the target directory, lock and temp file setup.
	ErrPrepareFailed = errors.New("preparing download failed")
	// ErrTransport covers request construction, connection and body read errors.
	ErrTransport = errors.New("download transport failed")
	// ErrBadStatus is wrapped by StatusError for non-2xx responses.
	ErrBadStatus = errors.New("download returned an error status")
	// ErrWriteFailed covers writing, syncing and closing the temp file.
	ErrWriteFailed = errors.New("writing download failed")
	// ErrPersistFailed is returned when the temp file cannot be renamed into place.
	ErrPersistFailed = errors.New("saving download failed")
)

// renameFile is a test seam for the final rename.
var renameFile = os.Rename

type (
	// Fetcher downloads artifacts atomically. The zero value is not usable;
	// construct one with New.
	Fetcher struct {
		client         *http.Client
		userAgent      string
		lockTimeout    time.Duration
		redirectPolicy RedirectPolicy
		logger         *log.Logger
	}

	// RedirectPolicy vets each redirect target before it is followed. A
	// non-nil error aborts the fetch and is wrapped in the returned error.
	RedirectPolicy func(target *url.URL) error

	// Option configures a Fetcher.
	Option func(*Fetcher)

	// Artifact describes a completed download.
	Artifact struct {
		// FinalPath is the destination the installer may open.
		FinalPath string
		// TempPath is where bytes were staged; it no longer exists once Fetch returns.
		TempPath string
		// Size is the number of bytes written.
		Size int64
	}

	// StatusError is returned when the server answers with a non-2xx status.
	StatusError struct {
		StatusCode int
		URL        string
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("download failed with HTTP %d from %s", e.StatusCode, e.URL)
}

// Unwrap returns ErrBadStatus so callers can match with errors.Is.
func (e *StatusError) Unwrap() error { return ErrBadStatus }

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLockTimeout bounds how long Fetch waits for another fetch of the
// same file name to finish.
func WithLockTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.lockTimeout = d
		}
	}
}

// WithRedirectPolicy sets the check applied to every redirect target.
// Without one, redirects are followed to any host.
func WithRedirectPolicy(p RedirectPolicy) Option {
	return func(f *Fetcher) {
		f.redirectPolicy = p
	}
}

// WithLogger sets the logger for progress and cleanup diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher. Without options it uses http.DefaultClient, sends
// no User-Agent override, and logs nothing.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      http.DefaultClient,
		lockTimeout: defaultLockTimeout,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}

	// Work on a copy so a shared client is not modified.
	client := *f.client
	client.CheckRedirect = f.checkRedirect(client.CheckRedirect)
	f.client = &client

	return f
}

// checkRedirect logs each hop and applies the redirect policy before next,
// the client's own check. With no next check the redirect chain is capped
// at maxRedirects, as net/http does by default.
func (f *Fetcher) checkRedirect(next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		f.logger.Debug("following redirect", "from", via[len(via)-1].URL.Hostname(), "to", req.URL.Hostname())

		if f.redirectPolicy != nil {
			if err := f.redirectPolicy(req.URL); err != nil {
				return err
			}
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
}

// Fetch downloads u into targetDir under SanitizeFileName(rawName).
//
// On success the returned Artifact's FinalPath holds the full response body
// and the staging file is gone. On failure neither the staging file nor any
// final file remains: a file left under the same name by an earlier fetch is
// removed too, so a failed download never leaves a stale package behind.
func (f *Fetcher) Fetch(ctx context.Context, u *url.URL, targetDir, rawName string) (_ *Artifact, err error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil URL", ErrTransport)
	}

	name := SanitizeFileName(rawName)
	finalPath := filepath.Join(targetDir, name)
	tempPath := finalPath + PartialSuffix

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", ErrPrepareFailed, targetDir, err)
	}

	unlock, err := f.lock(ctx, finalPath+LockSuffix)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Registered after unlock so it runs while the lock is still held.
	defer func() {
		if err != nil {
			f.removeStale(finalPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	f.logger.Debug("downloading", "host", u.Hostname(), "file", name)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: redactURL(u)}
	}

	tmp, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", ErrPrepareFailed, tempPath, err)
	}

	// Track whether the rename succeeded so the deferred cleanup knows
	// whether to remove the staging file.
	renamed := false
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if !renamed {
			if rmErr := os.Remove(tempPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				f.logger.Warn("could not remove partial download", "path", tempPath, "err", rmErr)
			}
		}
	}()

	size, err := copyChunks(tmp, resp.Body)
	if err != nil {
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("%w: syncing %s: %w", ErrWriteFailed, tempPath, err)
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing %s: %w", ErrWriteFailed, tempPath, err)
	}

	if err := renameFile(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	renamed = true

	f.logger.Debug("download complete", "path", finalPath, "bytes", size)

	return &Artifact{FinalPath: finalPath, TempPath: tempPath, Size: size}, nil
}

// removeStale deletes a final file left by an earlier fetch.
func (f *Fetcher) removeStale(finalPath string) {
	err := os.Remove(finalPath)
	switch {
	case err == nil:
		f.logger.Debug("removed stale download", "path", finalPath)
	case !errors.Is(err, os.ErrNotExist):
		f.logger.Warn("could not remove stale download", "path", finalPath, "err", err)
	}
}

// copyChunks streams src into dst, keeping read and write failures apart so
// that callers can tell a dropped connection from a full disk.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				return written, fmt.Errorf("%w: %w", ErrWriteFailed, writeErr)
			}
			if w != n {
				return written, fmt.Errorf("%w: %w", ErrWriteFailed, io.ErrShortWrite)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("%w: reading body: %w", ErrTransport, readErr)
		}
	}
}

// lock acquires the per-name file lock and returns its release function.
func (f *Fetcher) lock(ctx context.Context, lockPath string) (func(), error) {
	fileLock := flock.New(lockPath)

	lockCtx, cancel := context.WithTimeout(ctx, f.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring %s: %w", ErrPrepareFailed, lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: another download of %s is in progress", ErrPrepareFailed, filepath.Base(lockPath))
	}

	return func() {
		// The lock file stays on disk: unlinking it would let a waiter lock
		// an orphaned inode while a newcomer creates a fresh one.
		if err := fileLock.Unlock(); err != nil {
			f.logger.Warn("failed to release download lock", "path", lockPath, "err", err)
		}
	}, nil
}

// redactURL strips credentials and query parameters, which often carry
// signed download tokens, from a URL before it is shown to the user.
func redactURL(u *url.URL) string {
	redacted := *u
	redacted.User = nil
	redacted.RawQuery = ""
	redacted.Fragment = ""
	return redacted.String()
}
