package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrStalled reports a download whose body stopped arriving for longer
// than the configured timeout. Stalls are transient connection trouble,
// so IsRetryable treats them like other transport errors.
var ErrStalled = errors.New("download stalled")

// StatusError reports a non-2xx HTTP response.
//
// The status code decides retry policy downstream: 5xx responses are
// transient and retried, 4xx responses are permanent and fail immediately.
type StatusError struct {
	Code   int
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// Retryable reports whether the status is worth retrying (5xx).
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}

// IsRetryable classifies an error as transient. Transport-level failures
// and 5xx responses are retryable; 4xx responses and everything else are
// not. Context cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStalled) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	// Failures before a response, or mid-body, are transport errors.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// Client wraps HTTP operations with the request shape the photo-sharing
// host expects.
//
// Client provides:
//   - A browser-like User-Agent header (the host serves a different page
//     shape to unknown agents)
//   - Timeout handling
//   - Streaming file download to a temporary file with atomic rename
//   - File size retrieval via HEAD requests
//
// The underlying http.Client is scoped to the run rather than held in a
// package-level singleton, so tests can inject a fake transport.
type Client struct {
	// httpClient serves page fetches and HEAD probes, bounded end to end.
	httpClient *http.Client

	// dlClient serves media downloads. A full-resolution video can
	// legitimately stream for longer than any fixed request deadline, so
	// downloads cap time-to-headers and idle time instead of total
	// duration; cancellation still comes from the request context.
	dlClient *http.Client

	userAgent   string
	idleTimeout time.Duration
}

// NewClient creates a Client with its own connection pool.
func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		dlClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: timeout,
			},
		},
		userAgent:   userAgent,
		idleTimeout: timeout,
	}
}

// NewClientWith wraps an existing http.Client. Used by tests to inject a
// fake transport; the stall guard is disabled.
func NewClientWith(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		dlClient:   httpClient,
		userAgent:  userAgent,
	}
}

// ProgressWriter wraps a writer to track download progress.
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns a *StatusError for non-2xx responses.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// GetString performs a GET request and returns the response body as a string.
//
// Convenience wrapper around Get for fetching text content like HTML.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostForm performs a POST with URL-encoded form data and returns the
// response body. Used for continuation requests on paginated album pages.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// ResolveRedirects follows redirects for the given URL and returns the
// final location. A HEAD request is tried first; hosts that reject HEAD
// are retried with GET (the body is discarded).
func (c *Client) ResolveRedirects(ctx context.Context, rawURL string) (string, error) {
	final, err := c.resolveWith(ctx, http.MethodHead, rawURL)
	if err == nil {
		return final, nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return c.resolveWith(ctx, http.MethodGet, rawURL)
	}
	return "", err
}

func (c *Client) resolveWith(ctx context.Context, method, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return resp.Request.URL.String(), nil
}

// GetFileSize returns the size of a file at the given URL via HEAD request.
//
// Returns an error if the server doesn't report a Content-Length.
func (c *Client) GetFileSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("no Content-Length header for %s", url)
	}

	return resp.ContentLength, nil
}

// DownloadFile streams a URL to destPath with an optional progress callback.
//
// The content is first written to a uniquely named temporary file in the
// destination directory and only renamed into place once the body has been
// fully copied. The final name therefore never holds a partially-written
// file; a cancelled or failed download leaves at most one temp file, which
// is removed before returning.
//
// The optional verify callback inspects the fully downloaded bytes (via the
// temp file path) before the rename; returning an error aborts the move.
//
// There is no deadline on the body as a whole: a download fails only when
// no data arrives for the idle timeout (ErrStalled), so slow-but-moving
// streams of any length complete.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64), verify func(tmpPath string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.dlClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	tmpPath := filepath.Join(filepath.Dir(destPath), fmt.Sprintf(".%s.%s.tmp", filepath.Base(destPath), uuid.NewString()))
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	// The watchdog cancels the request when the body makes no progress
	// for idleTimeout; each write pushes the deadline out again.
	var stalled atomic.Bool
	if c.idleTimeout > 0 {
		watchdog := time.AfterFunc(c.idleTimeout, func() {
			stalled.Store(true)
			cancel()
		})
		defer watchdog.Stop()
		writer = &stallGuard{w: writer, timer: watchdog, d: c.idleTimeout}
	}

	if _, err = io.Copy(writer, resp.Body); err != nil {
		file.Close()
		os.Remove(tmpPath)
		if stalled.Load() {
			return fmt.Errorf("no data received for %s: %w", c.idleTimeout, ErrStalled)
		}
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if verify != nil {
		if err = verify(tmpPath); err != nil {
			os.Remove(tmpPath)
			return err
		}
	}

	if err = os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// stallGuard resets an inactivity timer on every write, so that only a
// download making no progress at all trips the watchdog.
type stallGuard struct {
	w     io.Writer
	timer *time.Timer
	d     time.Duration
}

func (s *stallGuard) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if n > 0 {
		s.timer.Reset(s.d)
	}
	return n, err
}
