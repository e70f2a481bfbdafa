// Package http provides the HTTP client used for album pages and media
// downloads.
//
// The Client in this package handles:
//   - Browser-like User-Agent headers required by the photo-sharing host
//   - Redirect resolution for short share links
//   - Form POSTs for pagination continuation requests
//   - Streaming downloads to a temp file with atomic rename into place
//   - File size retrieval via HEAD requests
//
// # Error classification
//
// Non-2xx responses are returned as *StatusError; IsRetryable distinguishes
// transient failures (transport errors, 5xx) from permanent ones (4xx):
//
//	if err != nil && !httpx.IsRetryable(err) {
//	    return err // do not retry
//	}
//
// # Basic usage
//
//	client := httpx.NewClient(userAgent, 60*time.Second)
//	html, err := client.GetString(ctx, shareURL)
package http
