package gphotos

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	httpx "github.com/soralit/gphoto-get/internal/http"
)

// continuationField is the form field carrying the pagination cursor on
// continuation POSTs.
const continuationField = "continuation"

// Fetcher retrieves shared-album pages over HTTP.
//
// The first page is a plain GET of the share URL; subsequent pages are
// POSTs carrying the continuation token. The Fetcher does no retrying of
// its own; the Walker owns retry policy so that pagination failures stay
// distinguishable from media download failures.
type Fetcher struct {
	client *httpx.Client
	log    zerolog.Logger
}

// NewFetcher creates a Fetcher on top of the given HTTP client.
func NewFetcher(client *httpx.Client, log zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// ResolveShareURL expands and validates user input into an AlbumReference.
//
// Canonical share URLs are parsed directly without touching the network.
// Short links (photos.app.goo.gl) are expanded by following redirects
// first. Anything else fails with ErrInvalidShareURL.
func (f *Fetcher) ResolveShareURL(ctx context.Context, raw string) (AlbumReference, error) {
	if ref, err := ParseAlbumURL(raw); err == nil {
		return ref, nil
	}

	if !IsShortShareURL(raw) {
		return AlbumReference{}, fmt.Errorf("%w: %s", ErrInvalidShareURL, raw)
	}

	f.log.Debug().Str("url", raw).Msg("resolving short share link")
	final, err := f.client.ResolveRedirects(ctx, raw)
	if err != nil {
		return AlbumReference{}, fmt.Errorf("resolving short link %s: %w", raw, err)
	}
	f.log.Debug().Str("url", final).Msg("short link resolved")

	ref, err := ParseAlbumURL(final)
	if err != nil {
		return AlbumReference{}, fmt.Errorf("%w: %s resolved to %s", ErrInvalidShareURL, raw, final)
	}
	return ref, nil
}

// FetchPage retrieves one page of the album. An empty continuation token
// requests the first page.
func (f *Fetcher) FetchPage(ctx context.Context, ref AlbumReference, continuationToken string) (string, error) {
	if continuationToken == "" {
		f.log.Debug().Str("album", ref.AlbumKey).Msg("fetching first album page")
		return f.client.GetString(ctx, ref.ShareURL)
	}

	f.log.Debug().Str("album", ref.AlbumKey).Msg("fetching continuation page")
	body, err := f.client.PostForm(ctx, ref.ShareURL, url.Values{
		continuationField: {continuationToken},
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}
