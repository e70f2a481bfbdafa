package gphotos

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidShareURL is returned when an input URL is not a shared album link.
//
// This typically occurs when:
//   - The URL points at a different host entirely
//   - The URL is a photos.google.com link without the /share/ path
//   - A short link resolved to something other than a shared album
var ErrInvalidShareURL = errors.New("not a shared album URL")

// AlbumReference identifies a publicly shared album. Immutable once
// constructed; construction only succeeds through ParseAlbumURL.
type AlbumReference struct {
	// ShareURL is the full share link, including any auth key query.
	ShareURL string

	// AlbumKey is the opaque album identifier from the share path.
	AlbumKey string
}

var sharePathPattern = regexp.MustCompile(`^/share/([A-Za-z0-9_-]+)`)

// shortLinkHosts are redirect services the share dialog hands out instead
// of the canonical album URL.
var shortLinkHosts = map[string]struct{}{
	"photos.app.goo.gl": {},
	"goo.gl":            {},
}

// ParseAlbumURL constructs an AlbumReference from a canonical share URL.
//
// Accepted shape: https://photos.google.com/share/<albumKey>[?key=...].
// Anything else fails with ErrInvalidShareURL. Short links must be expanded
// first (see Fetcher.ResolveShareURL).
func ParseAlbumURL(raw string) (AlbumReference, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return AlbumReference{}, ErrInvalidShareURL
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return AlbumReference{}, ErrInvalidShareURL
	}
	if u.Host != "photos.google.com" {
		return AlbumReference{}, ErrInvalidShareURL
	}

	m := sharePathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return AlbumReference{}, ErrInvalidShareURL
	}

	return AlbumReference{ShareURL: u.String(), AlbumKey: m[1]}, nil
}

// IsShortShareURL reports whether the URL points at a known share-link
// redirect host (e.g. photos.app.goo.gl) and needs to be resolved before
// it can be parsed.
func IsShortShareURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	_, ok := shortLinkHosts[u.Host]
	return ok
}
