package gphotos

import (
	"fmt"
	"strings"

	"github.com/soralit/gphoto-get/internal/model"
)

// Download suffixes appended to a media base URL. The distinction is
// load-bearing: requesting a video with the photo suffix yields a
// thumbnail transcode instead of the original file.
const (
	// photoOriginalSuffix requests the original photo bytes when the
	// manifest carries no dimensions.
	photoOriginalSuffix = "=d"

	// videoDownloadSuffix requests the original video download rather
	// than a preview transcode.
	videoDownloadSuffix = "=dv"
)

// Resolve converts a MediaEntry into a ResolvedMedia carrying the
// full-resolution download URL and the target filename from the namer.
//
// Pure: no I/O, and deterministic for a given entry and namer state.
func Resolve(entry model.MediaEntry, namer *model.Namer) model.ResolvedMedia {
	base := stripSizeSuffix(entry.BaseURL)

	var downloadURL string
	switch entry.Kind {
	case model.KindVideo:
		downloadURL = base + videoDownloadSuffix
	default:
		if entry.Width > 0 && entry.Height > 0 {
			downloadURL = base + fmt.Sprintf("=w%d-h%d", entry.Width, entry.Height)
		} else {
			downloadURL = base + photoOriginalSuffix
		}
	}

	return model.ResolvedMedia{
		MediaEntry:     entry,
		DownloadURL:    downloadURL,
		TargetFilename: namer.NameFor(entry),
	}
}

// ResolveAll resolves a full manifest with a fresh namer, preserving
// manifest order.
func ResolveAll(entries []model.MediaEntry) []model.ResolvedMedia {
	namer := model.NewNamer()
	resolved := make([]model.ResolvedMedia, 0, len(entries))
	for _, entry := range entries {
		resolved = append(resolved, Resolve(entry, namer))
	}
	return resolved
}

// stripSizeSuffix removes an existing =size suffix from a base URL so the
// download suffix is never stacked on top of a thumbnail spec.
func stripSizeSuffix(rawURL string) string {
	slash := strings.LastIndex(rawURL, "/")
	if eq := strings.LastIndex(rawURL, "="); eq > slash {
		return rawURL[:eq]
	}
	return rawURL
}
