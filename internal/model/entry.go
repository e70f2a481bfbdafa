package model

// MediaKind identifies the type of a media item in a shared album.
//
// The kind decides both the local file extension and, more importantly,
// which download suffix the URL resolver appends: requesting a video with
// the photo suffix silently yields a thumbnail instead of the original
// file, so the two kinds must never be conflated.
type MediaKind int

const (
	// KindPhoto is a still image. Entries default to this kind when the
	// album payload carries no definitive video marker.
	KindPhoto MediaKind = iota

	// KindVideo is a video asset.
	KindVideo
)

// Extension returns the local file extension for the media kind, including the dot.
//
// Returns:
//   - ".jpg" for KindPhoto
//   - ".mp4" for KindVideo
func (k MediaKind) Extension() string {
	switch k {
	case KindVideo:
		return ".mp4"
	default:
		return ".jpg"
	}
}

// String returns a human-readable name for the kind.
func (k MediaKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	default:
		return "photo"
	}
}

// MediaEntry represents one media item discovered in a shared album.
//
// Entries are produced only by the manifest extractor and are immutable
// after creation. Within a merged manifest the ID is unique: duplicates
// appearing across pagination pages are dropped, keeping the first
// occurrence.
//
// Example:
//
//	entry := model.MediaEntry{
//	    ID:      "OlxzhFkv",
//	    BaseURL: "https://lh3.googleusercontent.com/pw/ABC123",
//	    Kind:    model.KindPhoto,
//	    Width:   4032,
//	    Height:  3024,
//	}
type MediaEntry struct {
	// ID is the stable item identifier, unique within an album.
	ID string

	// BaseURL is the canonical googleusercontent URL before any
	// size/quality suffix is applied.
	BaseURL string

	// Kind is the media type (photo or video).
	Kind MediaKind

	// Width is the pixel width reported by the album payload, 0 if unknown.
	Width int

	// Height is the pixel height reported by the album payload, 0 if unknown.
	Height int
}

// ResolvedMedia is a MediaEntry annotated with everything the download
// engine needs: the full-resolution download URL and the deterministic
// local filename assigned by the Namer.
type ResolvedMedia struct {
	MediaEntry

	// DownloadURL is the full-resolution URL derived from BaseURL and Kind.
	DownloadURL string

	// SizeHint is the expected file size in bytes, 0 when the album
	// payload does not report one. Used only to strengthen the
	// skip-on-exists check.
	SizeHint int64

	// TargetFilename is the collision-free local filename (no directory).
	// It is deterministic given ID and Kind, which is what makes
	// skip-on-exists re-runs correct.
	TargetFilename string
}
