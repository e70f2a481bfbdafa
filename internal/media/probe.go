// Package media inspects downloaded media payloads.
//
// The photo host occasionally answers a media URL with an HTML error page
// or a truncated body while still reporting 200. ProbeImage decodes just
// the image header to catch that before a broken file is moved into place.
//
// Supported formats: jpeg, png, gif plus webp and bmp via golang.org/x/image.
package media

import (
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes a decoded image header.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// ProbeImage decodes the image header of the file at path.
//
// Returns an error when the payload is not a recognizable image, which is
// how a disguised HTML error page or corrupt body is detected.
func ProbeImage(path string) (ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("not a decodable image: %w", err)
	}

	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// VerifyImageFile checks that the file at path holds a decodable image.
func VerifyImageFile(path string) error {
	_, err := ProbeImage(path)
	return err
}
