package media

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}

	path := filepath.Join(dir, "test.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test png: %v", err)
	}
	return path
}

func TestProbeImage(t *testing.T) {
	path := writePNG(t, t.TempDir(), 12, 7)

	info, err := ProbeImage(path)
	if err != nil {
		t.Fatalf("ProbeImage: %v", err)
	}
	if info.Format != "png" {
		t.Errorf("Format = %q, want %q", info.Format, "png")
	}
	if info.Width != 12 || info.Height != 7 {
		t.Errorf("dimensions = %dx%d, want 12x7", info.Width, info.Height)
	}
}

func TestVerifyImageFile_RejectsHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.jpg")
	if err := os.WriteFile(path, []byte("<html><body>rate limited</body></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := VerifyImageFile(path); err == nil {
		t.Error("expected error for HTML payload, got nil")
	}
}
