package gphotos

import (
	"strings"
	"testing"

	"github.com/soralit/gphoto-get/internal/model"
)

func TestResolve_PhotoUsesMaxSizeSuffix(t *testing.T) {
	entry := model.MediaEntry{
		ID:      "AAAA1111",
		BaseURL: "https://lh3.googleusercontent.com/pw/p1",
		Kind:    model.KindPhoto,
		Width:   4032,
		Height:  3024,
	}

	resolved := Resolve(entry, model.NewNamer())

	if resolved.DownloadURL != "https://lh3.googleusercontent.com/pw/p1=w4032-h3024" {
		t.Errorf("DownloadURL = %q, want max-size suffix", resolved.DownloadURL)
	}
	if resolved.TargetFilename != "AAAA1111.jpg" {
		t.Errorf("TargetFilename = %q, want %q", resolved.TargetFilename, "AAAA1111.jpg")
	}
}

func TestResolve_PhotoWithoutDimensions(t *testing.T) {
	entry := model.MediaEntry{
		ID:      "AAAA1111",
		BaseURL: "https://lh3.googleusercontent.com/pw/p1",
		Kind:    model.KindPhoto,
	}

	resolved := Resolve(entry, model.NewNamer())
	if resolved.DownloadURL != "https://lh3.googleusercontent.com/pw/p1=d" {
		t.Errorf("DownloadURL = %q, want original-bytes suffix", resolved.DownloadURL)
	}
}

func TestResolve_VideoUsesDownloadSuffix(t *testing.T) {
	entry := model.MediaEntry{
		ID:      "BBBB2222",
		BaseURL: "https://lh3.googleusercontent.com/pw/v1",
		Kind:    model.KindVideo,
		Width:   1920,
		Height:  1080,
	}

	resolved := Resolve(entry, model.NewNamer())

	if resolved.DownloadURL != "https://lh3.googleusercontent.com/pw/v1=dv" {
		t.Errorf("DownloadURL = %q, want video download suffix", resolved.DownloadURL)
	}
	// A video must never receive the photo size suffix: that would yield
	// a thumbnail instead of the original file.
	if strings.Contains(resolved.DownloadURL, "=w") {
		t.Errorf("video DownloadURL %q carries a photo size suffix", resolved.DownloadURL)
	}
	if resolved.TargetFilename != "BBBB2222.mp4" {
		t.Errorf("TargetFilename = %q, want %q", resolved.TargetFilename, "BBBB2222.mp4")
	}
}

func TestResolve_StripsExistingSizeSuffix(t *testing.T) {
	entry := model.MediaEntry{
		ID:      "CCCC3333",
		BaseURL: "https://lh3.googleusercontent.com/pw/p2=w360-h240",
		Kind:    model.KindPhoto,
		Width:   800,
		Height:  600,
	}

	resolved := Resolve(entry, model.NewNamer())
	if resolved.DownloadURL != "https://lh3.googleusercontent.com/pw/p2=w800-h600" {
		t.Errorf("DownloadURL = %q, thumbnail suffix should be replaced", resolved.DownloadURL)
	}
}

func TestResolveAll_Deterministic(t *testing.T) {
	entries := []model.MediaEntry{
		{ID: "AAAA1111", BaseURL: "https://lh3.googleusercontent.com/pw/p1", Kind: model.KindPhoto, Width: 10, Height: 10},
		{ID: "BBBB2222", BaseURL: "https://lh3.googleusercontent.com/pw/v1", Kind: model.KindVideo},
	}

	first := ResolveAll(entries)
	second := ResolveAll(entries)

	if len(first) != len(entries) {
		t.Fatalf("ResolveAll returned %d items, want %d", len(first), len(entries))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("ResolveAll not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
