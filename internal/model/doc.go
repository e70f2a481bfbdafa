// Package model defines the core data structures used throughout
// gphoto-get.
//
// # MediaEntry
//
// MediaEntry represents one media item discovered in a shared album:
//
//	entry := model.MediaEntry{ID: "OlxzhFkv", BaseURL: url, Kind: model.KindPhoto}
//
// # ResolvedMedia
//
// ResolvedMedia is an entry annotated with its full-resolution download URL
// and deterministic target filename, ready for the download manager.
//
// # Naming
//
// Namer assigns collision-free local filenames (ID stem + kind extension):
//
//	namer := model.NewNamer()
//	name := namer.NameFor(entry) // "OlxzhFkv.jpg"
//
// # Results
//
// DownloadResult records the per-item outcome of a run, and Summarize folds
// a result slice into the Success/Skipped/Failed counts shown to the user.
package model
