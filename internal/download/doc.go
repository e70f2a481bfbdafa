// Package download provides the concurrent download engine that turns a
// resolved album manifest into local files.
//
// # Manager
//
// The Manager drains a manifest with a bounded worker pool:
//
//	manager := download.NewManager(settings, client, log, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	results, err := manager.DownloadAll(ctx, resolved, destDir)
//
// # Guarantees
//
//   - Parallelism is bounded by settings.Concurrency.
//   - An existing non-empty target file is skipped without a network call,
//     so re-running against the same destination is idempotent.
//   - Writes go to a uniquely named temp file and are renamed into place
//     atomically; a final-named file is never partially written.
//   - Transient failures (transport errors, 5xx) are retried with
//     exponential backoff; 4xx fails the item immediately.
//   - One item's failure never aborts the others; failures surface in the
//     per-item results.
package download
