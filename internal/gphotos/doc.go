// Package gphotos resolves shared Google Photos albums into a manifest of
// downloadable media.
//
// The package handles four concerns:
//
//  1. Validating share URLs and expanding short links (AlbumReference)
//  2. Fetching album pages and pagination continuations (Fetcher)
//  3. Extracting media entries from the embedded script payload (ExtractPage)
//  4. Walking continuation tokens into one deduplicated manifest (Walker)
//
// # Page format
//
// The shared-album page embeds its media listing inside script blocks
// calling AF_initDataCallback rather than in plain HTML. ExtractPage is the
// single place that knows this format; when the service changes its page
// layout, this package is the only one that needs to follow.
//
// # Typical pipeline
//
//	fetcher := gphotos.NewFetcher(client, log)
//	ref, err := fetcher.ResolveShareURL(ctx, inputURL)
//	if err != nil {
//	    return err
//	}
//	walker := gphotos.NewWalker(fetcher, gphotos.DefaultWalkerOptions(), log)
//	manifest, err := walker.Walk(ctx, ref)
//	if err != nil {
//	    return err
//	}
//	resolved := gphotos.ResolveAll(manifest)
package gphotos
