package gphotos

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	httpx "github.com/soralit/gphoto-get/internal/http"
	"github.com/soralit/gphoto-get/internal/model"
)

// PageFetcher retrieves one page of a shared album. Implemented by
// *Fetcher; tests substitute synthetic page sequences.
type PageFetcher interface {
	FetchPage(ctx context.Context, ref AlbumReference, continuationToken string) (string, error)
}

// PaginationError reports that the album could not be fully enumerated:
// a pagination round exhausted its retries.
type PaginationError struct {
	Round int
	Err   error
}

// Error implements the error interface.
func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination failed on round %d: %v", e.Round, e.Err)
}

// Unwrap exposes the underlying fetch error.
func (e *PaginationError) Unwrap() error {
	return e.Err
}

// WalkerOptions tunes pagination behavior. The retry and loop-guard
// thresholds are deliberately configurable; the service contract pins no
// particular value.
type WalkerOptions struct {
	// MaxRetries bounds transient-error retries per pagination round.
	MaxRetries int

	// LoopGuardRounds is the number of consecutive rounds allowed to add
	// zero new entries before the walk stops. Guards against a service
	// returning a non-terminating token loop.
	LoopGuardRounds int

	// RetryCooldown is the base retry delay in seconds; the delay for
	// attempt n is RetryCooldown * RetryExponent^n.
	RetryCooldown float64

	// RetryExponent is the backoff growth factor.
	RetryExponent float64
}

// DefaultWalkerOptions returns the default pagination tuning.
func DefaultWalkerOptions() WalkerOptions {
	return WalkerOptions{
		MaxRetries:      3,
		LoopGuardRounds: 2,
		RetryCooldown:   0.5,
		RetryExponent:   2.0,
	}
}

// Walker drives the page fetcher across continuation tokens until a shared
// album is fully enumerated, merging the per-page entries into a single
// deduplicated manifest.
//
// Pagination is strictly sequential: each round depends on the token from
// the previous one, so there is nothing to parallelize here.
type Walker struct {
	fetcher PageFetcher
	opts    WalkerOptions
	log     zerolog.Logger
}

// NewWalker creates a Walker over the given fetcher.
func NewWalker(fetcher PageFetcher, opts WalkerOptions, log zerolog.Logger) *Walker {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = DefaultWalkerOptions().MaxRetries
	}
	if opts.LoopGuardRounds < 1 {
		opts.LoopGuardRounds = DefaultWalkerOptions().LoopGuardRounds
	}
	return &Walker{fetcher: fetcher, opts: opts, log: log}
}

// Walk enumerates the album and returns the full manifest in discovery
// order, deduplicated by entry ID (first occurrence wins).
//
// Fatal outcomes: ErrManifestParse when a page is not in a recognized
// shape, *PaginationError when a round exhausts its retries.
func (w *Walker) Walk(ctx context.Context, ref AlbumReference) ([]model.MediaEntry, error) {
	var manifest []model.MediaEntry
	seen := make(map[string]struct{})

	token := ""
	staleRounds := 0

	for round := 1; ; round++ {
		page, err := w.fetchWithRetry(ctx, ref, token)
		if err != nil {
			return nil, &PaginationError{Round: round, Err: err}
		}

		entries, nextToken, err := ExtractPage(page)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, entry := range entries {
			if _, dup := seen[entry.ID]; dup {
				continue
			}
			seen[entry.ID] = struct{}{}
			manifest = append(manifest, entry)
			added++
		}

		w.log.Debug().
			Int("round", round).
			Int("page_entries", len(entries)).
			Int("new_entries", added).
			Bool("more", nextToken != "").
			Msg("album page walked")

		if nextToken == "" {
			break
		}

		if added == 0 {
			staleRounds++
			if staleRounds >= w.opts.LoopGuardRounds {
				w.log.Warn().Int("rounds", staleRounds).Msg("token loop guard tripped, stopping walk")
				break
			}
		} else {
			staleRounds = 0
		}

		token = nextToken
	}

	w.log.Info().Int("entries", len(manifest)).Msg("album enumerated")
	return manifest, nil
}

// fetchWithRetry fetches one page, retrying transient errors with
// exponential backoff up to the configured bound.
func (w *Walker) fetchWithRetry(ctx context.Context, ref AlbumReference, token string) (string, error) {
	var lastErr error
	for tries := 0; tries < w.opts.MaxRetries; tries++ {
		page, err := w.fetcher.FetchPage(ctx, ref, token)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !httpx.IsRetryable(err) {
			return "", err
		}
		w.log.Warn().Err(err).Int("attempt", tries+1).Int("max", w.opts.MaxRetries).Msg("page fetch failed, retrying")
		if err := w.waitForRetry(ctx, tries); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (w *Walker) waitForRetry(ctx context.Context, tries int) error {
	cooldown := w.opts.RetryCooldown * math.Pow(w.opts.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
		return nil
	}
}
