package download

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/soralit/gphoto-get/internal/config"
	httpx "github.com/soralit/gphoto-get/internal/http"
	"github.com/soralit/gphoto-get/internal/media"
	"github.com/soralit/gphoto-get/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Manager schedules concurrent downloads of resolved media to local files.
//
// Parallelism is bounded by the configured concurrency; transient failures
// are retried with exponential backoff; items whose target file already
// exists are skipped without a network call, which makes re-runs
// idempotent. One item's failure never aborts the others.
type Manager struct {
	settings   *config.Settings
	client     *httpx.Client
	log        zerolog.Logger
	onProgress func(ProgressEvent)

	totalFiles    int32
	doneFiles     int32
	receivedBytes int64
}

// NewManager creates a download Manager.
//
// onProgress may be nil; when set it receives human-readable events for
// the UI layer, in addition to the structured log.
func NewManager(settings *config.Settings, client *httpx.Client, log zerolog.Logger, onProgress func(ProgressEvent)) *Manager {
	return &Manager{
		settings:   settings,
		client:     client,
		log:        log,
		onProgress: onProgress,
	}
}

// GetProgress returns current download progress for polling UIs.
func (m *Manager) GetProgress() (filesDone, filesTotal int32, receivedBytes int64) {
	return atomic.LoadInt32(&m.doneFiles), atomic.LoadInt32(&m.totalFiles),
		atomic.LoadInt64(&m.receivedBytes)
}

// PrefetchSizes fills each item's SizeHint with the Content-Length from a
// HEAD request and returns the sum of all known sizes.
//
// Hints arm the size-tolerance branch of the skip check and give UIs an
// expected-byte total. Probing is best-effort: an item whose size cannot
// be determined keeps a zero hint and is still downloaded normally.
func (m *Manager) PrefetchSizes(ctx context.Context, items []model.ResolvedMedia) int64 {
	sizes := make([]int64, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.Concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			size, err := m.client.GetFileSize(gctx, item.DownloadURL)
			if err != nil {
				m.log.Debug().Err(err).Str("id", item.ID).Msg("size probe failed")
				return nil
			}
			sizes[i] = size
			return nil
		})
	}
	g.Wait()

	var total int64
	for i := range items {
		items[i].SizeHint = sizes[i]
		total += sizes[i]
	}
	return total
}

// DownloadAll fetches every item into destDir and reports per-item results
// in manifest order.
//
// The returned error is non-nil only for run-level conditions (destination
// not creatable, context cancelled); per-item failures are recorded in the
// results instead.
func (m *Manager) DownloadAll(ctx context.Context, items []model.ResolvedMedia, destDir string) ([]model.DownloadResult, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	atomic.StoreInt32(&m.totalFiles, int32(len(items)))
	atomic.StoreInt32(&m.doneFiles, 0)

	results := make([]model.DownloadResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.Concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			// Cancellation stops issuing new work; items never started
			// are reported as failed with the cancellation cause.
			if err := gctx.Err(); err != nil {
				results[i] = model.DownloadResult{Entry: item, Outcome: model.OutcomeFailed, Reason: err}
				return nil
			}
			results[i] = m.downloadOne(gctx, item, destDir)
			atomic.AddInt32(&m.doneFiles, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// downloadOne handles a single item: skip check, retried fetch, result.
func (m *Manager) downloadOne(ctx context.Context, item model.ResolvedMedia, destDir string) model.DownloadResult {
	target := filepath.Join(destDir, item.TargetFilename)

	if m.alreadyDownloaded(item, target) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", item.TargetFilename), Level: LevelVerbose})
		m.log.Debug().Str("id", item.ID).Str("file", item.TargetFilename).Msg("already downloaded, skipping")
		return model.DownloadResult{Entry: item, Outcome: model.OutcomeSkipped}
	}

	// Attempts are floored at one even if a caller hands over unvalidated
	// settings; a zero-attempt loop would report success without fetching.
	attempts := m.settings.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for tries := 0; tries < attempts; tries++ {
		err = m.fetchToFile(ctx, item, target)
		if err == nil {
			break
		}
		if !httpx.IsRetryable(err) {
			break
		}
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Retry %d/%d for %s: %v", tries+1, attempts, item.ID, err),
			Level:   LevelWarning,
		})
		m.log.Warn().Err(err).Str("id", item.ID).Int("attempt", tries+1).Msg("download failed, retrying")
		if waitErr := m.waitForRetry(ctx, tries); waitErr != nil {
			err = waitErr
			break
		}
	}

	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Failed %s: %v", item.ID, err), Level: LevelError})
		m.log.Error().Err(err).Str("id", item.ID).Msg("download failed")
		return model.DownloadResult{Entry: item, Outcome: model.OutcomeFailed, Reason: err}
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", item.TargetFilename), Level: LevelVerbose})
	m.log.Debug().Str("id", item.ID).Str("file", item.TargetFilename).Msg("downloaded")
	return model.DownloadResult{Entry: item, Outcome: model.OutcomeSuccess}
}

// alreadyDownloaded reports whether the target file can be trusted without
// a network call: non-empty, and within the configured size tolerance when
// the manifest carries a size hint.
func (m *Manager) alreadyDownloaded(item model.ResolvedMedia, target string) bool {
	info, err := os.Stat(target)
	if err != nil || info.Size() == 0 {
		return false
	}

	if item.SizeHint > 0 {
		diff := float64(info.Size()-item.SizeHint) / float64(item.SizeHint)
		return math.Abs(diff) <= m.settings.AllowedFileSizeDifference
	}
	return true
}

// fetchToFile streams one download to its final name via a temp file.
func (m *Manager) fetchToFile(ctx context.Context, item model.ResolvedMedia, target string) error {
	var lastWritten int64
	onProgress := func(written, total int64) {
		atomic.AddInt64(&m.receivedBytes, written-lastWritten)
		lastWritten = written
	}

	var verify func(string) error
	if m.settings.VerifyImages && item.Kind == model.KindPhoto {
		verify = media.VerifyImageFile
	}

	return m.client.DownloadFile(ctx, item.DownloadURL, target, onProgress, verify)
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) error {
	cooldown := m.settings.RetryCooldown * math.Pow(m.settings.RetryExponent, float64(tries))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
		return nil
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
