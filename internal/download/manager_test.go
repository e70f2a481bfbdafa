package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/soralit/gphoto-get/internal/config"
	httpx "github.com/soralit/gphoto-get/internal/http"
	"github.com/soralit/gphoto-get/internal/model"
)

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.Concurrency = 2
	s.MaxRetries = 3
	s.RetryCooldown = 0 // no sleeping in tests
	return s
}

func newManager(s *config.Settings) *Manager {
	client := httpx.NewClient("gphoto-get-test", 5*time.Second)
	return NewManager(s, client, zerolog.Nop(), nil)
}

func resolvedItem(id, url string, kind model.MediaKind) model.ResolvedMedia {
	return model.ResolvedMedia{
		MediaEntry:     model.MediaEntry{ID: id, BaseURL: url, Kind: kind},
		DownloadURL:    url,
		TargetFilename: id + kind.Extension(),
	}
}

// mediaServer serves fixed content per path and counts requests.
type mediaServer struct {
	mu       sync.Mutex
	requests map[string]int
	status   map[string]int
	srv      *httptest.Server
}

func newMediaServer() *mediaServer {
	ms := &mediaServer{
		requests: make(map[string]int),
		status:   make(map[string]int),
	}
	ms.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.mu.Lock()
		ms.requests[r.URL.Path]++
		code := ms.status[r.URL.Path]
		ms.mu.Unlock()

		if code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		body := fmt.Sprintf("content-of-%s", r.URL.Path)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method != http.MethodHead {
			w.Write([]byte(body))
		}
	}))
	return ms
}

func (ms *mediaServer) count(path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requests[path]
}

func TestDownloadAll_EndToEnd(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()

	items := []model.ResolvedMedia{
		resolvedItem("photo1", ms.srv.URL+"/p1", model.KindPhoto),
		resolvedItem("photo2", ms.srv.URL+"/p2", model.KindPhoto),
		resolvedItem("video1", ms.srv.URL+"/v1", model.KindVideo),
	}

	dir := t.TempDir()
	results, err := newManager(testSettings()).DownloadAll(context.Background(), items, dir)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}

	summary := model.Summarize(results)
	if summary.Success != 3 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 3 successes", summary)
	}

	wantFiles := []string{"photo1.jpg", "photo2.jpg", "video1.mp4"}
	for _, name := range wantFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing downloaded file %s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != len(wantFiles) {
		t.Errorf("destination has %d entries, want %d (no temp files)", len(entries), len(wantFiles))
	}
}

func TestDownloadAll_SecondRunSkips(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()

	items := []model.ResolvedMedia{
		resolvedItem("photo1", ms.srv.URL+"/p1", model.KindPhoto),
		resolvedItem("photo2", ms.srv.URL+"/p2", model.KindPhoto),
	}

	dir := t.TempDir()
	manager := newManager(testSettings())

	if _, err := manager.DownloadAll(context.Background(), items, dir); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstCounts := ms.count("/p1") + ms.count("/p2")

	results, err := manager.DownloadAll(context.Background(), items, dir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	summary := model.Summarize(results)
	if summary.Skipped != 2 || summary.Success != 0 {
		t.Errorf("second run summary = %+v, want all skipped", summary)
	}
	if got := ms.count("/p1") + ms.count("/p2"); got != firstCounts {
		t.Errorf("second run made %d extra requests, want zero", got-firstCounts)
	}
}

func TestDownloadAll_ServerErrorRetriedThenFailed(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()
	ms.status["/broken"] = http.StatusInternalServerError

	settings := testSettings()
	items := []model.ResolvedMedia{
		resolvedItem("broken1", ms.srv.URL+"/broken", model.KindPhoto),
		resolvedItem("good1", ms.srv.URL+"/good", model.KindPhoto),
	}

	results, err := newManager(settings).DownloadAll(context.Background(), items, t.TempDir())
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}

	if results[0].Outcome != model.OutcomeFailed {
		t.Errorf("broken item outcome = %v, want failed", results[0].Outcome)
	}
	if results[0].Reason == nil {
		t.Error("failed item should carry a reason")
	}
	if got := ms.count("/broken"); got != settings.MaxRetries {
		t.Errorf("500 item requested %d times, want %d (retried to bound)", got, settings.MaxRetries)
	}

	// The failure must not abort the other item.
	if results[1].Outcome != model.OutcomeSuccess {
		t.Errorf("good item outcome = %v, want success", results[1].Outcome)
	}
}

func TestDownloadAll_NotFoundFailsWithoutRetry(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()
	ms.status["/gone"] = http.StatusNotFound

	items := []model.ResolvedMedia{
		resolvedItem("gone1", ms.srv.URL+"/gone", model.KindPhoto),
	}

	results, err := newManager(testSettings()).DownloadAll(context.Background(), items, t.TempDir())
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}

	if results[0].Outcome != model.OutcomeFailed {
		t.Errorf("outcome = %v, want failed", results[0].Outcome)
	}
	if got := ms.count("/gone"); got != 1 {
		t.Errorf("404 item requested %d times, want exactly 1 (zero retries)", got)
	}
}

func TestDownloadAll_SizeHintMismatchRedownloads(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()

	item := resolvedItem("photo1", ms.srv.URL+"/p1", model.KindPhoto)
	item.SizeHint = 10_000 // far larger than the stub content

	dir := t.TempDir()
	// Seed a stale partial file under the final name.
	if err := os.WriteFile(filepath.Join(dir, item.TargetFilename), []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := newManager(testSettings()).DownloadAll(context.Background(), []model.ResolvedMedia{item}, dir)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if results[0].Outcome != model.OutcomeSuccess {
		t.Errorf("outcome = %v, want success (stale file replaced)", results[0].Outcome)
	}
	if got := ms.count("/p1"); got != 1 {
		t.Errorf("requested %d times, want 1", got)
	}
}

func TestDownloadAll_ZeroRetriesStillAttemptsOnce(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()

	// Unvalidated settings can carry MaxRetries = 0; success must still
	// mean a real fetch happened.
	settings := testSettings()
	settings.MaxRetries = 0

	items := []model.ResolvedMedia{
		resolvedItem("photo1", ms.srv.URL+"/p1", model.KindPhoto),
	}

	dir := t.TempDir()
	results, err := newManager(settings).DownloadAll(context.Background(), items, dir)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}

	if results[0].Outcome != model.OutcomeSuccess {
		t.Fatalf("outcome = %v, want success", results[0].Outcome)
	}
	if got := ms.count("/p1"); got != 1 {
		t.Errorf("requested %d times, want exactly 1", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "photo1.jpg")); err != nil {
		t.Errorf("success must leave the file on disk: %v", err)
	}
}

func TestPrefetchSizes(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()

	items := []model.ResolvedMedia{
		resolvedItem("photo1", ms.srv.URL+"/p1", model.KindPhoto),
		resolvedItem("video1", ms.srv.URL+"/v1", model.KindVideo),
	}

	total := newManager(testSettings()).PrefetchSizes(context.Background(), items)

	wantP1 := int64(len("content-of-/p1"))
	wantV1 := int64(len("content-of-/v1"))
	if items[0].SizeHint != wantP1 {
		t.Errorf("photo SizeHint = %d, want %d", items[0].SizeHint, wantP1)
	}
	if items[1].SizeHint != wantV1 {
		t.Errorf("video SizeHint = %d, want %d", items[1].SizeHint, wantV1)
	}
	if total != wantP1+wantV1 {
		t.Errorf("total = %d, want %d", total, wantP1+wantV1)
	}
}

func TestPrefetchSizes_HintGatesSkipCheck(t *testing.T) {
	ms := newMediaServer()
	defer ms.srv.Close()

	items := []model.ResolvedMedia{
		resolvedItem("photo1", ms.srv.URL+"/p1", model.KindPhoto),
	}

	dir := t.TempDir()
	manager := newManager(testSettings())

	if _, err := manager.DownloadAll(context.Background(), items, dir); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// With an accurate hint the second run trusts the file on disk.
	manager.PrefetchSizes(context.Background(), items)
	results, err := manager.DownloadAll(context.Background(), items, dir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if results[0].Outcome != model.OutcomeSkipped {
		t.Errorf("outcome = %v, want skipped when size matches hint", results[0].Outcome)
	}
}

func TestDownloadAll_Cancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	var items []model.ResolvedMedia
	for i := 0; i < 6; i++ {
		items = append(items, resolvedItem(fmt.Sprintf("item%d", i), srv.URL, model.KindPhoto))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	dir := t.TempDir()
	results, err := newManager(testSettings()).DownloadAll(ctx, items, dir)
	if err == nil {
		t.Error("expected a cancellation error")
	}

	summary := model.Summarize(results)
	if summary.Success != 0 {
		t.Errorf("summary = %+v, want no successes after cancellation", summary)
	}

	// No final-named file may exist, corrupt or otherwise.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".tmp" {
			t.Errorf("unexpected final-named file after cancellation: %s", e.Name())
		}
	}
}
