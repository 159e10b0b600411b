package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsync/internal/domain"
	"factsync/internal/source/check"
)

type fakePostReader struct {
	posts []domain.Post
	total int
	err   error

	lastSince time.Time
}

func (f *fakePostReader) List(_ context.Context, limit, offset int) ([]domain.Post, int, error) {
	return f.posts, f.total, f.err
}

func (f *fakePostReader) CountAll(context.Context) (int, error) {
	return f.total, f.err
}

func (f *fakePostReader) ListUpdatedSince(_ context.Context, since time.Time) ([]domain.Post, error) {
	f.lastSince = since
	return f.posts, f.err
}

type fakeSyncRunner struct {
	stats  *domain.SyncStats
	err    error
	status domain.SyncStatusSnapshot
	synced int
}

func (f *fakeSyncRunner) Sync(context.Context) (*domain.SyncStats, error) {
	f.synced++
	return f.stats, f.err
}

func (f *fakeSyncRunner) Status() domain.SyncStatusSnapshot {
	return f.status
}

type fakeProber struct {
	probe check.ProbeResult
	stats *check.Statistics
	err   error
}

func (f *fakeProber) TestConnection(context.Context) check.ProbeResult {
	return f.probe
}

func (f *fakeProber) FetchStatistics(context.Context) (*check.Statistics, error) {
	return f.stats, f.err
}

func newTestRouter(posts *fakePostReader, syncer *fakeSyncRunner, prober *fakeProber) http.Handler {
	return NewRouter(Deps{
		Posts:    posts,
		Syncer:   syncer,
		Prober:   prober,
		Gatherer: prometheus.NewRegistry(),
		Logger:   slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	})
}

func doRequest(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListPosts(t *testing.T) {
	posts := &fakePostReader{
		posts: []domain.Post{{ExternalID: 42, Claim: "a claim", Status: domain.StatusFalse}},
		total: 1,
	}
	router := newTestRouter(posts, &fakeSyncRunner{}, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/posts?limit=10&offset=0")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Posts  []domain.Post `json:"posts"`
		Total  int           `json:"total"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Posts, 1)
	assert.Equal(t, int64(42), body.Posts[0].ExternalID)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, 10, body.Limit)
}

func TestListPosts_ClampsOutOfRangeLimit(t *testing.T) {
	posts := &fakePostReader{}
	router := newTestRouter(posts, &fakeSyncRunner{}, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/posts?limit=99999")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(defaultListLimit), body["limit"])
}

func TestRecentPosts_RejectsBadSince(t *testing.T) {
	router := newTestRouter(&fakePostReader{}, &fakeSyncRunner{}, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/posts/recent?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecentPosts_ParsesSince(t *testing.T) {
	posts := &fakePostReader{}
	router := newTestRouter(posts, &fakeSyncRunner{}, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/posts/recent?since=2026-01-02T15:04:05Z")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), posts.lastSince)
}

func TestStats(t *testing.T) {
	lastSync := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	posts := &fakePostReader{posts: []domain.Post{{}, {}}, total: 120}
	syncer := &fakeSyncRunner{status: domain.SyncStatusSnapshot{Mode: check.SourceID, LastSyncAt: lastSync}}
	router := newTestRouter(posts, syncer, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(120), body["total_posts"])
	assert.Equal(t, float64(2), body["recent_posts"])
	assert.NotEmpty(t, body["last_update"])
}

func TestMode(t *testing.T) {
	syncer := &fakeSyncRunner{status: domain.SyncStatusSnapshot{Mode: check.SourceID, LastError: "timeout"}}
	router := newTestRouter(&fakePostReader{}, syncer, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/mode")
	require.Equal(t, http.StatusOK, w.Code)

	var body domain.SyncStatusSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, check.SourceID, body.Mode)
	assert.Equal(t, "timeout", body.LastError)
}

func TestProbe(t *testing.T) {
	prober := &fakeProber{probe: check.ProbeResult{Success: true, Account: "verifier-bot"}}
	router := newTestRouter(&fakePostReader{}, &fakeSyncRunner{}, prober)

	w := doRequest(t, router, http.MethodGet, "/api/check/test")
	require.Equal(t, http.StatusOK, w.Code)

	var result check.ProbeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "verifier-bot", result.Account)
}

func TestUpstreamStats_BadGatewayOnError(t *testing.T) {
	prober := &fakeProber{err: &domain.UpstreamError{Op: "fetch statistics", Message: "boom"}}
	router := newTestRouter(&fakePostReader{}, &fakeSyncRunner{}, prober)

	w := doRequest(t, router, http.MethodGet, "/api/check/stats")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRefresh(t *testing.T) {
	syncer := &fakeSyncRunner{stats: &domain.SyncStats{Fetched: 10, New: 3, Replaced: 7, Published: 3}}
	router := newTestRouter(&fakePostReader{}, syncer, &fakeProber{})

	w := doRequest(t, router, http.MethodPost, "/api/check/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, syncer.synced)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["new"])
	assert.Equal(t, float64(7), body["replaced"])
}

func TestRefresh_ConflictWhenCycleRunning(t *testing.T) {
	syncer := &fakeSyncRunner{err: domain.ErrSyncInProgress}
	router := newTestRouter(&fakePostReader{}, syncer, &fakeProber{})

	w := doRequest(t, router, http.MethodPost, "/api/check/refresh")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClearEndpointsAlwaysRefuse(t *testing.T) {
	syncer := &fakeSyncRunner{}
	router := newTestRouter(&fakePostReader{}, syncer, &fakeProber{})

	for _, target := range []string{"/api/check/clear", "/api/clear-all"} {
		w := doRequest(t, router, http.MethodPost, target)
		assert.Equal(t, http.StatusForbidden, w.Code, target)
	}
	assert.Zero(t, syncer.synced)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakePostReader{}, &fakeSyncRunner{}, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListPosts_InternalError(t *testing.T) {
	posts := &fakePostReader{err: errors.New("connection refused")}
	router := newTestRouter(posts, &fakeSyncRunner{}, &fakeProber{})

	w := doRequest(t, router, http.MethodGet, "/api/posts")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
