// Package server exposes the read-only HTTP API consumed by dashboards
// and other collaborators. The data-destroying routes exist on the
// surface for compatibility but always refuse.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"factsync/internal/domain"
	"factsync/internal/metrics"
	"factsync/internal/source/check"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	recentWindow     = 24 * time.Hour
)

// PostReader is the query surface the API needs from storage.
type PostReader interface {
	List(ctx context.Context, limit, offset int) ([]domain.Post, int, error)
	CountAll(ctx context.Context) (int, error)
	ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Post, error)
}

// SyncRunner triggers and reports on sync cycles.
type SyncRunner interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
	Status() domain.SyncStatusSnapshot
}

// UpstreamProber exposes upstream diagnostics.
type UpstreamProber interface {
	TestConnection(ctx context.Context) check.ProbeResult
	FetchStatistics(ctx context.Context) (*check.Statistics, error)
}

// Deps bundles everything the router serves.
type Deps struct {
	Posts       PostReader
	Syncer      SyncRunner
	Prober      UpstreamProber
	PushHandler http.Handler
	Gatherer    prometheus.Gatherer
	RateLimiter *RateLimiter
	Logger      *slog.Logger
}

type handler struct {
	posts  PostReader
	syncer SyncRunner
	prober UpstreamProber
	logger *slog.Logger
}

// NewRouter builds the full route table.
func NewRouter(deps Deps) http.Handler {
	h := &handler{
		posts:  deps.Posts,
		syncer: deps.Syncer,
		prober: deps.Prober,
		logger: deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	if deps.PushHandler != nil {
		r.Handle("/ws", deps.PushHandler)
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/posts", h.listPosts)
			r.Get("/posts/recent", h.recentPosts)
			r.Get("/stats", h.stats)
			r.Get("/mode", h.mode)

			r.Route("/check", func(r chi.Router) {
				r.Get("/test", h.probe)
				r.Get("/stats", h.upstreamStats)
				r.Post("/refresh", h.refresh)
				r.Post("/clear", h.refuseClear)
			})

			r.Post("/clear-all", h.refuseClear)
		})
	})

	return r
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	posts, total, err := h.posts.List(r.Context(), limit, offset)
	if err != nil {
		h.serverError(w, "list posts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":  posts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *handler) recentPosts(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-recentWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	posts, err := h.posts.ListUpdatedSince(r.Context(), since)
	if err != nil {
		h.serverError(w, "list recent posts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.posts.CountAll(r.Context())
	if err != nil {
		h.serverError(w, "count posts", err)
		return
	}

	recent, err := h.posts.ListUpdatedSince(r.Context(), time.Now().Add(-recentWindow))
	if err != nil {
		h.serverError(w, "list recent posts", err)
		return
	}

	status := h.syncer.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_posts":  total,
		"recent_posts": len(recent),
		"last_update":  status.LastSyncAt,
	})
}

func (h *handler) mode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.syncer.Status())
}

func (h *handler) probe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.prober.TestConnection(r.Context()))
}

func (h *handler) upstreamStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.prober.FetchStatistics(r.Context())
	if err != nil {
		h.upstreamError(w, "fetch statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// refresh runs one synchronous sync cycle. Overlap with the scheduler's
// cycle answers 409 rather than queueing a second one.
func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	stats, err := h.syncer.Sync(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, "a sync cycle is already running")
			return
		}
		h.upstreamError(w, "manual refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fetched":         stats.Fetched,
		"new":             stats.New,
		"replaced":        stats.Replaced,
		"errors":          stats.Errors,
		"published":       stats.Published,
		"metrics_changed": stats.MetricsChanged,
	})
}

func (h *handler) refuseClear(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusForbidden, "this service is read-only; stored records are never deleted")
}

func (h *handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *handler) upstreamError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("upstream request failed", "op", op, "error", err)
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
