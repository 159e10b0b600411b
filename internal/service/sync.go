package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"factsync/internal/changedetect"
	"factsync/internal/config"
	"factsync/internal/domain"
)

// SyncService runs one ingestion cycle: fetch raw cases, transform (done
// inside the source), upsert each post independently, and report the
// newly inserted subset to the notifier. Cycles are strictly serialized:
// a Sync call while another cycle runs fails fast with ErrSyncInProgress
// instead of queueing.
type SyncService struct {
	source    Source
	posts     PostStore
	syncState SyncStateStore
	txManager TransactionManager
	notifier  Notifier
	metrics   Metrics
	status    *domain.SyncStatus
	logger    *slog.Logger
	config    config.SyncConfig

	cycleMu sync.Mutex

	// lastFingerprint covers the previous cycle's fetched view. Guarded by
	// cycleMu: only the active cycle touches it.
	lastFingerprint uint64
	hasFingerprint  bool
}

func NewSyncService(
	source Source,
	posts PostStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:    source,
		posts:     posts,
		syncState: syncState,
		txManager: txManager,
		notifier:  notifier,
		metrics:   metrics,
		status:    domain.NewSyncStatus(source.ID()),
		logger:    logger.With("source", source.ID()),
		config:    cfg,
	}
}

// Status returns the current process-lifetime sync status.
func (s *SyncService) Status() domain.SyncStatusSnapshot {
	return s.status.Snapshot()
}

// Sync executes one full cycle. A fetch failure aborts the cycle; a
// single record's upsert failure skips that record and the rest of the
// batch proceeds, so a mid-batch failure still leaves earlier records
// persisted.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	if !s.cycleMu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.cycleMu.Unlock()

	startTime := time.Now()
	s.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"fetch_limit", s.config.FetchLimit,
	)

	posts, err := s.source.FetchPosts(ctx, s.config.FetchLimit)
	if err != nil {
		s.status.RecordError(err)
		if s.metrics != nil {
			s.metrics.RecordCycleFailure()
		}
		return nil, fmt.Errorf("fetch cases: %w", err)
	}

	s.logger.Info("fetched cases from source", "count", len(posts))

	stats := &domain.SyncStats{Fetched: len(posts)}
	var newPosts []domain.Post

	for i := range posts {
		post := &posts[i]

		result, err := s.savePost(ctx, post)
		if err != nil {
			stats.Errors++
			s.logger.Warn("failed to save post",
				"external_id", post.ExternalID,
				"error", err,
			)
			continue
		}

		if result == domain.UpsertInserted {
			stats.New++
			newPosts = append(newPosts, *post)
		} else {
			stats.Replaced++
		}
	}

	// A changed fingerprint means some counter moved (or the identity set
	// grew) since the last cycle, even when every row was merely replaced.
	fingerprint := changedetect.Fingerprint(posts)
	stats.MetricsChanged = s.hasFingerprint && fingerprint != s.lastFingerprint
	s.lastFingerprint = fingerprint
	s.hasFingerprint = true

	// Only genuinely new records go to subscribers; replaced records are
	// not "new data" for this path.
	if s.notifier != nil && len(newPosts) > 0 {
		s.notifier.PublishNew(ctx, newPosts)
		stats.Published = len(newPosts)
	}

	if err := s.updateSyncState(ctx, stats); err != nil {
		s.status.RecordError(err)
		return stats, fmt.Errorf("update sync state: %w", err)
	}

	stats.Duration = time.Since(startTime)
	s.status.RecordSuccess(time.Now())

	if s.metrics != nil {
		s.metrics.RecordCycleSuccess(stats.Duration)
		s.metrics.RecordPostsFetched(stats.Fetched)
		s.metrics.RecordPostsInserted(stats.New)
		s.metrics.RecordPostsReplaced(stats.Replaced)
	}

	s.logger.Info("sync completed",
		"new", stats.New,
		"replaced", stats.Replaced,
		"errors", stats.Errors,
		"published", stats.Published,
		"metrics_changed", stats.MetricsChanged,
		"duration", stats.Duration,
	)

	return stats, nil
}

// savePost upserts one post inside its own transaction, keeping each
// record's write independently atomic.
func (s *SyncService) savePost(ctx context.Context, post *domain.Post) (domain.UpsertResult, error) {
	var result domain.UpsertResult

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = s.posts.Upsert(txCtx, post)
		if err != nil {
			return fmt.Errorf("upsert post: %w", err)
		}
		return nil
	})

	return result, err
}

func (s *SyncService) updateSyncState(ctx context.Context, stats *domain.SyncStats) error {
	state, err := s.syncState.Get(ctx, s.source.ID())
	if err != nil {
		return err
	}

	state.SourceID = s.source.ID()
	state.LastSyncedAt = time.Now()
	state.TotalSynced += int64(stats.New + stats.Replaced)

	return s.syncState.Update(ctx, state)
}
