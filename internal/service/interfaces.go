package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"factsync/internal/domain"
)

type PostStore interface {
	Upsert(ctx context.Context, post *domain.Post) (domain.UpsertResult, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type Source interface {
	ID() string
	Name() string
	FetchPosts(ctx context.Context, limit int) ([]domain.Post, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier fans "new records" events out to subscribers. Delivery is
// fire-and-forget; a slow subscriber must never stall the sync loop.
type Notifier interface {
	PublishNew(ctx context.Context, posts []domain.Post)
}

// Metrics records sync cycle observations.
type Metrics interface {
	RecordCycleSuccess(duration time.Duration)
	RecordCycleFailure()
	RecordPostsFetched(count int)
	RecordPostsInserted(count int)
	RecordPostsReplaced(count int)
}
