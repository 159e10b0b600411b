package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"factsync/internal/domain"
)

// PostStore is the append/update-only persistence layer for posts.
// Deletion is not supported and never will be: every destructive method
// fails with domain.ErrForbiddenOperation regardless of caller.
type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// postRow is the sqlx scanning shape; tags need pq's array adapter.
type postRow struct {
	ID          int64              `db:"id"`
	ExternalID  int64              `db:"external_id"`
	CheckID     string             `db:"check_id"`
	Claim       string             `db:"claim"`
	Status      domain.Status      `db:"status"`
	URL         string             `db:"url"`
	SubmittedAt time.Time          `db:"submitted_at"`
	UpdatedAt   time.Time          `db:"updated_at"`
	Platform    domain.Platform    `db:"platform"`
	MediaFormat domain.MediaFormat `db:"media_format"`
	Reactions   int                `db:"reactions"`
	Comments    int                `db:"comments"`
	Shares      int                `db:"shares"`
	Views       int                `db:"views"`
	Tags        pq.StringArray     `db:"tags"`

	domain.CaseDetails
}

func (r postRow) toDomain() domain.Post {
	return domain.Post{
		ID:          r.ID,
		ExternalID:  r.ExternalID,
		CheckID:     r.CheckID,
		Claim:       r.Claim,
		Status:      r.Status,
		URL:         r.URL,
		SubmittedAt: r.SubmittedAt,
		UpdatedAt:   r.UpdatedAt,
		Platform:    r.Platform,
		MediaFormat: r.MediaFormat,
		Reactions:   r.Reactions,
		Comments:    r.Comments,
		Shares:      r.Shares,
		Views:       r.Views,
		Tags:        []string(r.Tags),
		CaseDetails: r.CaseDetails,
	}
}

const postColumns = `
	id, external_id, check_id, claim, status, url, submitted_at, updated_at,
	platform, media_format, reactions, comments, shares, views, tags,
	created_with_ai, attacks_candidate, attacked_candidate,
	attacks_electoral_body, electoral_narrative, case_type, disinfo_narrative,
	imitates_outlet, imitated_outlet, rumor_type, promoted_rumor`

// Upsert inserts the post or replaces the stored record wholesale when
// external_id already exists (last-write-wins, no partial merge). The
// returned result distinguishes a genuine insert from a replacement.
func (s *PostStore) Upsert(ctx context.Context, post *domain.Post) (domain.UpsertResult, error) {
	query := `
		INSERT INTO posts (
			external_id, check_id, claim, status, url, submitted_at, updated_at,
			platform, media_format, reactions, comments, shares, views, tags,
			created_with_ai, attacks_candidate, attacked_candidate,
			attacks_electoral_body, electoral_narrative, case_type,
			disinfo_narrative, imitates_outlet, imitated_outlet, rumor_type,
			promoted_rumor
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		ON CONFLICT (external_id) DO UPDATE SET
			check_id = EXCLUDED.check_id,
			claim = EXCLUDED.claim,
			status = EXCLUDED.status,
			url = EXCLUDED.url,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = EXCLUDED.updated_at,
			platform = EXCLUDED.platform,
			media_format = EXCLUDED.media_format,
			reactions = EXCLUDED.reactions,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			views = EXCLUDED.views,
			tags = EXCLUDED.tags,
			created_with_ai = EXCLUDED.created_with_ai,
			attacks_candidate = EXCLUDED.attacks_candidate,
			attacked_candidate = EXCLUDED.attacked_candidate,
			attacks_electoral_body = EXCLUDED.attacks_electoral_body,
			electoral_narrative = EXCLUDED.electoral_narrative,
			case_type = EXCLUDED.case_type,
			disinfo_narrative = EXCLUDED.disinfo_narrative,
			imitates_outlet = EXCLUDED.imitates_outlet,
			imitated_outlet = EXCLUDED.imitated_outlet,
			rumor_type = EXCLUDED.rumor_type,
			promoted_rumor = EXCLUDED.promoted_rumor
		RETURNING id, (xmax = 0) AS inserted`

	var (
		id       int64
		inserted bool
	)
	exec := GetExecutor(ctx, s.db)
	err := exec.QueryRowxContext(ctx, query,
		post.ExternalID,
		post.CheckID,
		post.Claim,
		post.Status,
		post.URL,
		post.SubmittedAt,
		post.UpdatedAt,
		post.Platform,
		post.MediaFormat,
		post.Reactions,
		post.Comments,
		post.Shares,
		post.Views,
		pq.Array(post.Tags),
		post.CreatedWithAI,
		post.AttacksCandidate,
		post.AttackedCandidate,
		post.AttacksElectoralBody,
		post.ElectoralNarrative,
		post.CaseType,
		post.DisinfoNarrative,
		post.ImitatesOutlet,
		post.ImitatedOutlet,
		post.RumorType,
		post.PromotedRumor,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, err
	}

	post.ID = id
	if inserted {
		return domain.UpsertInserted, nil
	}
	return domain.UpsertReplaced, nil
}

// List returns posts ordered newest-first by update time, plus the total
// row count for pagination.
func (s *PostStore) List(ctx context.Context, limit, offset int) ([]domain.Post, int, error) {
	total, err := s.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + postColumns + ` FROM posts ORDER BY updated_at DESC, external_id DESC LIMIT $1 OFFSET $2`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, err
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toDomain())
	}
	return posts, total, nil
}

func (s *PostStore) CountAll(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM posts")
	return count, err
}

// ListUpdatedSince returns posts whose update time is at or after the
// given instant, newest first.
func (s *PostStore) ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE updated_at >= $1 ORDER BY updated_at DESC`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toDomain())
	}
	return posts, nil
}

// DeleteAll always fails. Kept in the public contract so that callers get
// an explicit refusal instead of a missing method.
func (s *PostStore) DeleteAll(ctx context.Context) error {
	return domain.ErrForbiddenOperation
}

// DeleteByExternalID always fails, same as DeleteAll.
func (s *PostStore) DeleteByExternalID(ctx context.Context, externalID int64) error {
	return domain.ErrForbiddenOperation
}
