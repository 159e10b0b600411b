package domain

import (
	"sync"
	"time"
)

// UpsertResult reports what a store upsert did.
type UpsertResult int

const (
	// UpsertInserted means the record did not exist before.
	UpsertInserted UpsertResult = iota
	// UpsertReplaced means an existing record was overwritten.
	UpsertReplaced
)

func (r UpsertResult) String() string {
	if r == UpsertInserted {
		return "inserted"
	}
	return "replaced"
}

// SyncStats holds statistics about one sync cycle. MetricsChanged is set
// when the engagement fingerprint of the fetched view differs from the
// previous cycle's, which catches counter drift even when no new rows
// appeared.
type SyncStats struct {
	Fetched        int
	New            int
	Replaced       int
	Errors         int
	Published      int
	MetricsChanged bool
	Duration       time.Duration
}

// SyncState is the per-source bookkeeping row persisted between runs.
type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	TotalSynced  int64     `db:"total_synced"`
}

// SyncStatus is the process-lifetime view of the sync loop. It is read
// concurrently by HTTP handlers while a cycle writes, so access goes
// through the mutex. Not persisted.
type SyncStatus struct {
	mu         sync.RWMutex
	mode       string
	lastSyncAt time.Time
	lastError  string
}

// NewSyncStatus returns a status in the given mode (e.g. "check_api").
func NewSyncStatus(mode string) *SyncStatus {
	return &SyncStatus{mode: mode}
}

// RecordSuccess marks a completed cycle and clears any previous error.
func (s *SyncStatus) RecordSuccess(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncAt = at
	s.lastError = ""
}

// RecordError keeps the failure message for operator visibility. The last
// successful cycle timestamp is preserved.
func (s *SyncStatus) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err.Error()
}

// Snapshot returns a copy safe to serialize.
func (s *SyncStatus) Snapshot() SyncStatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SyncStatusSnapshot{
		Mode:       s.mode,
		LastSyncAt: s.lastSyncAt,
		LastError:  s.lastError,
	}
}

// SyncStatusSnapshot is the JSON-facing form of SyncStatus.
type SyncStatusSnapshot struct {
	Mode       string    `json:"mode"`
	LastSyncAt time.Time `json:"last_sync_at"`
	LastError  string    `json:"last_error,omitempty"`
}
