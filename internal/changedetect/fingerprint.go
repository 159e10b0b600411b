// Package changedetect computes order-independent fingerprints over the
// mutable engagement counters of a post set. A fingerprint answers one
// question only: did any counter in this set change since last time?
package changedetect

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"factsync/internal/domain"
)

// EmptyFingerprint is the degenerate value for an empty post set.
const EmptyFingerprint uint64 = 0

// Fingerprint hashes the (external_id, reactions, comments, shares, views)
// tuples of the given posts. The input is sorted by external id first, so
// caller-supplied ordering never affects the result. All other Post fields
// are intentionally ignored: the detector exists to spot engagement drift
// on a fixed identity set, not general record changes. xxhash is a
// non-cryptographic hash; collisions are acceptable here.
func Fingerprint(posts []domain.Post) uint64 {
	if len(posts) == 0 {
		return EmptyFingerprint
	}

	sorted := make([]domain.Post, len(posts))
	copy(sorted, posts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ExternalID < sorted[j].ExternalID
	})

	digest := xxhash.New()
	for _, p := range sorted {
		fmt.Fprintf(digest, "%d:%d:%d:%d:%d|", p.ExternalID, p.Reactions, p.Comments, p.Shares, p.Views)
	}
	return digest.Sum64()
}
