package cache

import "context"

// QueryKind names a memoized query family.
type QueryKind string

const (
	QueryDependencies QueryKind = "dependencies"
	QueryDependents   QueryKind = "dependents"
	QueryImpact       QueryKind = "impact"
	QueryExport       QueryKind = "export"
)

// Key identifies one cached result: the query family plus its subject
// (a contract id, a version key, or "" for whole-graph queries).
type Key struct {
	Kind    QueryKind
	Subject string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.Subject
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	StaleEvicted uint64  `json:"stale_evicted"`
	Entries      int     `json:"entries"`
	Epoch        uint64  `json:"epoch"`
	HitRatePct   float64 `json:"hit_rate_percent"`
}

// ResultCache memoizes serialized query payloads keyed by (kind, subject).
//
// Get returns (payload, true, nil) only when the entry's epoch matches the
// cache's current epoch; anything else is a miss. Put takes the epoch the
// payload was computed against — callers observe the epoch before reading
// the graph, so a fill racing an InvalidateAll lands stamped with the old
// generation and can never be served after the bump. InvalidateAll bumps
// the epoch and returns the new value.
type ResultCache interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, payload []byte, epoch uint64) error
	InvalidateAll() uint64
	Epoch() uint64
	Stats() Stats
}

func hitRatePct(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
