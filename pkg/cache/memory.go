package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	epoch   uint64
	payload []byte
}

// MemoryCache is an in-process LRU result cache. Capacity bounds memory; the
// TTL only ages out entries from dead epochs that are never looked up again.
type MemoryCache struct {
	epoch atomic.Uint64
	lru   *lru.LRU[string, memoryEntry]

	hits    atomic.Uint64
	misses  atomic.Uint64
	evicted atomic.Uint64
}

// NewMemoryCache creates a memory cache with the given entry capacity and
// idle TTL. Zero or negative capacity falls back to a small default.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &MemoryCache{
		lru: lru.NewLRU[string, memoryEntry](maxEntries, nil, ttl),
	}
}

// Get returns the cached payload when present and current. A stale entry is
// evicted on the spot and reported as a miss.
func (c *MemoryCache) Get(_ context.Context, key Key) ([]byte, bool, error) {
	entry, ok := c.lru.Get(key.String())
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	if entry.epoch != c.epoch.Load() {
		c.lru.Remove(key.String())
		c.evicted.Add(1)
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return entry.payload, true, nil
}

// Put stores the payload stamped with the epoch it was computed against. An
// entry from a generation that has since been invalidated is stored anyway;
// the staleness check in Get keeps it from ever being served.
func (c *MemoryCache) Put(_ context.Context, key Key, payload []byte, epoch uint64) error {
	c.lru.Add(key.String(), memoryEntry{epoch: epoch, payload: payload})
	return nil
}

// InvalidateAll advances the epoch, logically discarding every entry.
func (c *MemoryCache) InvalidateAll() uint64 {
	return c.epoch.Add(1)
}

// Epoch returns the current epoch.
func (c *MemoryCache) Epoch() uint64 {
	return c.epoch.Load()
}

// Stats reports hit/miss counters and the live entry count. Entries from
// stale epochs that have not been touched since the bump still count until
// they are looked up or expire.
func (c *MemoryCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	return Stats{
		Hits:         hits,
		Misses:       misses,
		StaleEvicted: c.evicted.Load(),
		Entries:      c.lru.Len(),
		Epoch:        c.epoch.Load(),
		HitRatePct:   hitRatePct(hits, misses),
	}
}
