package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()
	key := Key{Kind: QueryDependents, Subject: "CA"}

	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatal("Expected miss on empty cache")
	}

	if err := c.Put(ctx, key, []byte(`["CB@v1"]`), c.Epoch()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	payload, ok, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || string(payload) != `["CB@v1"]` {
		t.Errorf("Get = %q, %v", payload, ok)
	}
}

func TestMemoryCache_EpochBumpInvalidates(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()
	key := Key{Kind: QueryImpact, Subject: "CA@v1"}

	c.Put(ctx, key, []byte("old"), c.Epoch())
	if epoch := c.InvalidateAll(); epoch != 1 {
		t.Fatalf("Expected epoch 1, got %d", epoch)
	}

	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatal("Stale entry must never be served after an epoch bump")
	}

	// A fresh fill under the new epoch is served again.
	c.Put(ctx, key, []byte("new"), c.Epoch())
	payload, ok, _ := c.Get(ctx, key)
	if !ok || string(payload) != "new" {
		t.Errorf("Get after refill = %q, %v", payload, ok)
	}
}

func TestMemoryCache_LateFillFromDeadGenerationNeverServed(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()
	key := Key{Kind: QueryDependents, Subject: "CA"}

	// A fill computed before an invalidation carries the old epoch stamp
	// even when it lands after the bump.
	observed := c.Epoch()
	c.InvalidateAll()
	c.Put(ctx, key, []byte("pre-bump payload"), observed)

	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatal("Payload computed against a dead generation must not be served")
	}
}

func TestMemoryCache_LazyEvictionCountsStale(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()

	c.Put(ctx, Key{Kind: QueryExport, Subject: ""}, []byte("graph"), c.Epoch())
	c.InvalidateAll()

	// The stale entry still occupies a slot until it is looked up.
	if c.Stats().Entries != 1 {
		t.Errorf("Expected 1 resident entry before lookup, got %d", c.Stats().Entries)
	}

	c.Get(ctx, Key{Kind: QueryExport, Subject: ""})

	stats := c.Stats()
	if stats.StaleEvicted != 1 {
		t.Errorf("Expected 1 stale eviction, got %d", stats.StaleEvicted)
	}
	if stats.Entries != 0 {
		t.Errorf("Expected 0 resident entries after lazy eviction, got %d", stats.Entries)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()
	key := Key{Kind: QueryDependencies, Subject: "CA@v1"}

	c.Get(ctx, key) // miss
	c.Put(ctx, key, []byte("x"), c.Epoch())
	c.Get(ctx, key) // hit
	c.Get(ctx, key) // hit

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Stats = %d hits / %d misses, want 2 / 1", stats.Hits, stats.Misses)
	}
	if stats.HitRatePct < 66 || stats.HitRatePct > 67 {
		t.Errorf("HitRatePct = %f, want ~66.7", stats.HitRatePct)
	}
}

func TestMemoryCache_CapacityEviction(t *testing.T) {
	c := NewMemoryCache(2, time.Minute)
	ctx := context.Background()

	c.Put(ctx, Key{Kind: QueryDependents, Subject: "C1"}, []byte("1"), c.Epoch())
	c.Put(ctx, Key{Kind: QueryDependents, Subject: "C2"}, []byte("2"), c.Epoch())
	c.Put(ctx, Key{Kind: QueryDependents, Subject: "C3"}, []byte("3"), c.Epoch())

	if c.Stats().Entries > 2 {
		t.Errorf("LRU must not exceed capacity, got %d entries", c.Stats().Entries)
	}
	if _, ok, _ := c.Get(ctx, Key{Kind: QueryDependents, Subject: "C3"}); !ok {
		t.Error("Most recent entry must survive capacity eviction")
	}
}
