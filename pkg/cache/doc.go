// Package cache memoizes graph query results across publishes.
//
// Entries are stamped with the epoch they were computed against. A
// publish bumps the epoch (an O(1) counter increment, never a sweep), which
// logically invalidates every entry at once; stale entries are evicted
// lazily the next time they are looked up. Correctness, not time, drives
// eviction — TTLs on the backends only bound memory held by dead
// generations.
//
// Two backends are provided: an in-process LRU for single-node deployments
// and a Redis-backed cache that bakes the epoch into the key so stale
// generations simply age out.
package cache
