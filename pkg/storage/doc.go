// Package storage persists registry metadata: contracts, their publishers,
// and the version history of each contract.
//
// The dependency graph itself is not stored here; it is an in-memory
// structure rebuilt from version records at startup. This package only holds
// the durable facts the graph is derived from, plus the display metadata the
// API serves alongside graph queries.
//
// Two implementations are provided: an in-memory store for tests and
// single-node development, and a PostgreSQL store for deployments.
package storage
