package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. The analytics_events table is
// shared with the analytics tracker, which reuses this store's pool.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS publishers (
		id UUID PRIMARY KEY,
		stellar_address TEXT NOT NULL UNIQUE,
		username TEXT,
		email TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY,
		contract_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		publisher_id UUID NOT NULL REFERENCES publishers(id),
		network TEXT NOT NULL,
		category TEXT,
		tags TEXT[],
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contract_versions (
		id UUID PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(contract_id),
		version_label TEXT NOT NULL,
		interface_hash TEXT NOT NULL,
		interface_doc JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (contract_id, version_label)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_versions_contract ON contract_versions(contract_id)`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id UUID PRIMARY KEY,
		event_type TEXT NOT NULL,
		contract_id TEXT,
		user_address TEXT,
		network TEXT,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created ON analytics_events(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type, created_at DESC)`,
}

// Migrate applies the schema. Safe to run on every startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}
