// Package postgres implements the registry metadata store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sorobanhub/registry/pkg/storage"
)

// PostgresStore implements storage.Store backed by PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	config storage.Config
}

// NewPostgresStore connects to PostgreSQL, configures the pool, and verifies
// the connection.
func NewPostgresStore(config storage.Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(config.PostgresMaxConns)
	db.SetMaxIdleConns(config.PostgresMinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), config.PostgresTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresStore{db: db, config: config}, nil
}

// NewPostgresStoreWithDB wraps an existing connection; used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB exposes the underlying connection for health checks and the analytics
// tracker, which share the pool.
func (s *PostgresStore) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) UpsertPublisher(ctx context.Context, p *storage.Publisher) (*storage.Publisher, error) {
	if p == nil || p.StellarAddress == "" {
		return nil, fmt.Errorf("publisher stellar address is required")
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO publishers (id, stellar_address, username, email, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (stellar_address) DO UPDATE SET stellar_address = EXCLUDED.stellar_address
		RETURNING id, stellar_address, username, email, created_at`,
		uuid.NewString(), p.StellarAddress, p.Username, p.Email,
	)

	var out storage.Publisher
	var username, email sql.NullString
	if err := row.Scan(&out.ID, &out.StellarAddress, &username, &email, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to upsert publisher: %w", err)
	}
	out.Username = username.String
	out.Email = email.String
	return &out, nil
}

func (s *PostgresStore) GetPublisher(ctx context.Context, id string) (*storage.Publisher, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, stellar_address, username, email, created_at
		FROM publishers WHERE id = $1`, id)

	var out storage.Publisher
	var username, email sql.NullString
	err := row.Scan(&out.ID, &out.StellarAddress, &username, &email, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: publisher %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get publisher: %w", err)
	}
	out.Username = username.String
	out.Email = email.String
	return &out, nil
}

func (s *PostgresStore) ListPublisherContracts(ctx context.Context, publisherID string) ([]*storage.Contract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_id, name, description, publisher_id, network, category, tags, is_verified, created_at, updated_at
		FROM contracts WHERE publisher_id = $1 ORDER BY created_at DESC`, publisherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publisher contracts: %w", err)
	}
	defer rows.Close()

	return scanContracts(rows)
}

func (s *PostgresStore) CreateContract(ctx context.Context, c *storage.Contract) error {
	if c == nil || c.ContractID == "" {
		return fmt.Errorf("contract id is required")
	}
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts (id, contract_id, name, description, publisher_id, network, category, tags, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		id, c.ContractID, c.Name, c.Description, c.PublisherID, c.Network, c.Category, pq.Array(c.Tags), c.Verified,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: contract %s", storage.ErrAlreadyExists, c.ContractID)
		}
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetContract(ctx context.Context, contractID string) (*storage.Contract, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, contract_id, name, description, publisher_id, network, category, tags, is_verified, created_at, updated_at
		FROM contracts WHERE contract_id = $1`, contractID)

	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: contract %s", storage.ErrNotFound, contractID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListContractsPaginated(ctx context.Context, limit, offset int) ([]*storage.Contract, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_id, name, description, publisher_id, network, category, tags, is_verified, created_at, updated_at
		FROM contracts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts, err := scanContracts(rows)
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

func (s *PostgresStore) CreateVersion(ctx context.Context, v *storage.ContractVersion) error {
	if v == nil || v.ContractID == "" || v.VersionLabel == "" {
		return fmt.Errorf("contract id and version label are required")
	}
	id := v.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contract_versions (id, contract_id, version_label, interface_hash, interface_doc, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		id, v.ContractID, v.VersionLabel, v.InterfaceHash, v.InterfaceDoc,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s@%s", storage.ErrAlreadyExists, v.ContractID, v.VersionLabel)
		}
		return fmt.Errorf("failed to create version: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListVersions(ctx context.Context, contractID string) ([]*storage.ContractVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract_id, version_label, interface_hash, interface_doc, created_at
		FROM contract_versions WHERE contract_id = $1 ORDER BY created_at DESC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	out := make([]*storage.ContractVersion, 0)
	for rows.Next() {
		var v storage.ContractVersion
		if err := rows.Scan(&v.ID, &v.ContractID, &v.VersionLabel, &v.InterfaceHash, &v.InterfaceDoc, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (*storage.RegistryStats, error) {
	stats := &storage.RegistryStats{}
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM contracts),
			(SELECT COUNT(*) FROM contracts WHERE is_verified = true),
			(SELECT COUNT(*) FROM publishers),
			(SELECT COUNT(*) FROM contract_versions)`)
	if err := row.Scan(&stats.TotalContracts, &stats.VerifiedContracts, &stats.TotalPublishers, &stats.TotalVersions); err != nil {
		return nil, fmt.Errorf("failed to load registry stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (*storage.Contract, error) {
	var c storage.Contract
	var description, category sql.NullString
	var tags pq.StringArray
	if err := row.Scan(&c.ID, &c.ContractID, &c.Name, &description, &c.PublisherID, &c.Network, &category, &tags, &c.Verified, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = description.String
	c.Category = category.String
	c.Tags = tags
	return &c, nil
}

func scanContracts(rows *sql.Rows) ([]*storage.Contract, error) {
	out := make([]*storage.Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
