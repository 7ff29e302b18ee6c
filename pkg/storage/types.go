package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when a create collides with an existing
// record.
var ErrAlreadyExists = errors.New("record already exists")

// Publisher is the registry account that published one or more contracts,
// identified by its Stellar address.
type Publisher struct {
	ID             string    `json:"id"`
	StellarAddress string    `json:"stellar_address"`
	Username       string    `json:"username,omitempty"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Contract is the registry-owned metadata of one contract. ContractID is the
// stable on-chain identifier the dependency graph keys on.
type Contract struct {
	ID          string    `json:"id"`
	ContractID  string    `json:"contract_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PublisherID string    `json:"publisher_id"`
	Network     string    `json:"network"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContractVersion is one published version of a contract. Immutable once
// created; supersession is additive.
type ContractVersion struct {
	ID            string    `json:"id"`
	ContractID    string    `json:"contract_id"`
	VersionLabel  string    `json:"version_label"`
	InterfaceHash string    `json:"interface_hash"`
	InterfaceDoc  []byte    `json:"interface_doc,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegistryStats are the aggregate counts served by the stats endpoint.
type RegistryStats struct {
	TotalContracts    int64 `json:"total_contracts"`
	VerifiedContracts int64 `json:"verified_contracts"`
	TotalPublishers   int64 `json:"total_publishers"`
	TotalVersions     int64 `json:"total_versions"`
}

// Store is the metadata persistence boundary.
type Store interface {
	// UpsertPublisher creates the publisher for a stellar address or returns
	// the existing one.
	UpsertPublisher(ctx context.Context, p *Publisher) (*Publisher, error)
	GetPublisher(ctx context.Context, id string) (*Publisher, error)
	ListPublisherContracts(ctx context.Context, publisherID string) ([]*Contract, error)

	CreateContract(ctx context.Context, c *Contract) error
	GetContract(ctx context.Context, contractID string) (*Contract, error)
	ListContractsPaginated(ctx context.Context, limit, offset int) ([]*Contract, int64, error)

	CreateVersion(ctx context.Context, v *ContractVersion) error
	ListVersions(ctx context.Context, contractID string) ([]*ContractVersion, error)

	Stats(ctx context.Context) (*RegistryStats, error)
	HealthCheck(ctx context.Context) error
}

// Config selects and parameterizes the storage backend.
type Config struct {
	Type string // "memory" or "postgres"

	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	RedisURL string // result cache backend; empty selects the in-process LRU

	CacheMaxEntries int
	CacheTTL        time.Duration
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		Type:             "memory",
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  10 * time.Second,
		CacheMaxEntries:  4096,
		CacheTTL:         time.Hour,
	}
}
