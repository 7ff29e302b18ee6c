package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and single-node development.
type MemoryStore struct {
	mu sync.RWMutex

	publishers      map[string]*Publisher // by id
	publishersByAdr map[string]string     // stellar address -> id
	contracts       map[string]*Contract  // by stable contract id
	contractOrder   []string
	versions        map[string][]*ContractVersion // by stable contract id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		publishers:      make(map[string]*Publisher),
		publishersByAdr: make(map[string]string),
		contracts:       make(map[string]*Contract),
		versions:        make(map[string][]*ContractVersion),
	}
}

func (s *MemoryStore) UpsertPublisher(_ context.Context, p *Publisher) (*Publisher, error) {
	if p == nil || p.StellarAddress == "" {
		return nil, fmt.Errorf("publisher stellar address is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.publishersByAdr[p.StellarAddress]; ok {
		existing := *s.publishers[id]
		return &existing, nil
	}

	created := &Publisher{
		ID:             uuid.NewString(),
		StellarAddress: p.StellarAddress,
		Username:       p.Username,
		Email:          p.Email,
		CreatedAt:      time.Now().UTC(),
	}
	s.publishers[created.ID] = created
	s.publishersByAdr[created.StellarAddress] = created.ID

	out := *created
	return &out, nil
}

func (s *MemoryStore) GetPublisher(_ context.Context, id string) (*Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.publishers[id]
	if !ok {
		return nil, fmt.Errorf("%w: publisher %s", ErrNotFound, id)
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) ListPublisherContracts(_ context.Context, publisherID string) ([]*Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Contract, 0)
	for _, id := range s.contractOrder {
		c := s.contracts[id]
		if c.PublisherID == publisherID {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateContract(_ context.Context, c *Contract) error {
	if c == nil || c.ContractID == "" {
		return fmt.Errorf("contract id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contracts[c.ContractID]; ok {
		return fmt.Errorf("%w: contract %s", ErrAlreadyExists, c.ContractID)
	}

	stored := *c
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.contracts[c.ContractID] = &stored
	s.contractOrder = append(s.contractOrder, c.ContractID)
	return nil
}

func (s *MemoryStore) GetContract(_ context.Context, contractID string) (*Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) ListContractsPaginated(_ context.Context, limit, offset int) ([]*Contract, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int64(len(s.contractOrder))

	// Newest first, matching the postgres ORDER BY created_at DESC.
	ordered := make([]string, len(s.contractOrder))
	copy(ordered, s.contractOrder)
	sort.SliceStable(ordered, func(i, j int) bool {
		return s.contracts[ordered[i]].CreatedAt.After(s.contracts[ordered[j]].CreatedAt)
	})

	if offset >= len(ordered) {
		return []*Contract{}, total, nil
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}

	out := make([]*Contract, 0, end-offset)
	for _, id := range ordered[offset:end] {
		c := *s.contracts[id]
		out = append(out, &c)
	}
	return out, total, nil
}

func (s *MemoryStore) CreateVersion(_ context.Context, v *ContractVersion) error {
	if v == nil || v.ContractID == "" || v.VersionLabel == "" {
		return fmt.Errorf("contract id and version label are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.versions[v.ContractID] {
		if existing.VersionLabel == v.VersionLabel {
			return fmt.Errorf("%w: %s@%s", ErrAlreadyExists, v.ContractID, v.VersionLabel)
		}
	}

	stored := *v
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = time.Now().UTC()
	s.versions[v.ContractID] = append(s.versions[v.ContractID], &stored)
	return nil
}

func (s *MemoryStore) ListVersions(_ context.Context, contractID string) ([]*ContractVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.versions[contractID]
	out := make([]*ContractVersion, 0, len(src))
	// Newest first.
	for i := len(src) - 1; i >= 0; i-- {
		v := *src[i]
		out = append(out, &v)
	}
	return out, nil
}

func (s *MemoryStore) Stats(_ context.Context) (*RegistryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &RegistryStats{
		TotalContracts:  int64(len(s.contracts)),
		TotalPublishers: int64(len(s.publishers)),
	}
	for _, c := range s.contracts {
		if c.Verified {
			stats.VerifiedContracts++
		}
	}
	for _, vs := range s.versions {
		stats.TotalVersions += int64(len(vs))
	}
	return stats, nil
}

func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}
