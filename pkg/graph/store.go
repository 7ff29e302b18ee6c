package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sorobanhub/registry/pkg/abi"
)

// Store holds the current graph snapshot. Reads are lock-free: Current loads
// an atomic pointer and the snapshot behind it never changes. Commits are
// serialized internally so cycle detection always runs against a consistent
// prior state.
type Store struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes CommitNewVersion
}

// NewStore creates a store seeded with the empty snapshot at epoch zero.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(emptySnapshot())
	return s
}

// Current returns the latest committed snapshot. O(1), safe for any number
// of concurrent callers; a caller holding the result continues to observe
// the same graph regardless of later commits.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// CommitNewVersion adds a version node plus its extracted references as one
// atomic unit. It builds a candidate snapshot, validates it for cycles, and
// publishes it only on success; a rejected candidate is discarded and the
// current snapshot stays untouched.
//
// Returns ErrDuplicateVersion if the (contract, version label) pair is
// already committed, or a *CycleError carrying the offending path.
func (s *Store) CommitNewVersion(ref VersionRef, interfaceHash string, refs []abi.Reference) (*Snapshot, error) {
	if ref.ContractID == "" || ref.VersionLabel == "" {
		return nil, fmt.Errorf("invalid version ref %q: contract id and version label are required", ref.Key())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	if prev.HasVersion(ref) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, ref.Key())
	}

	edges := make([]Edge, 0, len(refs))
	for _, r := range refs {
		edges = append(edges, Edge{From: ref, ToContractID: r.TargetContractID, Kind: r.Kind})
	}

	candidate := prev.clone()
	candidate.addVersion(ref, interfaceHash, edges)

	if path := detectCycle(candidate, ref); path != nil {
		return nil, &CycleError{Path: path}
	}

	s.current.Store(candidate)
	return candidate, nil
}
