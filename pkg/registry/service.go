package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sorobanhub/registry/pkg/cache"
	"github.com/sorobanhub/registry/pkg/graph"
	"github.com/sorobanhub/registry/pkg/observability"
)

// DependenciesResponse is the serialized answer of a dependency query.
type DependenciesResponse struct {
	Ref          graph.VersionRef `json:"ref"`
	Epoch        uint64           `json:"epoch"`
	Dependencies []graph.Edge     `json:"dependencies"`
}

// DependentsResponse is the serialized answer of a dependents query.
type DependentsResponse struct {
	ContractID string            `json:"contract_id"`
	Epoch      uint64            `json:"epoch"`
	Dependents []graph.Dependent `json:"dependents"`
}

// ImpactResponse is the serialized answer of an impact analysis.
type ImpactResponse struct {
	Ref    graph.VersionRef    `json:"ref"`
	Epoch  uint64              `json:"epoch"`
	Impact []graph.ImpactEntry `json:"impact"`
}

// Service answers graph queries. Every query pins one snapshot for its whole
// execution and consults the result cache first; computed answers are stored
// back as serialized JSON so cache hits skip both traversal and encoding.
type Service struct {
	graph   *graph.Store
	cache   cache.ResultCache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService wires the read side. metrics may be nil.
func NewService(g *graph.Store, c cache.ResultCache, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{graph: g, cache: c, logger: logger, metrics: metrics}
}

// Dependencies returns the direct forward edges of a version, serialized.
func (s *Service) Dependencies(ctx context.Context, ref graph.VersionRef) ([]byte, error) {
	key := cache.Key{Kind: cache.QueryDependencies, Subject: ref.Key()}
	return s.cached(ctx, key, func(snap *graph.Snapshot) (interface{}, error) {
		deps, err := graph.Dependencies(snap, ref)
		if err != nil {
			return nil, err
		}
		return &DependenciesResponse{Ref: ref, Epoch: snap.Epoch(), Dependencies: deps}, nil
	})
}

// Dependents returns the direct reverse edges of a contract, serialized.
func (s *Service) Dependents(ctx context.Context, contractID string) ([]byte, error) {
	key := cache.Key{Kind: cache.QueryDependents, Subject: contractID}
	return s.cached(ctx, key, func(snap *graph.Snapshot) (interface{}, error) {
		deps, err := graph.Dependents(snap, contractID)
		if err != nil {
			return nil, err
		}
		return &DependentsResponse{ContractID: contractID, Epoch: snap.Epoch(), Dependents: deps}, nil
	})
}

// Impact returns the transitive reverse closure of a version, serialized.
func (s *Service) Impact(ctx context.Context, ref graph.VersionRef) ([]byte, error) {
	key := cache.Key{Kind: cache.QueryImpact, Subject: ref.Key()}
	return s.cached(ctx, key, func(snap *graph.Snapshot) (interface{}, error) {
		impact, err := graph.ImpactAnalysis(snap, ref)
		if err != nil {
			return nil, err
		}
		return &ImpactResponse{Ref: ref, Epoch: snap.Epoch(), Impact: impact}, nil
	})
}

// Export returns the whole graph in the visualization model, serialized.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	key := cache.Key{Kind: cache.QueryExport, Subject: ""}
	return s.cached(ctx, key, func(snap *graph.Snapshot) (interface{}, error) {
		return graph.ExportGraph(snap), nil
	})
}

// Snapshot exposes the current snapshot for callers that need raw access,
// such as the health endpoint reporting node and edge counts.
func (s *Service) Snapshot() *graph.Snapshot {
	return s.graph.Current()
}

// CacheStats reports the result cache's counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// cached runs one query through the result cache. A cache backend error is
// treated as a miss: the query still computes against the pinned snapshot.
func (s *Service) cached(ctx context.Context, key cache.Key, compute func(*graph.Snapshot) (interface{}, error)) ([]byte, error) {
	start := time.Now()
	kind := string(key.Kind)

	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key.String()).Warn("result cache read failed")
	}
	if ok {
		if s.metrics != nil {
			s.metrics.CacheHitsTotal.WithLabelValues(kind).Inc()
			s.metrics.QueryTotal.WithLabelValues(kind, "hit").Inc()
			s.metrics.QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		}
		return payload, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(kind).Inc()
	}

	// The epoch must be observed before the snapshot is pinned: a publish
	// committing between the pin and the store would otherwise file a
	// pre-publish payload under the post-publish generation.
	epoch := s.cache.Epoch()
	snap := s.graph.Current()
	result, err := compute(snap)
	if err != nil {
		if s.metrics != nil {
			s.metrics.QueryTotal.WithLabelValues(kind, "error").Inc()
		}
		return nil, err
	}

	payload, err = json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query result: %w", err)
	}

	if putErr := s.cache.Put(ctx, key, payload, epoch); putErr != nil {
		s.logger.WithError(putErr).WithField("key", key.String()).Warn("result cache write failed")
	}

	if s.metrics != nil {
		s.metrics.QueryTotal.WithLabelValues(kind, "miss").Inc()
		s.metrics.QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	return payload, nil
}
