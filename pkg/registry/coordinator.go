package registry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sorobanhub/registry/pkg/abi"
	"github.com/sorobanhub/registry/pkg/analytics"
	"github.com/sorobanhub/registry/pkg/cache"
	"github.com/sorobanhub/registry/pkg/graph"
	"github.com/sorobanhub/registry/pkg/observability"
	"github.com/sorobanhub/registry/pkg/storage"
)

// PublishRequest carries everything needed to admit one new contract version.
type PublishRequest struct {
	ContractID   string                `json:"contract_id"`
	VersionLabel string                `json:"version_label"`
	Name         string                `json:"name,omitempty"`
	Description  string                `json:"description,omitempty"`
	Publisher    string                `json:"publisher,omitempty"` // stellar address
	Network      string                `json:"network,omitempty"`
	Category     string                `json:"category,omitempty"`
	Tags         []string              `json:"tags,omitempty"`
	Interface    abi.InterfaceDocument `json:"interface"`
}

// PublishResult is returned on a successful publication.
type PublishResult struct {
	Ref           graph.VersionRef `json:"ref"`
	InterfaceHash string           `json:"interface_hash"`
	Epoch         uint64           `json:"epoch"`
	References    []abi.Reference  `json:"references"`
}

// Coordinator serializes publications. Each Publish runs the full pipeline
// under one lock: extract references, hash the interface, commit to the graph,
// persist metadata, invalidate the result cache. Queries proceed concurrently
// against whichever snapshot is current; they never block on a publish.
type Coordinator struct {
	mu sync.Mutex

	graph   *graph.Store
	meta    storage.Store
	cache   cache.ResultCache
	tracker *analytics.Tracker
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewCoordinator wires the publish pipeline. tracker and metrics may be nil.
func NewCoordinator(g *graph.Store, meta storage.Store, c cache.ResultCache, tracker *analytics.Tracker, logger *observability.Logger, metrics *observability.Metrics) *Coordinator {
	if tracker == nil {
		tracker = analytics.NewTracker(nil, nil)
	}
	return &Coordinator{
		graph:   g,
		meta:    meta,
		cache:   c,
		tracker: tracker,
		logger:  logger,
		metrics: metrics,
	}
}

// Publish admits one new contract version. The version's interface document
// is parsed for references, the dependency graph is extended atomically, and
// only then is registry metadata written. The graph commit is the decision
// point: a duplicate or a cycle rejects the publish with nothing changed.
// Metadata persistence is best-effort; the graph is the source of truth and
// a metadata write failure is logged, not bounced back to the publisher.
func (co *Coordinator) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	start := time.Now()
	res, err := co.publish(ctx, req)
	if co.metrics != nil {
		co.metrics.PublishDuration.Observe(time.Since(start).Seconds())
		co.metrics.PublishTotal.WithLabelValues(outcomeLabel(err)).Inc()
	}
	return res, err
}

func (co *Coordinator) publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	if req.ContractID == "" || req.VersionLabel == "" {
		return nil, errors.New("contract_id and version_label are required")
	}
	if req.Interface.ContractID == "" {
		req.Interface.ContractID = req.ContractID
	}

	refs, err := abi.Extract(&req.Interface)
	if err != nil {
		co.rejected(ctx, req, err)
		return nil, err
	}

	hash, err := abi.Hash(&req.Interface)
	if err != nil {
		co.rejected(ctx, req, err)
		return nil, err
	}

	co.mu.Lock()
	defer co.mu.Unlock()

	ref := graph.VersionRef{ContractID: req.ContractID, VersionLabel: req.VersionLabel}
	snap, err := co.graph.CommitNewVersion(ref, hash, refs)
	if err != nil {
		co.rejected(ctx, req, err)
		return nil, err
	}

	co.persistMetadata(ctx, req, hash)

	newEpoch := co.cache.InvalidateAll()
	if co.metrics != nil {
		co.metrics.CacheInvalidationsTotal.Inc()
		co.metrics.GraphNodes.Set(float64(snap.NodeCount()))
		co.metrics.GraphEdges.Set(float64(snap.EdgeCount()))
		co.metrics.GraphEpoch.Set(float64(snap.Epoch()))
	}

	co.logger.WithFields(map[string]interface{}{
		"contract_id":   req.ContractID,
		"version_label": req.VersionLabel,
		"references":    len(refs),
		"epoch":         snap.Epoch(),
		"cache_epoch":   newEpoch,
	}).Info("contract version published")

	co.tracker.Track(ctx, analytics.EventContractPublished, req.ContractID, req.Publisher, req.Network,
		map[string]interface{}{"version": req.VersionLabel, "references": len(refs)})

	return &PublishResult{
		Ref:           ref,
		InterfaceHash: hash,
		Epoch:         snap.Epoch(),
		References:    refs,
	}, nil
}

// persistMetadata writes publisher, contract, and version rows. Failures are
// logged and swallowed: the committed graph node stands regardless.
func (co *Coordinator) persistMetadata(ctx context.Context, req *PublishRequest, hash string) {
	if co.meta == nil {
		return
	}

	publisherID := ""
	if req.Publisher != "" {
		pub, err := co.meta.UpsertPublisher(ctx, &storage.Publisher{StellarAddress: req.Publisher})
		if err != nil {
			co.logger.WithError(err).WithField("publisher", req.Publisher).Warn("failed to upsert publisher")
		} else {
			publisherID = pub.ID
		}
	}

	_, err := co.meta.GetContract(ctx, req.ContractID)
	if errors.Is(err, storage.ErrNotFound) {
		createErr := co.meta.CreateContract(ctx, &storage.Contract{
			ContractID:  req.ContractID,
			Name:        req.Name,
			Description: req.Description,
			PublisherID: publisherID,
			Network:     req.Network,
			Category:    req.Category,
			Tags:        req.Tags,
		})
		if createErr != nil && !errors.Is(createErr, storage.ErrAlreadyExists) {
			co.logger.WithError(createErr).WithField("contract_id", req.ContractID).Warn("failed to create contract record")
		}
	} else if err != nil {
		co.logger.WithError(err).WithField("contract_id", req.ContractID).Warn("failed to look up contract record")
	}

	doc, marshalErr := json.Marshal(&req.Interface)
	if marshalErr != nil {
		doc = nil
	}
	if err := co.meta.CreateVersion(ctx, &storage.ContractVersion{
		ContractID:    req.ContractID,
		VersionLabel:  req.VersionLabel,
		InterfaceHash: hash,
		InterfaceDoc:  doc,
	}); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		co.logger.WithError(err).WithFields(map[string]interface{}{
			"contract_id":   req.ContractID,
			"version_label": req.VersionLabel,
		}).Warn("failed to create version record")
	}
}

func (co *Coordinator) rejected(ctx context.Context, req *PublishRequest, cause error) {
	co.logger.WithError(cause).WithFields(map[string]interface{}{
		"contract_id":   req.ContractID,
		"version_label": req.VersionLabel,
	}).Warn("publish rejected")
	co.tracker.Track(ctx, analytics.EventPublishRejected, req.ContractID, req.Publisher, req.Network,
		map[string]interface{}{"version": req.VersionLabel, "reason": cause.Error()})
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeAccepted
	case errors.Is(err, graph.ErrDuplicateVersion):
		return observability.OutcomeDuplicate
	case isCycle(err):
		return observability.OutcomeCycle
	case errors.Is(err, abi.ErrMalformedInterface):
		return observability.OutcomeMalformed
	default:
		return observability.OutcomeError
	}
}

func isCycle(err error) bool {
	var ce *graph.CycleError
	return errors.As(err, &ce)
}
