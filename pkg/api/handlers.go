package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sorobanhub/registry/pkg/abi"
	"github.com/sorobanhub/registry/pkg/analytics"
	"github.com/sorobanhub/registry/pkg/graph"
	"github.com/sorobanhub/registry/pkg/httputil"
	"github.com/sorobanhub/registry/pkg/registry"
	"github.com/sorobanhub/registry/pkg/storage"
)

// publishContract handles POST /api/contracts
func (s *Server) publishContract(w http.ResponseWriter, r *http.Request) {
	var req registry.PublishRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.ContractID, "contract_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.VersionLabel, "version_label") {
		return
	}

	result, err := s.coordinator.Publish(r.Context(), &req)
	if err != nil {
		s.writePublishError(w, err)
		return
	}

	httputil.WriteCreated(w, result)
}

func (s *Server) writePublishError(w http.ResponseWriter, err error) {
	var ce *graph.CycleError
	switch {
	case errors.As(err, &ce):
		path := make([]string, 0, len(ce.Path))
		for _, ref := range ce.Path {
			path = append(path, ref.Key())
		}
		httputil.WriteDetailedError(w, http.StatusConflict, err, map[string]string{
			"cycle": strings.Join(path, " -> "),
		})
	case errors.Is(err, graph.ErrDuplicateVersion):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, abi.ErrMalformedInterface):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteBadRequest(w, err.Error())
	}
}

// listContracts handles GET /api/contracts
func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", 20)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	contracts, total, err := s.meta.ListContractsPaginated(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"contracts": contracts,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// getContract handles GET /api/contracts/{contractId}
func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	contractID, ok := httputil.ParsePathStringOrError(w, r, "contractId")
	if !ok {
		return
	}

	contract, err := s.meta.GetContract(r.Context(), contractID)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "contract not found: "+contractID)
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	versions, err := s.meta.ListVersions(r.Context(), contractID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"contract": contract,
		"versions": versions,
	})
}

// listVersions handles GET /api/contracts/{contractId}/versions
func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	contractID, ok := httputil.ParsePathStringOrError(w, r, "contractId")
	if !ok {
		return
	}

	if _, err := s.meta.GetContract(r.Context(), contractID); errors.Is(err, storage.ErrNotFound) {
		httputil.WriteNotFoundError(w, "contract not found: "+contractID)
		return
	} else if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	versions, err := s.meta.ListVersions(r.Context(), contractID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"contract_id": contractID,
		"versions":    versions,
	})
}

// getDependencies handles GET /api/contracts/{contractId}/versions/{version}/dependencies
func (s *Server) getDependencies(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pathVersionRef(w, r)
	if !ok {
		return
	}

	payload, err := s.queries.Dependencies(r.Context(), ref)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	s.tracker.Track(r.Context(), analytics.EventGraphQueried, ref.ContractID, "", "",
		map[string]string{"query": "dependencies", "version": ref.VersionLabel})
	httputil.WriteRawJSON(w, http.StatusOK, payload)
}

// getDependents handles GET /api/contracts/{contractId}/dependents
func (s *Server) getDependents(w http.ResponseWriter, r *http.Request) {
	contractID, ok := httputil.ParsePathStringOrError(w, r, "contractId")
	if !ok {
		return
	}

	payload, err := s.queries.Dependents(r.Context(), contractID)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	s.tracker.Track(r.Context(), analytics.EventGraphQueried, contractID, "", "",
		map[string]string{"query": "dependents"})
	httputil.WriteRawJSON(w, http.StatusOK, payload)
}

// getVersionDependents handles
// GET /api/contracts/{contractId}/versions/{version}/dependents. Edges name
// contracts rather than pinned versions, so every version of a contract has
// the same dependents; the version in the path is validated, then the
// contract-level answer is served.
func (s *Server) getVersionDependents(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pathVersionRef(w, r)
	if !ok {
		return
	}
	if !s.queries.Snapshot().HasVersion(ref) {
		httputil.WriteNotFoundError(w, "version not found: "+ref.Key())
		return
	}

	payload, err := s.queries.Dependents(r.Context(), ref.ContractID)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	s.tracker.Track(r.Context(), analytics.EventGraphQueried, ref.ContractID, "", "",
		map[string]string{"query": "dependents", "version": ref.VersionLabel})
	httputil.WriteRawJSON(w, http.StatusOK, payload)
}

// getImpact handles GET /api/contracts/{contractId}/versions/{version}/impact
func (s *Server) getImpact(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pathVersionRef(w, r)
	if !ok {
		return
	}

	payload, err := s.queries.Impact(r.Context(), ref)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	s.tracker.Track(r.Context(), analytics.EventGraphQueried, ref.ContractID, "", "",
		map[string]string{"query": "impact", "version": ref.VersionLabel})
	httputil.WriteRawJSON(w, http.StatusOK, payload)
}

// exportGraph handles GET /api/graph
func (s *Server) exportGraph(w http.ResponseWriter, r *http.Request) {
	payload, err := s.queries.Export(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteRawJSON(w, http.StatusOK, payload)
}

// getContractCycles handles GET /api/graph/cycles. Committed snapshots stay
// acyclic, so this reports contract-granularity components involving
// superseded versions, which tooling may want to flag.
func (s *Server) getContractCycles(w http.ResponseWriter, r *http.Request) {
	snap := s.queries.Snapshot()
	cycles := snap.ContractCycles()
	if cycles == nil {
		cycles = [][]string{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"epoch":  snap.Epoch(),
		"cycles": cycles,
	})
}

// getActivityFeed handles GET /api/activity-feed
func (s *Server) getActivityFeed(w http.ResponseWriter, r *http.Request) {
	cursor, err := httputil.ParseQueryTime(r, "cursor")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	page, err := s.tracker.ActivityFeed(r.Context(), analytics.FeedParams{
		Cursor:    cursor,
		Limit:     limit,
		EventType: httputil.ParseQueryString(r, "event_type", ""),
	})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, page)
}

// getStats handles GET /api/stats
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.meta.Stats(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	snap := s.queries.Snapshot()
	httputil.WriteSuccess(w, map[string]interface{}{
		"registry": stats,
		"graph": map[string]interface{}{
			"epoch": snap.Epoch(),
			"nodes": snap.NodeCount(),
			"edges": snap.EdgeCount(),
		},
	})
}

// getCacheStats handles GET /api/cache/stats
func (s *Server) getCacheStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.queries.CacheStats())
}

func (s *Server) pathVersionRef(w http.ResponseWriter, r *http.Request) (graph.VersionRef, bool) {
	contractID, ok := httputil.ParsePathStringOrError(w, r, "contractId")
	if !ok {
		return graph.VersionRef{}, false
	}
	version, ok := httputil.ParsePathStringOrError(w, r, "version")
	if !ok {
		return graph.VersionRef{}, false
	}
	return graph.VersionRef{ContractID: contractID, VersionLabel: version}, true
}

func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, graph.ErrNotFound) {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}
	httputil.WriteInternalError(w, err)
}
