package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sorobanhub/registry/pkg/analytics"
	"github.com/sorobanhub/registry/pkg/httputil"
	"github.com/sorobanhub/registry/pkg/observability"
	"github.com/sorobanhub/registry/pkg/registry"
	"github.com/sorobanhub/registry/pkg/storage"
)

// Server is the registry's HTTP API.
type Server struct {
	router      *mux.Router
	coordinator *registry.Coordinator
	queries     *registry.Service
	meta        storage.Store
	tracker     *analytics.Tracker
	logger      *observability.Logger

	maxBodyBytes  int64
	traceHandlers bool
}

// Options tune the server beyond its required collaborators.
type Options struct {
	// MaxBodyBytes caps request bodies; zero selects 1 MiB.
	MaxBodyBytes int64
	// Metrics instruments the router when non-nil.
	Metrics *observability.Metrics
	// TraceHandlers wraps the router with otelhttp when true.
	TraceHandlers bool
}

// NewServer wires routes and middleware. tracker may be nil for deployments
// without an activity feed.
func NewServer(coordinator *registry.Coordinator, queries *registry.Service, meta storage.Store, tracker *analytics.Tracker, logger *observability.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if tracker == nil {
		tracker = analytics.NewTracker(nil, nil)
	}

	s := &Server{
		router:        mux.NewRouter(),
		coordinator:   coordinator,
		queries:       queries,
		meta:          meta,
		tracker:       tracker,
		logger:        logger,
		maxBodyBytes:  opts.MaxBodyBytes,
		traceHandlers: opts.TraceHandlers,
	}
	s.setupRoutes()

	middlewares := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.MaxBytesMiddleware(opts.MaxBodyBytes),
	}
	if opts.Metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	s.router.Use(middlewares...)

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Contract routes
	s.router.HandleFunc("/api/contracts", s.publishContract).Methods("POST")
	s.router.HandleFunc("/api/contracts", s.listContracts).Methods("GET")
	s.router.HandleFunc("/api/contracts/{contractId}", s.getContract).Methods("GET")
	s.router.HandleFunc("/api/contracts/{contractId}/versions", s.listVersions).Methods("GET")

	// Graph query routes
	s.router.HandleFunc("/api/contracts/{contractId}/versions/{version}/dependencies", s.getDependencies).Methods("GET")
	s.router.HandleFunc("/api/contracts/{contractId}/versions/{version}/impact", s.getImpact).Methods("GET")
	s.router.HandleFunc("/api/contracts/{contractId}/versions/{version}/dependents", s.getVersionDependents).Methods("GET")
	s.router.HandleFunc("/api/contracts/{contractId}/dependents", s.getDependents).Methods("GET")
	s.router.HandleFunc("/api/graph", s.exportGraph).Methods("GET")
	s.router.HandleFunc("/api/graph/cycles", s.getContractCycles).Methods("GET")

	// Registry-wide routes
	s.router.HandleFunc("/api/activity-feed", s.getActivityFeed).Methods("GET")
	s.router.HandleFunc("/api/stats", s.getStats).Methods("GET")
	s.router.HandleFunc("/api/cache/stats", s.getCacheStats).Methods("GET")
}

// Handler returns the root handler, wrapped with tracing when requested.
func (s *Server) Handler() http.Handler {
	if s.traceHandlers {
		return otelhttp.NewHandler(s.router, "registry-api")
	}
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
