package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sorobanhub/registry/pkg/abi"
	"github.com/sorobanhub/registry/pkg/analytics"
	"github.com/sorobanhub/registry/pkg/api"
	"github.com/sorobanhub/registry/pkg/cache"
	"github.com/sorobanhub/registry/pkg/config"
	"github.com/sorobanhub/registry/pkg/graph"
	"github.com/sorobanhub/registry/pkg/httputil"
	"github.com/sorobanhub/registry/pkg/observability"
	"github.com/sorobanhub/registry/pkg/registry"
	"github.com/sorobanhub/registry/pkg/storage"
	"github.com/sorobanhub/registry/pkg/storage/postgres"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "registryd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"storage": cfg.Storage.Type,
		"port":    cfg.Server.Port,
	}).Info("starting contract registry")

	ctx := context.Background()

	var providers *observability.OTelProviders
	if cfg.Observability.OTelEnabled {
		providers, err = observability.InitOTel(ctx, observability.OTelConfig{
			Enabled:        true,
			Endpoint:       cfg.Observability.OTelEndpoint,
			ServiceName:    cfg.Observability.OTelServiceName,
			ServiceVersion: serviceVersion,
			Insecure:       cfg.Observability.OTelInsecure,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
	}

	// Metadata store.
	var (
		meta    storage.Store
		pgStore *postgres.PostgresStore
	)
	switch cfg.Storage.Type {
	case "postgres":
		pgStore, err = postgres.NewPostgresStore(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		meta = pgStore
	default:
		meta = storage.NewMemoryStore()
	}

	// Result cache.
	var (
		resultCache cache.ResultCache
		redisCache  *cache.RedisCache
	)
	if cfg.Storage.RedisURL != "" {
		redisCache, err = cache.NewRedisCache(cfg.Storage.RedisURL, cfg.Storage.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		resultCache = redisCache
		logger.Info("result cache backed by redis")
	} else {
		resultCache = cache.NewMemoryCache(cfg.Storage.CacheMaxEntries, cfg.Storage.CacheTTL)
		logger.Info("result cache backed by in-process LRU")
	}

	// Activity tracking shares the metadata pool; memory deployments run
	// without it.
	var tracker *analytics.Tracker
	if cfg.Analytics.Enabled && pgStore != nil {
		tracker = analytics.NewTracker(pgStore.DB(), logrus.New())
	}

	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(promRegistry)
	}

	// Graph store, rebuilt from persisted versions so restarts resume with
	// the full dependency graph.
	graphStore := graph.NewStore()
	if err := rebuildGraph(ctx, graphStore, meta, logger); err != nil {
		return fmt.Errorf("failed to rebuild graph: %w", err)
	}
	snap := graphStore.Current()
	logger.WithFields(map[string]interface{}{
		"epoch": snap.Epoch(),
		"nodes": snap.NodeCount(),
		"edges": snap.EdgeCount(),
	}).Info("dependency graph ready")
	if metrics != nil {
		metrics.GraphNodes.Set(float64(snap.NodeCount()))
		metrics.GraphEdges.Set(float64(snap.EdgeCount()))
		metrics.GraphEpoch.Set(float64(snap.Epoch()))
	}

	coordinator := registry.NewCoordinator(graphStore, meta, resultCache, tracker, logger, metrics)
	queries := registry.NewService(graphStore, resultCache, logger, metrics)

	apiServer := api.NewServer(coordinator, queries, meta, tracker, logger, api.Options{
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		Metrics:       metrics,
		TraceHandlers: cfg.Observability.OTelEnabled,
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics live on their own port so probes bypass the API
	// middleware stack.
	healthMux := http.NewServeMux()
	checker := newHealthChecker(pgStore, redisCache)
	observability.RegisterHealthRoutes(healthMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, promRegistry)
	}
	healthServer := &http.Server{
		Addr: cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: httputil.Chain(
			httputil.RequestIDMiddleware,
			httputil.RecoveryMiddleware(logger),
		)(healthMux),
	}

	sm := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if redisCache != nil {
		sm.RegisterShutdownFunc(func(context.Context) error {
			return redisCache.Close()
		})
	}
	if providers != nil {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", server.Addr).Info("api server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(sm.WaitForShutdown)

	return g.Wait()
}

// rebuildGraph replays every persisted version into a fresh graph store in
// publication order. Committed versions passed the cycle check when first
// published, so the replay is expected to succeed; a version that no longer
// commits is logged and skipped rather than blocking startup.
func rebuildGraph(ctx context.Context, g *graph.Store, meta storage.Store, logger *observability.Logger) error {
	const pageSize = 200

	var versions []*storage.ContractVersion
	for offset := 0; ; offset += pageSize {
		contracts, _, err := meta.ListContractsPaginated(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		if len(contracts) == 0 {
			break
		}
		for _, c := range contracts {
			vs, err := meta.ListVersions(ctx, c.ContractID)
			if err != nil {
				return err
			}
			versions = append(versions, vs...)
		}
		if len(contracts) < pageSize {
			break
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.Before(versions[j].CreatedAt)
	})

	for _, v := range versions {
		var doc abi.InterfaceDocument
		if len(v.InterfaceDoc) > 0 {
			if err := json.Unmarshal(v.InterfaceDoc, &doc); err != nil {
				logger.WithError(err).WithField("version", v.ContractID+"@"+v.VersionLabel).Warn("skipping version with unreadable interface document")
				continue
			}
		}
		doc.ContractID = v.ContractID

		refs, err := abi.Extract(&doc)
		if err != nil {
			logger.WithError(err).WithField("version", v.ContractID+"@"+v.VersionLabel).Warn("skipping version with malformed interface document")
			continue
		}

		ref := graph.VersionRef{ContractID: v.ContractID, VersionLabel: v.VersionLabel}
		if _, err := g.CommitNewVersion(ref, v.InterfaceHash, refs); err != nil {
			logger.WithError(err).WithField("version", ref.Key()).Warn("skipping version that no longer commits")
		}
	}
	return nil
}

func newHealthChecker(pg *postgres.PostgresStore, rc *cache.RedisCache) *observability.HealthChecker {
	if pg != nil && rc != nil {
		return observability.NewHealthChecker(pg.DB(), rc.Client())
	}
	if pg != nil {
		return observability.NewHealthChecker(pg.DB(), nil)
	}
	if rc != nil {
		return observability.NewHealthChecker(nil, rc.Client())
	}
	return observability.NewHealthChecker(nil, nil)
}
