package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sorobanhub/registry/pkg/analytics"
	"github.com/sorobanhub/registry/pkg/storage/postgres"
)

var (
	dbURL         = flag.String("db-url", getEnv("REGISTRY_POSTGRES_URL", "postgres://localhost/registry?sslmode=disable"), "PostgreSQL connection URL")
	retentionDays = flag.Int("retention-days", getEnvInt("REGISTRY_ANALYTICS_RETENTION_DAYS", 90), "Days of activity events to keep")
	retentionCron = flag.String("retention-schedule", "30 0 * * *", "Cron schedule for the retention sweep (default: 00:30 UTC)")
	statsCron     = flag.String("stats-schedule", "0 * * * *", "Cron schedule for registry stats logging (default: every hour)")
	runOnce       = flag.Bool("run-once", false, "Run the retention sweep once and exit")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}

	store := postgres.NewPostgresStoreWithDB(db)
	tracker := analytics.NewTracker(db, log)

	if *runOnce {
		if err := runRetentionSweep(context.Background(), tracker, *retentionDays, log); err != nil {
			log.WithError(err).Fatal("retention sweep failed")
		}
		return
	}

	c := cron.New()

	_, err = c.AddFunc(*retentionCron, func() {
		if err := runRetentionSweep(context.Background(), tracker, *retentionDays, log); err != nil {
			log.WithError(err).Error("retention sweep failed")
		}
	})
	if err != nil {
		log.WithError(err).Fatal("failed to schedule retention sweep")
	}

	_, err = c.AddFunc(*statsCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stats, err := store.Stats(ctx)
		if err != nil {
			log.WithError(err).Error("failed to collect registry stats")
			return
		}
		log.WithFields(logrus.Fields{
			"contracts":  stats.TotalContracts,
			"verified":   stats.VerifiedContracts,
			"publishers": stats.TotalPublishers,
			"versions":   stats.TotalVersions,
		}).Info("registry stats")
	})
	if err != nil {
		log.WithError(err).Fatal("failed to schedule stats logging")
	}

	c.Start()
	log.WithFields(logrus.Fields{
		"retention_schedule": *retentionCron,
		"retention_days":     *retentionDays,
		"stats_schedule":     *statsCron,
	}).Info("registry maintenance started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	<-c.Stop().Done()
	log.Info("maintenance stopped")
}

func runRetentionSweep(ctx context.Context, tracker *analytics.Tracker, days int, log *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, err := tracker.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("retention sweep completed")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
