package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intake/internal/audit"
	"intake/internal/checkout"
	httpapi "intake/internal/http"
	"intake/internal/intake/autosave"
	"intake/internal/intake/evidence"
	"intake/internal/intake/handler"
	intakemetrics "intake/internal/intake/metrics"
	"intake/internal/intake/service"
	"intake/internal/intake/snapshot"
	"intake/internal/intake/store"
	"intake/internal/platform/config"
	"intake/internal/platform/httpserver"
	"intake/internal/platform/logger"
	"intake/internal/platform/postgres"
	platformredis "intake/internal/platform/redis"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in internal services packages. Postgres, Redis, and Kafka are
// all optional; the process degrades to in-memory backends for local runs.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := intakemetrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backends, memory fallbacks when unconfigured.
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	var versions evidence.Store
	if db != nil {
		pgStore := evidence.NewPostgres(db)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("failed to migrate evidence schema", "error", err)
			os.Exit(1)
		}
		versions = pgStore
	} else {
		log.Warn("postgres not configured, using in-memory file versions")
		versions = evidence.NewMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var snapshots snapshot.Store
	if redisClient != nil {
		defer redisClient.Close()
		snapshots = snapshot.NewRedisStore(redisClient)
	} else {
		log.Warn("redis not configured, using in-memory snapshots")
		snapshots = snapshot.NewMemoryStore()
	}

	// Audit trail: queryable store plus optional Kafka forwarding.
	auditFan := audit.NewFanout(audit.NewMemoryStore(), 256)
	auditPublisher := audit.NewPublisher(auditFan)
	kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if kafkaSink != nil {
		defer kafkaSink.Close()
		worker := audit.NewWorker(kafkaSink, auditFan.Inbox())
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
	}

	// Services.
	apps := store.NewInMemoryApplicationStore()
	evidenceSvc, err := evidence.New(versions,
		evidence.WithLogger(log),
		evidence.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build evidence service", "error", err)
		os.Exit(1)
	}

	pipeline := autosave.New(snapshots, nil,
		autosave.WithQuietPeriod(cfg.AutosaveQuiet),
		autosave.WithLogger(log),
		autosave.WithCounters(m.SnapshotsSaved, m.SnapshotSaveErrors),
	)
	intakeSvc, err := service.New(apps, evidenceSvc,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(m),
		service.WithSnapshotStore(snapshots),
		service.WithAutosave(pipeline),
	)
	if err != nil {
		log.Error("failed to build intake service", "error", err)
		os.Exit(1)
	}
	pipeline.SetApplier(intakeSvc.ApplyExternal)
	go func() {
		if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("autosave pipeline stopped", "error", err)
		}
	}()

	// HTTP surface.
	tokens := checkout.NewTokenService(cfg.CheckoutSecret, cfg.CheckoutTokenTTL)
	router := httpapi.NewRouter(log,
		handler.New(intakeSvc, log),
		handler.NewExternalEventHandler(pipeline, log),
		checkout.NewHandler(intakeSvc, tokens, cfg.CheckoutBaseURL, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting intake server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
