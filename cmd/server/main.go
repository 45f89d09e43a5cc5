package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/fieldops/ingest/internal/blob"
	"github.com/fieldops/ingest/internal/config"
	"github.com/fieldops/ingest/internal/ingest"
	"github.com/fieldops/ingest/internal/logging"
	_ "github.com/fieldops/ingest/internal/schema" // Register all entity kinds
	"github.com/fieldops/ingest/internal/store"
	"github.com/fieldops/ingest/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	// Document store
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	docStore := store.New(pool)
	if err := docStore.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure store schema", "error", err)
		os.Exit(1)
	}

	// Object store
	blobs, err := blob.New(ctx, blob.Options{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		slog.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}

	service := ingest.NewService(
		ingest.Deps{Docs: docStore, Keys: docStore, Seq: docStore, Blobs: blobs},
		ingest.Options{
			MaxBatchSize:    cfg.Ingest.MaxBatchSize,
			ValidateWorkers: cfg.Ingest.ValidateWorkers,
			MediaWorkers:    cfg.Ingest.MediaWorkers,
			Org:             cfg.Ingest.Org,
		},
		ingest.ServiceConfig{
			MaxConcurrentJobs: cfg.Ingest.MaxConcurrentJobs,
			MaxWaitTime:       cfg.Ingest.MaxWaitTime,
			Timeout:           cfg.Ingest.Timeout,
		},
		slog.Default(),
	)

	slog.Info("entity kinds registered", "kinds", ingest.Kinds())

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.ActiveJobs(); active > 0 {
			slog.Info("waiting for jobs to complete", "active", active)
			if err := service.WaitForJobs(shutdownCtx); err != nil {
				slog.Warn("jobs did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
