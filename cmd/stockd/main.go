package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/tmdiallo/stockalerte/internal/config"
	"github.com/tmdiallo/stockalerte/internal/http"
	"github.com/tmdiallo/stockalerte/internal/inventory"
	"github.com/tmdiallo/stockalerte/internal/log"
	"github.com/tmdiallo/stockalerte/internal/netwatch"
	"github.com/tmdiallo/stockalerte/internal/remote"
	"github.com/tmdiallo/stockalerte/internal/replicator"
	"github.com/tmdiallo/stockalerte/internal/restore"
	"github.com/tmdiallo/stockalerte/internal/store"
	"github.com/tmdiallo/stockalerte/internal/telemetry"
	"github.com/tmdiallo/stockalerte/pkg/cmdutil"
	"github.com/tmdiallo/stockalerte/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running stockd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Store    config.Store
		Postgres config.Postgres
		HTTP     config.HTTP
		Sync     config.Sync
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	// The local store is the source of truth; failing to open it is fatal.
	localStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("error opening local store: %w", err)
	}
	defer localStore.Close()

	// The mirror pool is lazy; an unreachable backend must not stop the app.
	pgxPool, err := remote.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()
	remoteClient := remote.NewPgClient(pgxPool)

	bus := evbus.New()
	watcher := netwatch.NewWatcher(logger, remoteClient, bus, cfg.Sync.ProbeInterval)
	replicatorSvc := replicator.NewService(logger, localStore, remoteClient, bus, cfg.Sync.TaskBuffer)
	restoreEngine := restore.NewEngine(logger, localStore, remoteClient)

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	inventorySvc, err := inventory.NewService(logger, localStore, replicatorSvc, restoreEngine, watcher, v)
	if err != nil {
		return fmt.Errorf("error creating inventory service: %w", err)
	}

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		cleanup, err := replicatorSvc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running replicator service: %w", err))
		}
		logger.InfoContext(ctx, "replicator service started")

		<-interruptChan

		logger.InfoContext(ctx, "replicator service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "replicator service is stopped")
	})

	wg.Go(func() {
		cleanup := watcher.Run(ctx)
		logger.InfoContext(ctx, "connectivity watcher started")

		// Already-queued work from a previous run drains at startup when the
		// mirror is reachable.
		if cfg.Sync.DrainOnStart && watcher.Online() {
			if _, err := replicatorSvc.Drain(ctx); err != nil {
				logger.ErrorContext(ctx, "startup drain failed", slog.Any("error", err))
			}
		}

		<-interruptChan

		logger.InfoContext(ctx, "connectivity watcher is shutting down")
		cleanup()

		logger.InfoContext(ctx, "connectivity watcher is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, inventorySvc)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Wait()

	return nil
}
