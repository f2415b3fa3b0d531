package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tmdiallo/stockalerte/internal/config"
	"github.com/tmdiallo/stockalerte/internal/log"
	"github.com/tmdiallo/stockalerte/internal/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := remote.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	logger.InfoContext(ctx, "starting mirror database migration")

	if err := remote.Migrate(pgxPool); err != nil {
		return fmt.Errorf("error migrating mirror database: %w", err)
	}

	logger.InfoContext(ctx, "mirror database migration completed successfully")

	return nil
}
