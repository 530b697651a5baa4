package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfriedel/looksel/internal/app"
	"github.com/mfriedel/looksel/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load footprint files from storage into the scene store",
	RunE:  runIngest,
}

func runIngest(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Store.Close(); err != nil {
			logger.Error("scene store close error", "error", err)
		}
	}()

	if err := a.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating scene store: %w", err)
	}

	if err := a.Pool.LoadAll(ctx); err != nil {
		return fmt.Errorf("loading footprints: %w", err)
	}

	footprints := a.Pool.Snapshot()
	inserted, err := a.Store.InsertFootprints(ctx, footprints)
	if err != nil {
		return fmt.Errorf("storing footprints: %w", err)
	}

	logger.Info("ingest done",
		"loaded", len(footprints),
		"invalid", a.Pool.InvalidCount(),
		"stored", inserted,
	)
	return nil
}
