package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfriedel/looksel/internal/adapters/catalog"
	"github.com/mfriedel/looksel/internal/adapters/ingest"
	"github.com/mfriedel/looksel/internal/app"
	"github.com/mfriedel/looksel/internal/config"
)

var (
	searchFile   string
	searchOutput string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query the Planet Data API and store the matching footprints",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchFile, "search", "", "saved search config file (YAML)")
	searchCmd.Flags().StringVar(&searchOutput, "output", "", "also write the footprints as GeoJSON to this file")
	_ = searchCmd.MarkFlagRequired("search")
}

func runSearch(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	search, err := catalog.LoadSearchConfig(searchFile)
	if err != nil {
		return fmt.Errorf("loading search config: %w", err)
	}

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL:  cfg.Catalog.BaseURL,
		APIKey:   cfg.Catalog.APIKey,
		PageSize: cfg.Catalog.PageSize,
		Timeout:  cfg.Catalog.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing catalog client: %w", err)
	}

	footprints, err := client.SearchSaved(ctx, search)
	if err != nil {
		return fmt.Errorf("searching catalog: %w", err)
	}

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

	inserted, err := a.Store.InsertFootprints(ctx, footprints)
	if err != nil {
		return fmt.Errorf("storing footprints: %w", err)
	}

	logger.Info("search done",
		"search", search.Name,
		"footprints", len(footprints),
		"stored", inserted,
	)

	if searchOutput != "" {
		data, err := ingest.MarshalFootprints(footprints)
		if err != nil {
			return fmt.Errorf("encoding footprints: %w", err)
		}
		if err := os.WriteFile(searchOutput, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", searchOutput, err)
		}
	}
	return nil
}
