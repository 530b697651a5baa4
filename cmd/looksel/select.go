package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfriedel/looksel/internal/adapters/export"
	"github.com/mfriedel/looksel/internal/app"
	"github.com/mfriedel/looksel/internal/application"
	"github.com/mfriedel/looksel/internal/config"
)

// selectFlags carries the per-run parameter overrides for a selection
// command. Only flags the user actually set override the config file.
type selectFlags struct {
	metric           string
	minMetric        float64
	minArea          float64
	minPairs         int
	withinStrip      bool
	withinInstrument bool
	daysThreshold    int
	rerank           bool
	workers          int
	fromStore        bool
	output           string
	idsOut           string
}

// newSelectCmd builds the stereo or multilook selection command. Both
// share the same flag surface; mode picks the pipeline.
func newSelectCmd(mode string) *cobra.Command {
	flags := &selectFlags{}

	short := "Select stereo pairs from the footprint pool"
	if mode == "multilook" {
		short = "Select chained multilook groups from the footprint pool"
	}

	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelect(cmd, mode, flags)
		},
	}

	cmd.Flags().StringVar(&flags.metric, "metric", "area", "overlap metric (area, percent)")
	cmd.Flags().Float64Var(&flags.minMetric, "min-metric", 0, "strict lower bound for the pair metric")
	cmd.Flags().Float64Var(&flags.minArea, "min-area", 0, "area floor for multilook chains")
	cmd.Flags().IntVar(&flags.minPairs, "min-pairs", 0, "minimum chain length before emitting groups")
	cmd.Flags().BoolVar(&flags.withinStrip, "within-strip", false, "restrict candidates to the anchor's strip")
	cmd.Flags().BoolVar(&flags.withinInstrument, "within-instrument", false, "restrict candidates to the anchor's instrument")
	cmd.Flags().IntVar(&flags.daysThreshold, "days-threshold", 0, "symmetric acquisition date window in days, 0 disables")
	cmd.Flags().BoolVar(&flags.rerank, "rerank", false, "re-rank candidates against the shrinking intersection")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "anchor worker pool size")
	cmd.Flags().BoolVar(&flags.fromStore, "from-store", false, "load the pool from the scene store instead of object storage")
	cmd.Flags().StringVar(&flags.output, "output", "", "write results as GeoJSON to this file")
	cmd.Flags().StringVar(&flags.idsOut, "ids-out", "", "write the distinct scene id list to this file")

	return cmd
}

func runSelect(cmd *cobra.Command, mode string, flags *selectFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applySelectOverrides(cmd, cfg, flags)

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

	if err := loadPool(ctx, a, flags.fromStore); err != nil {
		return err
	}

	params, err := cfg.Selection.Params()
	if err != nil {
		return err
	}

	pool := a.Pool.Snapshot()
	logger.Info("starting selection", "mode", mode, "footprints", len(pool))

	if mode == "multilook" {
		groups, err := a.Multilook.SelectGroups(ctx, pool, params)
		if err != nil {
			return fmt.Errorf("multilook selection: %w", err)
		}

		inserted, err := a.Store.InsertGroups(ctx, groups)
		if err != nil {
			return fmt.Errorf("storing groups: %w", err)
		}
		logger.Info("multilook selection done", "groups", len(groups), "stored", inserted)

		if flags.output != "" {
			rows := a.Assembler.GroupRows(groups)
			if err := writeRows(flags.output, rows); err != nil {
				return err
			}
		}
		if flags.idsOut != "" {
			return writeToFile(flags.idsOut, func(f *os.File) error {
				return export.WriteSceneIDs(f, groups)
			})
		}
		return nil
	}

	pairs, err := a.Stereo.SelectPairs(ctx, pool, params)
	if err != nil {
		return fmt.Errorf("stereo selection: %w", err)
	}

	inserted, err := a.Store.InsertPairs(ctx, pairs)
	if err != nil {
		return fmt.Errorf("storing pairs: %w", err)
	}
	logger.Info("stereo selection done", "pairs", len(pairs), "stored", inserted)

	if flags.output != "" {
		rows := a.Assembler.PairRows(pairs, pool)
		if err := writeRows(flags.output, rows); err != nil {
			return err
		}
	}
	if flags.idsOut != "" {
		return writeToFile(flags.idsOut, func(f *os.File) error {
			return export.WritePairSceneIDs(f, pairs)
		})
	}
	return nil
}

// applySelectOverrides copies explicitly set flags over the loaded config.
func applySelectOverrides(cmd *cobra.Command, cfg *config.Config, flags *selectFlags) {
	set := cmd.Flags().Changed
	if set("metric") {
		cfg.Selection.Metric = flags.metric
	}
	if set("min-metric") {
		cfg.Selection.MinMetric = flags.minMetric
	}
	if set("min-area") {
		cfg.Selection.MinArea = flags.minArea
	}
	if set("min-pairs") {
		cfg.Selection.MinPairs = flags.minPairs
	}
	if set("within-strip") {
		cfg.Selection.WithinStrip = flags.withinStrip
	}
	if set("within-instrument") {
		cfg.Selection.WithinInstrument = flags.withinInstrument
	}
	if set("days-threshold") {
		cfg.Selection.DaysThreshold = flags.daysThreshold
	}
	if set("rerank") {
		cfg.Selection.Rerank = flags.rerank
	}
	if set("workers") {
		cfg.Selection.Workers = flags.workers
	}
}

// loadPool fills the footprint pool from object storage or the store.
func loadPool(ctx context.Context, a *app.App, fromStore bool) error {
	if fromStore {
		footprints, err := a.Store.Footprints(ctx)
		if err != nil {
			return fmt.Errorf("loading footprints from store: %w", err)
		}
		a.Pool.Add(footprints)
		return nil
	}
	if err := a.Pool.LoadAll(ctx); err != nil {
		return fmt.Errorf("loading footprints: %w", err)
	}
	return nil
}

// writeRows writes assembled result rows to a GeoJSON file.
func writeRows(path string, rows []application.ResultRow) error {
	return writeToFile(path, func(f *os.File) error {
		return export.NewGeoJSONWriter().Write(f, rows)
	})
}

// writeToFile creates path and runs write against it.
func writeToFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
