// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mfriedel/looksel/internal/adapters/geometry"
	httpAdapter "github.com/mfriedel/looksel/internal/adapters/http"
	"github.com/mfriedel/looksel/internal/adapters/ingest"
	"github.com/mfriedel/looksel/internal/adapters/metrics"
	"github.com/mfriedel/looksel/internal/adapters/storage"
	"github.com/mfriedel/looksel/internal/adapters/store"
	tlsAdapter "github.com/mfriedel/looksel/internal/adapters/tls"
	"github.com/mfriedel/looksel/internal/adapters/watcher"
	"github.com/mfriedel/looksel/internal/application"
	"github.com/mfriedel/looksel/internal/config"
	"github.com/mfriedel/looksel/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Store         output.SceneStore
	Pool          *application.FootprintPool
	Stereo        *application.StereoService
	Multilook     *application.MultilookService
	Assembler     *application.Assembler
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("looksel")
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize storage adapter
	objectStorage, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = objectStorage

	// Initialize scene store
	sceneStore, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("initializing scene store: %w", err)
	}
	app.Store = sceneStore

	// Initialize footprint pool
	parser := ingest.NewGeoJSONParser(logger)
	app.Pool = application.NewFootprintPool(objectStorage, parser, metricsCollector, logger)

	// Initialize selection services
	engine := &geometry.Engine{}
	app.Stereo = application.NewStereoService(engine, metricsCollector, logger, cfg.Selection.Workers)
	app.Multilook = application.NewMultilookService(engine, metricsCollector, logger, cfg.Selection.Workers)
	app.Assembler = application.NewAssembler(application.DefaultSchema())

	// Initialize health service
	app.HealthService = application.NewHealthService(app.Pool)

	// Initialize HTTP server
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.Store,
		app.HealthService,
		app.Assembler,
		logger,
	)

	// Expose Prometheus metrics on the main router
	if app.Metrics != nil {
		router := app.HTTPServer.Router()
		router.Handle(cfg.Metrics.Path, metrics.Handler())
		router.Use(app.Metrics.Middleware)
	}

	// Initialize TLS server if enabled
	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Enabled:  cfg.TLS.Enabled,
				Domains:  cfg.TLS.Domains,
				Email:    cfg.TLS.Email,
				CacheDir: cfg.TLS.CacheDir,
				Staging:  cfg.TLS.Staging,
				DNS: tlsAdapter.DNSConfig{
					SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
					ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
					ClientID:          cfg.TLS.DNS.ClientID,
				},
			},
			app.HTTPServer.Router(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	// Initialize file watcher for pool hot-reload
	if cfg.Storage.Type == "local" && cfg.Storage.Watch {
		w, err := watcher.New(
			watcher.Config{
				Paths: []string{cfg.Storage.LocalPath},
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	// Prepare the scene store schema
	if err := a.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating scene store: %w", err)
	}

	// Load all footprint files from storage
	if err := a.Pool.LoadAll(ctx); err != nil {
		a.Logger.Warn("failed to load footprints", "error", err)
	}

	// Start file watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	// Start server
	if a.Config.TLS.Enabled && a.TLSServer != nil {
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	// Close the scene store
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("scene store close error", "error", err)
	}

	return nil
}

// handleFileEvent handles file system events for pool hot-reload.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	key, err := filepath.Rel(a.Config.Storage.LocalPath, event.Path)
	if err != nil {
		key = filepath.Base(event.Path)
	}

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		return a.Pool.LoadObject(ctx, key)

	case watcher.OpDelete:
		// Records from the deleted file stay in the pool until the next
		// full reload; a file does not map back to its scene ids.
		a.Logger.Warn("footprint file removed, pool not pruned", "key", key)
		return nil
	}

	return nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// initStore initializes the configured scene store driver.
func initStore(ctx context.Context, cfg config.StoreConfig) (output.SceneStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.NewSQLiteStore(ctx, cfg.Path)

	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DSN)

	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
