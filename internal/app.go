// Package internal provides the App struct that wires the monitor's storage
// backend, fetcher, core services, and notifiers together and initializes
// the CLI layer.
package internal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/cli"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/core"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/fetcher"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/notify"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage/postgres"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage/sqlite"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/tabular"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// App holds all service dependencies for the monitor.
type App struct {
	BasePath string
	Cfg      *models.Config

	// Configuration
	ConfigMgr core.ConfigManager

	// Storage layer
	Registry core.Registry
	Events   core.EventLog

	// Core services
	Fetcher     core.Fetcher
	Evaluator   core.Evaluator
	Lifecycle   core.Lifecycle
	Initializer core.WorkspaceInitializer

	// Notifications
	Notifier notify.Notifier

	closeStore func() error
}

// NewApp creates and wires all components of the monitor. basePath is the
// directory holding .sheetconfig and, for the csv driver, the data files.
func NewApp(ctx context.Context, basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, errs.Wrap(err, "loading config")
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Cfg = cfg

	// --- Storage layer ---
	switch cfg.StorageDriver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.StorageDSN)
		if err != nil {
			return nil, err
		}
		registry, err := sqlite.NewRegistry(db)
		if err != nil {
			return nil, err
		}
		events, err := sqlite.NewEventLog(db)
		if err != nil {
			return nil, err
		}
		app.Registry = registry
		app.Events = events
		app.closeStore = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.StorageDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		app.Registry = postgres.NewRegistry(db)
		app.Events = postgres.NewEventLog(db)
		app.closeStore = func() error {
			db.Close()
			return nil
		}
	default:
		dir := cfg.StoragePath
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(basePath, dir)
		}
		store, err := tabular.NewCSVStore(dir)
		if err != nil {
			return nil, err
		}
		registry, err := storage.NewRegistry(store)
		if err != nil {
			return nil, err
		}
		events, err := storage.NewEventLog(store)
		if err != nil {
			return nil, err
		}
		app.Registry = registry
		app.Events = events
	}

	// --- Core services ---
	app.Fetcher = fetcher.New()
	app.Lifecycle = core.NewLifecycle(app.Registry, app.Events, app.Fetcher)
	app.Evaluator = core.NewEvaluator(app.Registry, app.Events, app.Fetcher, slog.Default())
	app.Initializer = core.NewWorkspaceInitializer()

	// --- Notifications ---
	if cfg.Notify.Enabled {
		app.Notifier = notify.FromConfig(cfg.Notify)
	}

	// --- Wire CLI package-level variables ---
	cli.Cfg = cfg
	cli.Registry = app.Registry
	cli.Events = app.Events
	cli.Lifecycle = app.Lifecycle
	cli.Evaluator = app.Evaluator
	cli.Notifier = app.Notifier
	cli.Initializer = app.Initializer

	return app, nil
}

// Close releases resources held by the App, such as the database handle.
// It is safe to call Close on an App using the csv backend.
func (a *App) Close() error {
	if a.closeStore != nil {
		return a.closeStore()
	}
	return nil
}

// ResolveBasePath determines the base path for the monitor's data directory.
// It checks the GSDA_HOME env var, then walks up from the current directory
// looking for a .sheetconfig file.
func ResolveBasePath() string {
	if home := os.Getenv("GSDA_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".sheetconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}
