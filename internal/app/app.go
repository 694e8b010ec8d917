package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/config"
	"github.com/bobmcallan/mcp-workbench/internal/handlers"
	"github.com/bobmcallan/mcp-workbench/internal/interfaces"
	"github.com/bobmcallan/mcp-workbench/internal/settings"
	"github.com/bobmcallan/mcp-workbench/internal/storage"
	"github.com/bobmcallan/mcp-workbench/internal/workbench"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Storage   interfaces.StorageManager
	Settings  *settings.Store
	Workbench *workbench.Workbench

	// HTTP handlers
	PageHandler      *handlers.PageHandler
	WorkbenchHandler *handlers.WorkbenchHandler
	APIHandler       *handlers.APIHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	// Validate environment setting
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("running in dev mode")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	sm, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.Storage = sm

	a.Settings = settings.NewStore(sm.KeyValueStorage(), cfg.Client.DefaultServerURL, logger)
	a.Workbench = workbench.New(context.Background(), a.Settings, logger)

	a.initHandlers()

	logger.Info().
		Str("default_server_url", cfg.Client.DefaultServerURL).
		Str("server_url", a.Workbench.Settings().ServerURL).
		Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Workbench, a.Config.IsDevMode())
	a.WorkbenchHandler = handlers.NewWorkbenchHandler(a.Logger, a.Workbench)
	a.APIHandler = handlers.NewAPIHandler(a.Logger, a.Workbench)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
