package app

import (
	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/internal/domains/voicesession"
	"github.com/petrioteer/swatantra.ai/internal/server"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
)

// App represents the application with all its dependencies
type App struct {
	Config       *config.Settings
	Logger       *Logger.Logger
	Providers    *upstream.Registry
	VoiceService voicesession.Service
	ServerDeps   server.Dependencies
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// 1. Upstream provider registry
	if err := a.setupProviders(); err != nil {
		return err
	}

	// 2. Session service over the registry
	a.VoiceService = voicesession.New(*a.Config, a.Providers, a.Logger)

	// 3. Server deps
	a.ServerDeps = server.NewServerDependencies(
		a.VoiceService,
		a.Logger,
		a.Config,
	)

	return nil
}

// setupProviders builds the upstream provider registry
func (a *App) setupProviders() error {
	factory := NewProviderFactory(a.Config, a.Logger)

	registry, err := factory.CreateRegistry()
	if err != nil {
		return err
	}

	a.Providers = registry
	return nil
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}

// Shutdown terminates every live session and stops background work.
func (a *App) Shutdown() {
	if a.VoiceService != nil {
		a.VoiceService.Close()
	}
}
