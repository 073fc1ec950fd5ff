package app

import (
	"fmt"

	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
	"github.com/petrioteer/swatantra.ai/pkg/upstream"
	"github.com/petrioteer/swatantra.ai/pkg/upstream/gemini"
	"github.com/petrioteer/swatantra.ai/pkg/upstream/openairt"
)

// ProviderFactory creates the upstream provider registry from configuration
type ProviderFactory struct {
	config *config.Settings
	logger *Logger.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *config.Settings, logger *Logger.Logger) *ProviderFactory {
	return &ProviderFactory{
		config: config,
		logger: logger,
	}
}

// CreateRegistry registers every built-in provider adapter and verifies the
// configured one is among them. Sessions resolve the provider at dial time,
// so a config change is enough to switch.
func (f *ProviderFactory) CreateRegistry() (*upstream.Registry, error) {
	registry := upstream.NewRegistry()
	registry.Register(gemini.New(f.logger))
	registry.Register(openairt.New(f.logger))

	if _, err := registry.Get(f.config.Upstream.Provider); err != nil {
		return nil, fmt.Errorf("upstream provider not usable: %w", err)
	}
	if f.config.Upstream.APIKey == "" {
		f.logger.Warn("upstream API key not configured, session starts will fail")
	}

	f.logger.Infof("provider registry created with %v, using %q",
		registry.Providers(), f.config.Upstream.Provider)

	return registry, nil
}
