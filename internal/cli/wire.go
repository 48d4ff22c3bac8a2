package cli

import (
	"log/slog"
	"os"

	"github.com/sessionlens/sessionlens/internal/config"
	"github.com/sessionlens/sessionlens/internal/extract"
	"github.com/sessionlens/sessionlens/internal/hook"
	"github.com/sessionlens/sessionlens/internal/insight"
	"github.com/sessionlens/sessionlens/internal/locate"
	"github.com/sessionlens/sessionlens/internal/provider"
	"github.com/sessionlens/sessionlens/internal/storage"
)

// loadConfig reads configuration, falling back to defaults when the
// config files are broken. Commands keep working either way.
func loadConfig(logger *slog.Logger) config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config load failed, using defaults", "error", err)
		return config.Default()
	}
	return cfg
}

// newRegistry registers an OpenAI-compatible provider when one is
// configured and its API key is present.
func newRegistry(cfg config.Config) *provider.Registry {
	reg := provider.NewRegistry()
	if !cfg.Provider.Enabled {
		return reg
	}
	key := os.Getenv(cfg.Provider.APIKeyEnv)
	if key == "" {
		return reg
	}
	reg.Register("openai", provider.NewOpenAI(key, cfg.Provider.Model,
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithTemperature(cfg.Provider.Temperature)))
	return reg
}

// buildHook assembles the session-end pipeline with its real
// collaborators. The catalog is optional: a broken database disables
// listing, not capture.
func buildHook(cfg config.Config, logger *slog.Logger) (*hook.Hook, *hook.Supervisor, func()) {
	supervisor := hook.NewSupervisor(logger)
	store := storage.NewStore(cfg.InsightsDir(), cfg.Privacy.Level, logger)

	catalog, err := storage.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		logger.Warn("catalog unavailable", "error", err)
		catalog = nil
	}
	cleanup := func() {
		if catalog != nil {
			catalog.Close()
		}
	}

	h := hook.New(cfg,
		locate.DirLocator{Root: cfg.Root},
		extract.New(cfg, logger),
		insight.NewGenerator(newRegistry(cfg), cfg, logger),
		store,
		catalog,
		supervisor,
		hook.LogEmitter{Logger: logger},
		logger,
	)
	return h, supervisor, cleanup
}
