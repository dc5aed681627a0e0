// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the chat server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/httpclient"
	"github.com/aiautotool/chathub/internal/observability"
	"github.com/aiautotool/chathub/internal/providers"
	"github.com/aiautotool/chathub/internal/server"
)

// App represents the main application with all its dependencies.
type App struct {
	config     *config.Config
	dispatcher *providers.Dispatcher
	server     *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig is the loaded application configuration.
	AppConfig *config.Config

	// Factory provides the ProviderFactory used to construct adapters.
	// Vendors must already be registered on it.
	Factory *providers.ProviderFactory

	// Registerer and Gatherer back the metrics endpoint.
	// Nil selects the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// New creates a new App with all dependencies initialized.
func New(cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if cfg.Factory == nil {
		return nil, fmt.Errorf("factory is required")
	}

	appCfg := cfg.AppConfig
	app := &App{config: appCfg}

	clientCfg := httpclient.DefaultConfig().WithTimeouts(appCfg.HTTP.Timeout, appCfg.HTTP.ResponseHeaderTimeout)
	cfg.Factory.SetHTTPClient(httpclient.NewHTTPClient(&clientCfg))
	cfg.Factory.SetPolicy(providers.PolicyFromConfig(appCfg.Chat))

	gatherer := cfg.Gatherer
	if appCfg.Metrics.Enabled {
		registerer := cfg.Registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		cfg.Factory.SetHooks(observability.NewMetrics(registerer).Hooks())
	}

	dispatcher, err := providers.NewDispatcher(cfg.Factory, appCfg.Providers, providers.DefaultRoutes)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	app.dispatcher = dispatcher

	app.logStartupInfo()

	app.server = server.New(dispatcher, &server.Config{
		MasterKey:       appCfg.Server.MasterKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   appCfg.Server.BodySizeLimit,
		MetricsGatherer: gatherer,
	})

	return app, nil
}

// Dispatcher returns the request dispatcher.
func (a *App) Dispatcher() *providers.Dispatcher {
	return a.dispatcher
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, honoring the context deadline.
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Server.MasterKey == "" {
		slog.Warn("CHATHUB_MASTER_KEY not set, /api routes are unauthenticated")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	configured := cfg.ConfiguredProviders()
	if len(configured) == 0 {
		slog.Warn("no vendor API keys configured; every chat request will fail")
	}
	slog.Info("chat policy",
		"context_window", cfg.Chat.ContextWindow,
		"max_output_tokens", cfg.Chat.MaxOutputTokens,
		"temperature", cfg.Chat.Temperature,
		"providers", configured,
	)
}
