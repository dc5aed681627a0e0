package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
)

// Dispatcher routes chat requests to the adapter that owns their model.
// The routing table is fixed at construction and never changes afterwards,
// so a Dispatcher is safe for concurrent use.
type Dispatcher struct {
	adapters map[core.ModelType]core.Adapter
	models   []core.ModelInfo
}

var _ core.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates one adapter per provider type referenced by routes and
// verifies the table is total: every ModelType must be routed to a registered
// provider whose model table contains it. Any gap is a boot-time error.
//
// Provider types missing from providerConfigs get an adapter without a
// credential; calls to it fail with a configuration error.
func NewDispatcher(factory *ProviderFactory, providerConfigs map[string]config.ProviderConfig, routes map[core.ModelType]string) (*Dispatcher, error) {
	if factory == nil {
		return nil, fmt.Errorf("provider factory is required")
	}

	for model := range routes {
		if !model.Valid() {
			return nil, fmt.Errorf("routing table names unknown model %q", model)
		}
	}

	types := make([]string, 0, len(routes))
	seen := make(map[string]bool)
	for _, providerType := range routes {
		if !seen[providerType] {
			seen[providerType] = true
			types = append(types, providerType)
		}
	}
	sort.Strings(types)

	built := make(map[string]core.Adapter, len(types))
	for _, providerType := range types {
		cfg, ok := providerConfigs[providerType]
		if !ok {
			cfg = config.ProviderConfig{Type: providerType}
		}
		cfg.Type = providerType

		adapter, err := factory.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %s: %w", providerType, err)
		}
		built[providerType] = adapter

		if cfg.APIKey == "" {
			slog.Warn("provider has no credential; requests for its models will fail", "provider", providerType)
		} else {
			slog.Info("provider initialized", "provider", providerType)
		}
	}

	d := &Dispatcher{
		adapters: make(map[core.ModelType]core.Adapter, len(core.AllModelTypes)),
		models:   make([]core.ModelInfo, 0, len(core.AllModelTypes)),
	}
	for _, model := range core.AllModelTypes {
		providerType, ok := routes[model]
		if !ok {
			return nil, fmt.Errorf("model %s has no route", model)
		}
		adapter := built[providerType]
		if !adapter.Supports(model) {
			return nil, fmt.Errorf("provider %s does not support routed model %s", providerType, model)
		}
		d.adapters[model] = adapter
		d.models = append(d.models, modelInfo(model, providerType))
	}

	return d, nil
}

// Route returns the adapter for model, or an unsupported model error.
func (d *Dispatcher) Route(model core.ModelType) (core.Adapter, error) {
	adapter, ok := d.adapters[model]
	if !ok {
		return nil, core.NewUnsupportedModelError(model)
	}
	return adapter, nil
}

// Dispatch sends req to the adapter owning req.Model and returns its result unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	adapter, err := d.Route(req.Model)
	if err != nil {
		return nil, err
	}
	return adapter.Chat(ctx, req.Model, req.Messages)
}

// Models returns the catalog of routed models in enumeration order.
func (d *Dispatcher) Models() []core.ModelInfo {
	out := make([]core.ModelInfo, len(d.models))
	copy(out, d.models)
	return out
}

// GetProviderType returns the provider type serving model, or "" if unrouted.
func (d *Dispatcher) GetProviderType(model core.ModelType) string {
	if adapter, ok := d.adapters[model]; ok {
		return adapter.Name()
	}
	return ""
}
