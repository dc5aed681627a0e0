// Package providers builds the vendor adapters and the dispatcher that routes
// chat requests to them.
package providers

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/llmclient"
)

// Registration describes how a vendor package creates its adapter.
type Registration struct {
	Type string
	New  func(cfg config.ProviderConfig, opts ProviderOptions) core.Adapter
}

// ProviderFactory creates adapters from their registrations.
// Shared options (HTTP client, hooks, policy) are set once and passed to every adapter.
type ProviderFactory struct {
	mu         sync.RWMutex
	builders   map[string]func(config.ProviderConfig, ProviderOptions) core.Adapter
	httpClient *http.Client
	hooks      llmclient.Hooks
	policy     Policy
}

// NewProviderFactory creates an empty factory.
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{
		builders: make(map[string]func(config.ProviderConfig, ProviderOptions) core.Adapter),
	}
}

// Add registers a vendor. A later registration for the same type replaces the earlier one.
func (f *ProviderFactory) Add(reg Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[reg.Type] = reg.New
}

// SetHTTPClient sets the client shared by every adapter created afterwards.
func (f *ProviderFactory) SetHTTPClient(client *http.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.httpClient = client
}

// SetHooks sets the observability hooks passed to every adapter created afterwards.
func (f *ProviderFactory) SetHooks(hooks llmclient.Hooks) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = hooks
}

// SetPolicy sets the generation policy passed to every adapter created afterwards.
func (f *ProviderFactory) SetPolicy(policy Policy) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policy = policy
}

// Create instantiates the adapter for cfg.Type.
func (f *ProviderFactory) Create(cfg config.ProviderConfig) (core.Adapter, error) {
	f.mu.RLock()
	builder, ok := f.builders[cfg.Type]
	opts := ProviderOptions{
		HTTPClient: f.httpClient,
		Hooks:      f.hooks,
		Policy:     f.policy,
		BaseURL:    cfg.BaseURL,
	}
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
	return builder(cfg, opts), nil
}

// ListRegistered returns the registered provider types, sorted.
func (f *ProviderFactory) ListRegistered() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
