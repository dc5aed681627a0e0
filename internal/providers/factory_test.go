package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/llmclient"
)

// stubAdapter is a test implementation of core.Adapter.
type stubAdapter struct {
	name   string
	cfg    config.ProviderConfig
	opts   ProviderOptions
	models map[core.ModelType]bool
	calls  int
	resp   *core.ChatResponse
	err    error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Supports(model core.ModelType) bool { return s.models[model] }

func (s *stubAdapter) Chat(_ context.Context, model core.ModelType, _ []core.Message) (*core.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &core.ChatResponse{Message: core.Message{Role: core.RoleAssistant, Content: "from " + s.name}, ModelUsed: model}, nil
}

// stubRegistration registers a stubAdapter supporting models and records every instance created.
func stubRegistration(providerType string, created map[string]*stubAdapter, models ...core.ModelType) Registration {
	return Registration{
		Type: providerType,
		New: func(cfg config.ProviderConfig, opts ProviderOptions) core.Adapter {
			s := &stubAdapter{name: providerType, cfg: cfg, opts: opts, models: make(map[core.ModelType]bool)}
			for _, m := range models {
				s.models[m] = true
			}
			if created != nil {
				created[providerType] = s
			}
			return s
		},
	}
}

func TestProviderFactory_Add(t *testing.T) {
	factory := NewProviderFactory()
	factory.Add(stubRegistration("zeta", nil))
	factory.Add(stubRegistration("alpha", nil))
	factory.Add(stubRegistration("alpha", nil))

	assert.Equal(t, []string{"alpha", "zeta"}, factory.ListRegistered())
}

func TestProviderFactory_Create_UnknownType(t *testing.T) {
	factory := NewProviderFactory()

	_, err := factory.Create(config.ProviderConfig{Type: "unknown-type", APIKey: "test-key"})
	require.Error(t, err)
	assert.Equal(t, "unknown provider type: unknown-type", err.Error())
}

func TestProviderFactory_Create_PassesSharedOptions(t *testing.T) {
	created := map[string]*stubAdapter{}
	factory := NewProviderFactory()
	factory.Add(stubRegistration("xai", created, core.ModelGrok2))

	httpClient := &http.Client{}
	hookCalled := false
	policy := Policy{ContextWindow: 4, MaxOutputTokens: 64, Temperature: 0.1}
	factory.SetHTTPClient(httpClient)
	factory.SetHooks(llmclient.Hooks{OnCallDone: func(context.Context, llmclient.CallInfo) { hookCalled = true }})
	factory.SetPolicy(policy)

	adapter, err := factory.Create(config.ProviderConfig{Type: "xai", APIKey: "k", BaseURL: "http://proxy.local"})
	require.NoError(t, err)
	assert.Equal(t, "xai", adapter.Name())

	stub := created["xai"]
	require.NotNil(t, stub)
	assert.Equal(t, "k", stub.cfg.APIKey)
	assert.Same(t, httpClient, stub.opts.HTTPClient)
	assert.Equal(t, policy, stub.opts.Policy)
	assert.Equal(t, "http://proxy.local", stub.opts.BaseURL)

	require.NotNil(t, stub.opts.Hooks.OnCallDone)
	stub.opts.Hooks.OnCallDone(context.Background(), llmclient.CallInfo{})
	assert.True(t, hookCalled)
}

func TestPolicy_Defaults(t *testing.T) {
	assert.Equal(t, Policy{ContextWindow: 10, MaxOutputTokens: 1024, Temperature: 0.7}, DefaultPolicy())
	assert.Equal(t, DefaultPolicy(), Policy{}.orDefault())

	custom := Policy{ContextWindow: 3, MaxOutputTokens: 10}
	assert.Equal(t, custom, custom.orDefault())

	assert.Equal(t, Policy{ContextWindow: 20, MaxOutputTokens: 2048, Temperature: 0.3},
		PolicyFromConfig(config.ChatConfig{ContextWindow: 20, MaxOutputTokens: 2048, Temperature: 0.3}))
}
