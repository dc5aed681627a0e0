// Package xai provides xAI (Grok) API integration for the chat service.
package xai

import (
	"context"
	"net/http"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/providers"
)

// Registration provides factory registration for the xAI provider.
var Registration = providers.Registration{
	Type: "xai",
	New:  New,
}

const (
	defaultBaseURL = "https://api.x.ai/v1"
	apiKeyEnv      = "XAI_API_KEY"
)

var models = map[core.ModelType]string{
	core.ModelGrok2: "grok-2-1212",
}

// Provider implements core.Adapter for xAI
type Provider struct {
	*providers.Base
}

// New creates a new xAI provider.
func New(cfg config.ProviderConfig, opts providers.ProviderOptions) core.Adapter {
	p := &Provider{}
	p.Base = providers.NewBase(providers.BaseConfig{
		Name:      "xai",
		APIKey:    cfg.APIKey,
		APIKeyEnv: apiKeyEnv,
		BaseURL:   defaultBaseURL,
		Models:    models,
	}, opts, p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new xAI provider with a custom HTTP client.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	return New(config.ProviderConfig{Type: "xai", APIKey: apiKey}, providers.ProviderOptions{HTTPClient: httpClient}).(*Provider)
}

// setHeaders sets the required headers for xAI API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.APIKey())
}

// Chat sends the conversation to xAI's chat completions endpoint.
func (p *Provider) Chat(ctx context.Context, model core.ModelType, messages []core.Message) (*core.ChatResponse, error) {
	return providers.ChatCompletion(ctx, p.Base, model, messages)
}
