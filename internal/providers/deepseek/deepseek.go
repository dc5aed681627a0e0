// Package deepseek provides DeepSeek API integration for the chat service.
package deepseek

import (
	"context"
	"net/http"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/providers"
)

// Registration provides factory registration for the DeepSeek provider.
var Registration = providers.Registration{
	Type: "deepseek",
	New:  New,
}

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	apiKeyEnv      = "DEEPSEEK_API_KEY"
)

var models = map[core.ModelType]string{
	core.ModelDeepSeekR1: "deepseek-r1",
	core.ModelDeepSeekV3: "deepseek-chat",
}

// Provider implements core.Adapter for DeepSeek's OpenAI-compatible API.
type Provider struct {
	*providers.Base
}

// New creates a new DeepSeek provider.
func New(cfg config.ProviderConfig, opts providers.ProviderOptions) core.Adapter {
	p := &Provider{}
	p.Base = providers.NewBase(providers.BaseConfig{
		Name:      "deepseek",
		APIKey:    cfg.APIKey,
		APIKeyEnv: apiKeyEnv,
		BaseURL:   defaultBaseURL,
		Models:    models,
	}, opts, p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new DeepSeek provider with a custom HTTP client.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	return New(config.ProviderConfig{Type: "deepseek", APIKey: apiKey}, providers.ProviderOptions{HTTPClient: httpClient}).(*Provider)
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.APIKey())
}

// Chat sends the conversation to DeepSeek's chat completions endpoint.
func (p *Provider) Chat(ctx context.Context, model core.ModelType, messages []core.Message) (*core.ChatResponse, error) {
	return providers.ChatCompletion(ctx, p.Base, model, messages)
}
