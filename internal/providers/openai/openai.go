// Package openai provides OpenAI API integration for the chat service.
package openai

import (
	"context"
	"net/http"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/providers"
)

// Registration provides factory registration for the OpenAI provider.
var Registration = providers.Registration{
	Type: "openai",
	New:  New,
}

const (
	defaultBaseURL = "https://api.openai.com/v1"
	apiKeyEnv      = "OPENAI_API_KEY"
)

// The o-series names are product labels; requests go to the GPT models below.
var models = map[core.ModelType]string{
	core.ModelOpenAIO3Mini: "gpt-3.5-turbo",
	core.ModelOpenAIO1:     "gpt-4o",
	core.ModelOpenAIO1Mini: "gpt-4o-mini",
}

// Provider implements core.Adapter for OpenAI
type Provider struct {
	*providers.Base
}

// New creates a new OpenAI provider.
func New(cfg config.ProviderConfig, opts providers.ProviderOptions) core.Adapter {
	p := &Provider{}
	p.Base = providers.NewBase(providers.BaseConfig{
		Name:      "openai",
		APIKey:    cfg.APIKey,
		APIKeyEnv: apiKeyEnv,
		BaseURL:   defaultBaseURL,
		Models:    models,
	}, opts, p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new OpenAI provider with a custom HTTP client.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	return New(config.ProviderConfig{Type: "openai", APIKey: apiKey}, providers.ProviderOptions{HTTPClient: httpClient}).(*Provider)
}

// setHeaders sets the required headers for OpenAI API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.APIKey())

	// OpenAI echoes X-Client-Request-Id in its logs but rejects non-ASCII values
	// and values over 512 bytes with a 400.
	if requestID := core.GetRequestID(req.Context()); requestID != "" && isValidClientRequestID(requestID) {
		req.Header.Set("X-Client-Request-Id", requestID)
	}
}

// isValidClientRequestID checks if the request ID is valid for OpenAI's X-Client-Request-Id header.
func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}

// Chat sends the conversation to OpenAI's chat completions endpoint.
func (p *Provider) Chat(ctx context.Context, model core.ModelType, messages []core.Message) (*core.ChatResponse, error) {
	return providers.ChatCompletion(ctx, p.Base, model, messages)
}
