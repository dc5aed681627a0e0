// Package anthropic provides Anthropic API integration for the chat service.
package anthropic

import (
	"context"
	"net/http"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/providers"
)

// Registration provides factory registration for the Anthropic provider.
var Registration = providers.Registration{
	Type: "anthropic",
	New:  New,
}

const (
	defaultBaseURL      = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
	apiKeyEnv           = "ANTHROPIC_API_KEY"
)

var models = map[core.ModelType]string{
	core.ModelClaude37Sonnet: "claude-3-7-sonnet-20250219",
	core.ModelClaude35Haiku:  "claude-3-5-haiku-20240307",
}

// Provider implements core.Adapter for Anthropic
type Provider struct {
	*providers.Base
}

// New creates a new Anthropic provider.
func New(cfg config.ProviderConfig, opts providers.ProviderOptions) core.Adapter {
	p := &Provider{}
	p.Base = providers.NewBase(providers.BaseConfig{
		Name:      "anthropic",
		APIKey:    cfg.APIKey,
		APIKeyEnv: apiKeyEnv,
		BaseURL:   defaultBaseURL,
		Models:    models,
	}, opts, p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new Anthropic provider with a custom HTTP client.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	return New(config.ProviderConfig{Type: "anthropic", APIKey: apiKey}, providers.ProviderOptions{HTTPClient: httpClient}).(*Provider)
}

// setHeaders sets the required headers for Anthropic API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.APIKey())
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// anthropicRequest represents the Anthropic API request format
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

// anthropicMessage represents a message in Anthropic format
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// roleNames maps canonical roles to Messages API roles. The API only knows
// user and assistant turns, so system prompts are sent as user turns.
var roleNames = map[core.Role]string{
	core.RoleUser:      "user",
	core.RoleAssistant: "assistant",
	core.RoleSystem:    "user",
}

// convertToAnthropicRequest builds the request body from the truncated window.
func convertToAnthropicRequest(vendorModel string, window []core.Message, policy providers.Policy) *anthropicRequest {
	req := &anthropicRequest{
		Model:       vendorModel,
		Messages:    make([]anthropicMessage, 0, len(window)),
		MaxTokens:   policy.MaxOutputTokens,
		Temperature: policy.Temperature,
	}

	for _, msg := range window {
		role, ok := roleNames[msg.Role]
		if !ok {
			role = "user"
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: role, Content: msg.Content})
	}

	return req
}

// Chat sends the conversation to Anthropic's Messages API.
func (p *Provider) Chat(ctx context.Context, model core.ModelType, messages []core.Message) (*core.ChatResponse, error) {
	vendorModel, window, err := p.Prepare(model, messages)
	if err != nil {
		return nil, p.Fail(ctx, model, err)
	}

	doc, err := p.Send(ctx, "/messages", model, convertToAnthropicRequest(vendorModel, window, p.Policy()))
	if err != nil {
		return nil, p.Fail(ctx, model, err)
	}
	return p.Reply(model, doc.Get("content.0.text").String()), nil
}
