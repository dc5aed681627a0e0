// Package gemini provides Google Gemini API integration for the chat service.
package gemini

import (
	"context"
	"net/http"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/providers"
)

// Registration provides factory registration for the Gemini provider.
var Registration = providers.Registration{
	Type: "gemini",
	New:  New,
}

const (
	// Native generateContent API, not the OpenAI-compatible endpoint.
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	apiKeyEnv      = "GEMINI_API_KEY"
)

var models = map[core.ModelType]string{
	core.ModelGemini20Flash: "gemini-2.0-flash",
}

// Provider implements core.Adapter for Google Gemini
type Provider struct {
	*providers.Base
}

// New creates a new Gemini provider.
func New(cfg config.ProviderConfig, opts providers.ProviderOptions) core.Adapter {
	p := &Provider{}
	p.Base = providers.NewBase(providers.BaseConfig{
		Name:      "gemini",
		APIKey:    cfg.APIKey,
		APIKeyEnv: apiKeyEnv,
		BaseURL:   defaultBaseURL,
		Models:    models,
	}, opts, p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new Gemini provider with a custom HTTP client.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	return New(config.ProviderConfig{Type: "gemini", APIKey: apiKey}, providers.ProviderOptions{HTTPClient: httpClient}).(*Provider)
}

// setHeaders sends the key as a header so it never shows up in URLs or access logs.
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", p.APIKey())
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// geminiRole maps assistant to "model"; every other role is sent as "user".
func geminiRole(role core.Role) string {
	if role == core.RoleAssistant {
		return "model"
	}
	return "user"
}

// convertToContents maps the window onto Gemini turns. Gemini expects user and
// model turns to alternate, so consecutive messages with the same mapped role
// are merged into one turn with newline-joined text.
func convertToContents(window []core.Message) []content {
	contents := make([]content, 0, len(window))
	for _, msg := range window {
		role := geminiRole(msg.Role)
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			last := &contents[n-1].Parts[0]
			last.Text += "\n" + msg.Content
			continue
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: msg.Content}}})
	}
	return contents
}

// Chat sends the conversation to Gemini's generateContent endpoint.
func (p *Provider) Chat(ctx context.Context, model core.ModelType, messages []core.Message) (*core.ChatResponse, error) {
	vendorModel, window, err := p.Prepare(model, messages)
	if err != nil {
		return nil, p.Fail(ctx, model, err)
	}

	policy := p.Policy()
	body := generateContentRequest{
		Contents: convertToContents(window),
		GenerationConfig: generationConfig{
			Temperature:     policy.Temperature,
			MaxOutputTokens: policy.MaxOutputTokens,
		},
	}

	doc, err := p.Send(ctx, "/models/"+vendorModel+":generateContent", model, body)
	if err != nil {
		return nil, p.Fail(ctx, model, err)
	}
	return p.Reply(model, doc.Get("candidates.0.content.parts.0.text").String()), nil
}
