package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/aiautotool/chathub/internal/core"
	"github.com/aiautotool/chathub/internal/llmclient"
)

// NoResponsePlaceholder replaces an empty vendor answer.
const NoResponsePlaceholder = "No response generated"

// BaseConfig describes one vendor adapter.
type BaseConfig struct {
	// Name is the provider type, e.g. "anthropic".
	Name string
	// APIKey may be empty; the adapter then fails every call without contacting the vendor.
	APIKey string
	// APIKeyEnv is the environment variable named in missing-credential errors.
	APIKeyEnv string
	// BaseURL is the compiled-in vendor endpoint.
	BaseURL string
	// Models maps every supported ModelType to the vendor's model ID.
	Models map[core.ModelType]string
}

// Base implements the steps every vendor adapter shares: credential check,
// model-ID translation, history truncation, the vendor call and reply building.
// Vendor packages embed it and only supply wire shapes.
type Base struct {
	name      string
	apiKey    string
	apiKeyEnv string
	models    map[core.ModelType]string
	policy    Policy
	client    *llmclient.Client
}

// NewBase creates a Base. headers is applied to every outgoing request.
func NewBase(cfg BaseConfig, opts ProviderOptions, headers llmclient.HeaderSetter) *Base {
	models := make(map[core.ModelType]string, len(cfg.Models))
	for k, v := range cfg.Models {
		models[k] = v
	}

	b := &Base{
		name:      cfg.Name,
		apiKey:    cfg.APIKey,
		apiKeyEnv: cfg.APIKeyEnv,
		models:    models,
		policy:    opts.Policy.orDefault(),
	}
	b.client = llmclient.NewWithHTTPClient(opts.HTTPClient, llmclient.Config{
		ProviderName: cfg.Name,
		BaseURL:      cfg.BaseURL,
		Hooks:        opts.Hooks,
	}, headers)
	if opts.BaseURL != "" {
		b.client.SetBaseURL(opts.BaseURL)
	}
	return b
}

// Name returns the provider type.
func (b *Base) Name() string { return b.name }

// APIKey returns the configured credential.
func (b *Base) APIKey() string { return b.apiKey }

// Policy returns the generation policy applied to every call.
func (b *Base) Policy() Policy { return b.policy }

// SetBaseURL allows configuring a custom base URL for the provider
func (b *Base) SetBaseURL(url string) { b.client.SetBaseURL(url) }

// Supports reports whether model is in the adapter's model table.
func (b *Base) Supports(model core.ModelType) bool {
	_, ok := b.models[model]
	return ok
}

// Prepare checks the credential, translates model to the vendor ID and
// truncates messages to the policy window.
func (b *Base) Prepare(model core.ModelType, messages []core.Message) (string, []core.Message, error) {
	if b.apiKey == "" {
		return "", nil, core.NewMissingCredentialError(b.name, b.apiKeyEnv)
	}
	vendorModel, ok := b.models[model]
	if !ok {
		return "", nil, core.NewConfigurationError(b.name,
			"model '"+string(model)+"' is not available from "+core.DisplayProviderName(b.name),
			core.ErrUnsupportedModel)
	}
	return vendorModel, TruncateHistory(messages, b.policy.ContextWindow), nil
}

// Send posts body to endpoint and returns the decoded response object.
// A body that is not a JSON object is reported as a provider error.
func (b *Base) Send(ctx context.Context, endpoint string, model core.ModelType, body any) (gjson.Result, error) {
	resp, err := b.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Model:    string(model),
		Body:     body,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, core.NewProviderError(b.name, resp.StatusCode, "malformed response payload: invalid JSON", nil)
	}
	doc := gjson.ParseBytes(resp.Body)
	if !doc.IsObject() {
		return gjson.Result{}, core.NewProviderError(b.name, resp.StatusCode, "malformed response payload: expected a JSON object", nil)
	}
	return doc, nil
}

// Reply wraps the generated text as an assistant message.
func (b *Base) Reply(model core.ModelType, text string) *core.ChatResponse {
	if text == "" {
		text = NoResponsePlaceholder
	}
	now := time.Now().UnixMilli()
	return &core.ChatResponse{
		Message: core.Message{
			Role:      core.RoleAssistant,
			Content:   text,
			Timestamp: &now,
		},
		ModelUsed: model,
	}
}

// Fail logs err against the request and returns it unchanged.
func (b *Base) Fail(ctx context.Context, model core.ModelType, err error) error {
	core.Logger(ctx).LogAttrs(ctx, slog.LevelWarn, "vendor call failed",
		slog.String("provider", b.name),
		slog.String("model", string(model)),
		slog.String("error", err.Error()),
	)
	return err
}

// TruncateHistory returns the last window messages, oldest first.
// A non-positive window keeps every message.
func TruncateHistory(messages []core.Message, window int) []core.Message {
	if window <= 0 || len(messages) <= window {
		return messages
	}
	return messages[len(messages)-window:]
}
