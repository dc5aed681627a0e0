package providers

import (
	"net/http"

	"github.com/aiautotool/chathub/config"
	"github.com/aiautotool/chathub/internal/llmclient"
)

// Policy holds the generation parameters shared by every adapter.
type Policy struct {
	// ContextWindow is how many of the most recent messages are sent.
	ContextWindow int
	// MaxOutputTokens caps the length of the generated reply.
	MaxOutputTokens int
	// Temperature is the sampling temperature sent to the vendor.
	Temperature float64
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		ContextWindow:   config.DefaultContextWindow,
		MaxOutputTokens: config.DefaultMaxOutputTokens,
		Temperature:     config.DefaultTemperature,
	}
}

func (p Policy) orDefault() Policy {
	if p == (Policy{}) {
		return DefaultPolicy()
	}
	return p
}

// PolicyFromConfig converts the chat section of the application config.
func PolicyFromConfig(cfg config.ChatConfig) Policy {
	return Policy{
		ContextWindow:   cfg.ContextWindow,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
	}
}

// ProviderOptions carries the dependencies shared by all adapters.
type ProviderOptions struct {
	// HTTPClient is shared by every adapter. Nil selects the default transport.
	HTTPClient *http.Client
	Hooks      llmclient.Hooks
	Policy     Policy
	// BaseURL overrides the compiled-in vendor endpoint, mainly for tests and proxies.
	BaseURL string
}
