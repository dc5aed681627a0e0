// Package core defines the core interfaces and types for the chat adapter layer.
package core

import "context"

// Adapter translates the canonical chat contract to and from one vendor's API.
// Implementations hold no per-request state and are safe for concurrent use.
type Adapter interface {
	// Name returns the provider type, e.g. "deepseek".
	Name() string

	// Supports reports whether the adapter's model table maps model to a vendor ID.
	Supports(model ModelType) bool

	// Chat sends the conversation to the vendor and returns the assistant reply.
	// Every failure is returned as a *GatewayError naming the provider.
	Chat(ctx context.Context, model ModelType, messages []Message) (*ChatResponse, error)
}

// Dispatcher routes validated requests to the adapter owning their model.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Models() []ModelInfo
}
