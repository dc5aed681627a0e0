package core

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ModelType is the closed set of model identifiers accepted by the chat endpoint.
type ModelType string

const (
	ModelDeepSeekR1     ModelType = "deepseek-r1"
	ModelDeepSeekV3     ModelType = "deepseek-v3"
	ModelClaude37Sonnet ModelType = "claude-3-7-sonnet"
	ModelClaude35Haiku  ModelType = "claude-3-5-haiku"
	ModelGemini20Flash  ModelType = "gemini-2-0-flash"
	ModelOpenAIO3Mini   ModelType = "openai-o3-mini"
	ModelOpenAIO1       ModelType = "openai-o1"
	ModelOpenAIO1Mini   ModelType = "openai-o1-mini"
	ModelGrok2          ModelType = "grok-2"
)

// AllModelTypes lists every ModelType in declaration order.
var AllModelTypes = []ModelType{
	ModelDeepSeekR1,
	ModelDeepSeekV3,
	ModelClaude37Sonnet,
	ModelClaude35Haiku,
	ModelGemini20Flash,
	ModelOpenAIO3Mini,
	ModelOpenAIO1,
	ModelOpenAIO1Mini,
	ModelGrok2,
}

// Valid reports whether m belongs to the enumeration.
func (m ModelType) Valid() bool {
	for _, known := range AllModelTypes {
		if m == known {
			return true
		}
	}
	return false
}

// DefaultTemperature is applied when a request omits temperature.
const DefaultTemperature = 0.7

// Message represents a single message in a conversation.
// Timestamp is in epoch milliseconds.
type Message struct {
	Role      Role   `json:"role" validate:"required,oneof=user assistant system"`
	Content   string `json:"content"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// ChatRequest represents a validated chat request. Messages are oldest first and
// carry the whole conversation; nothing is kept server-side between calls.
type ChatRequest struct {
	Model       ModelType `json:"model" validate:"required,modeltype"`
	Messages    []Message `json:"messages" validate:"required,dive"`
	Temperature float64   `json:"temperature" validate:"gte=0,lte=1"`
	MaxTokens   *int      `json:"maxTokens,omitempty" validate:"omitempty,gt=0"`
}

// ChatResponse represents the reply to a chat request.
type ChatResponse struct {
	Message   Message   `json:"message"`
	ModelUsed ModelType `json:"modelUsed"`
}

// ModelInfo describes a selectable model for the UI.
type ModelInfo struct {
	ID          ModelType `json:"id"`
	Name        string    `json:"name"`
	Provider    string    `json:"provider"`
	Description string    `json:"description"`
	Premium     bool      `json:"isPremium"`
}

// ModelsResponse represents the response from GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}
