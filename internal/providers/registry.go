package providers

import "github.com/aiautotool/chathub/internal/core"

// DefaultRoutes maps every ModelType to the provider type that serves it.
var DefaultRoutes = map[core.ModelType]string{
	core.ModelDeepSeekR1:     "deepseek",
	core.ModelDeepSeekV3:     "deepseek",
	core.ModelClaude37Sonnet: "anthropic",
	core.ModelClaude35Haiku:  "anthropic",
	core.ModelGemini20Flash:  "gemini",
	core.ModelOpenAIO3Mini:   "openai",
	core.ModelOpenAIO1:       "openai",
	core.ModelOpenAIO1Mini:   "openai",
	core.ModelGrok2:          "xai",
}

// catalogEntry is the display metadata of one model.
type catalogEntry struct {
	name    string
	premium bool
}

var catalog = map[core.ModelType]catalogEntry{
	core.ModelDeepSeekR1:     {name: "DeepSeek-R1"},
	core.ModelDeepSeekV3:     {name: "DeepSeek-V3", premium: true},
	core.ModelClaude37Sonnet: {name: "Claude 3.7 Sonnet", premium: true},
	core.ModelClaude35Haiku:  {name: "Claude 3.5 Haiku", premium: true},
	core.ModelGemini20Flash:  {name: "Gemini 2.0 Flash", premium: true},
	core.ModelOpenAIO3Mini:   {name: "OpenAI o3-mini", premium: true},
	core.ModelOpenAIO1:       {name: "OpenAI o1", premium: true},
	core.ModelOpenAIO1Mini:   {name: "OpenAI o1-mini", premium: true},
	core.ModelGrok2:          {name: "Grok-2", premium: true},
}

// modelInfo builds the catalog entry for model served by providerType.
func modelInfo(model core.ModelType, providerType string) core.ModelInfo {
	entry, ok := catalog[model]
	if !ok {
		entry = catalogEntry{name: string(model), premium: true}
	}
	description := "Premium"
	if !entry.premium {
		description = "Free"
	}
	return core.ModelInfo{
		ID:          model,
		Name:        entry.name,
		Provider:    core.DisplayProviderName(providerType),
		Description: description,
		Premium:     entry.premium,
	}
}
