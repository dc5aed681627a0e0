package providers

import (
	"context"

	"github.com/aiautotool/chathub/internal/core"
)

// ChatCompletionsEndpoint is the path shared by OpenAI-compatible vendors.
const ChatCompletionsEndpoint = "/chat/completions"

// chatCompletionMessage is one entry of an OpenAI-style messages array.
type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the body of an OpenAI-style chat completions call.
type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"max_tokens"`
}

// ChatCompletion runs a chat turn against an OpenAI-compatible API.
// Roles pass through unchanged; the reply is read from choices[0].message.content.
// DeepSeek, OpenAI and xAI share this wire shape.
func ChatCompletion(ctx context.Context, b *Base, model core.ModelType, messages []core.Message) (*core.ChatResponse, error) {
	vendorModel, window, err := b.Prepare(model, messages)
	if err != nil {
		return nil, b.Fail(ctx, model, err)
	}

	body := chatCompletionRequest{
		Model:       vendorModel,
		Messages:    make([]chatCompletionMessage, len(window)),
		Temperature: b.policy.Temperature,
		MaxTokens:   b.policy.MaxOutputTokens,
	}
	for i, m := range window {
		body.Messages[i] = chatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	doc, err := b.Send(ctx, ChatCompletionsEndpoint, model, body)
	if err != nil {
		return nil, b.Fail(ctx, model, err)
	}
	return b.Reply(model, doc.Get("choices.0.message.content").String()), nil
}
