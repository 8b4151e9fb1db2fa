package providers

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/campusbuddy/campusbuddy/internal/agent"
)

// AnthropicClient implements agent.LLMClient by calling the Anthropic
// Messages API directly.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	return &AnthropicClient{
		client:    anthropic.NewClient(apiKey),
		model:     modelName,
		maxTokens: 1024,
	}, nil
}

// Generate runs one Messages call. The system prompt travels in the request's
// System field; history and the current user prompt become the message list.
func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string, history []agent.ConversationTurn) (string, error) {
	msgs := make([]anthropic.Message, 0, len(history)+1)
	for _, turn := range history {
		role := anthropic.RoleUser
		if turn.Role == agent.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(turn.Content)},
		})
	}
	msgs = append(msgs, anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(userPrompt)},
	})

	temperature := float32(0)
	req := anthropic.MessagesRequest{
		Model:         anthropic.Model(c.model),
		Messages:      msgs,
		MaxTokens:     c.maxTokens,
		Temperature:   &temperature,
		StopSequences: reactStop,
	}
	if systemPrompt != "" {
		req.System = systemPrompt
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				text += *block.Text
			}
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string { return c.model }
