package autoresponder

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/config"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a generation client from responder config. The
// request deadline comes from the caller's context; no client-level timeout
// is set on top of it.
func NewOpenAIClient(cfg config.ResponderConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Generate implements LLMClient.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt string, history []Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		role := turn.Role
		if role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation response had no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("generation response was empty")
	}
	return text, nil
}
