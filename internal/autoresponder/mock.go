package autoresponder

import (
	"context"
	"fmt"
)

// MockLLM is a canned generation client for local development and tests.
type MockLLM struct{}

// NewMockLLM builds the mock client.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// Generate implements LLMClient with a deterministic echo reply.
func (m *MockLLM) Generate(_ context.Context, _ string, history []Turn) (string, error) {
	if len(history) == 0 {
		return "Hi! How can I help you today?", nil
	}
	last := history[len(history)-1]
	return fmt.Sprintf("Thanks for reaching out! You said: %q. Could you tell me a bit more?", last.Content), nil
}
