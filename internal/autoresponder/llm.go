package autoresponder

import (
	"context"
	"fmt"
)

// Turn is one entry of the rolling generation context.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// LLMClient is the external generation collaborator. A call either returns
// generated text or fails; failure is an expected outcome, never fatal.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, history []Turn) (string, error)
}

// BuildSystemPrompt produces the instruction framing every generation call.
func BuildSystemPrompt(customerName string) string {
	return fmt.Sprintf(
		"You are a friendly customer support assistant for this website. "+
			"You are talking to %s. Answer briefly and helpfully, staying "+
			"within the scope of product and account questions. If the "+
			"customer is upset, asks for a refund, or explicitly requests a "+
			"person, apologize and offer to connect them with a human agent "+
			"instead of answering yourself.",
		customerName,
	)
}
