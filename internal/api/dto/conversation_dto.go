package dto

import (
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// ConversationSummary is the list-view shape of a conversation.
type ConversationSummary struct {
	ID                      int64                     `json:"id"`
	CustomerID              int64                     `json:"customer_id"`
	AgentID                 *int64                    `json:"agent_id,omitempty"`
	Status                  domain.ConversationStatus `json:"status"`
	LastAgentInterventionAt *time.Time                `json:"last_agent_intervention_at,omitempty"`
	CreatedAt               time.Time                 `json:"created_at"`
	UpdatedAt               time.Time                 `json:"updated_at"`
}

// ConversationDetail adds the message log and customer to a summary.
type ConversationDetail struct {
	ConversationSummary
	Customer *CustomerResponse `json:"customer,omitempty"`
	Messages []MessageResponse `json:"messages"`
}

// CustomerResponse is the public shape of a chat visitor.
type CustomerResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Identified bool      `json:"identified"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// MessageResponse is one immutable log entry.
type MessageResponse struct {
	ID             int64             `json:"id"`
	ConversationID int64             `json:"conversation_id"`
	SenderRole     domain.SenderRole `json:"sender_role"`
	SenderID       *int64            `json:"sender_id,omitempty"`
	Content        string            `json:"content"`
	CreatedAt      time.Time         `json:"created_at"`
}

// SendMessageRequest payload for posting an agent message over REST.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// AssignRequest payload for taking over a conversation. When AgentID is
// zero the authenticated agent assigns themselves.
type AssignRequest struct {
	AgentID int64 `json:"agent_id"`
}
