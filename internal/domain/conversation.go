package domain

import "time"

// ConversationStatus enumerates lifecycle states for conversations.
type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "open"
	ConversationStatusAssigned ConversationStatus = "assigned"
	ConversationStatusClosed   ConversationStatus = "closed"
)

// Conversation is a single customer's support thread.
type Conversation struct {
	ID         int64
	CustomerID int64
	// AgentID is nil exactly while the conversation status is open.
	AgentID                 *int64
	Status                  ConversationStatus
	LastAgentInterventionAt *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
