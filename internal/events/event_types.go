package events

import (
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventConversationCreated  EventType = "conversation_created"
	EventMessageAccepted      EventType = "message_accepted"
	EventConversationAssigned EventType = "conversation_assigned"
	EventConversationClosed   EventType = "conversation_closed"
)

// Event represents a domain event emitted by the lifecycle controller.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	ConversationID int64       `json:"conversation_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// MessageAcceptedPayload carries the persisted message.
type MessageAcceptedPayload struct {
	Message domain.Message `json:"message"`
}

// ConversationAssignedPayload carries the new assignee.
type ConversationAssignedPayload struct {
	AgentID   int64  `json:"agent_id"`
	AgentName string `json:"agent_name,omitempty"`
}

// ConversationClosedPayload carries closure metadata.
type ConversationClosedPayload struct {
	ClosedBy *int64 `json:"closed_by,omitempty"`
}

// ConversationCreatedPayload carries the owning customer.
type ConversationCreatedPayload struct {
	CustomerID int64 `json:"customer_id"`
}
