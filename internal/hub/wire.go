package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// Inbound frame types accepted on a live connection.
const (
	frameAgentAuth    = "agent_auth"
	frameCustomerInit = "customer_init"
	frameChatMessage  = "chat_message"
	frameTyping       = "typing"
)

// AgentAuthFrame authenticates an agent socket.
type AgentAuthFrame struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CustomerInitFrame starts (or re-attaches) a widget conversation.
type CustomerInitFrame struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	WidgetToken string `json:"widgetToken,omitempty"`
}

// ChatMessageFrame carries one chat message.
type ChatMessageFrame struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	SenderType     string `json:"senderType"`
	Content        string `json:"content"`
}

// TypingFrame relays a typing indicator.
type TypingFrame struct {
	ConversationID int64 `json:"conversationId"`
	IsTyping       bool  `json:"isTyping"`
}

// DecodeInbound parses one wire frame into its typed form. Unknown or
// malformed frames return an error; the connection handler converts that
// into an error event without dropping the socket.
func DecodeInbound(data []byte) (any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch head.Type {
	case frameAgentAuth:
		var frame AgentAuthFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		return frame, nil
	case frameCustomerInit:
		var frame CustomerInitFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		return frame, nil
	case frameChatMessage:
		var frame ChatMessageFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		return frame, nil
	case frameTyping:
		var frame TypingFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", head.Type, err)
		}
		return frame, nil
	case "":
		return nil, fmt.Errorf("frame missing type")
	default:
		return nil, fmt.Errorf("unknown frame type %q", head.Type)
	}
}

// MessageView is the wire shape of a persisted message.
type MessageView struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       *int64    `json:"senderId,omitempty"`
	SenderType     string    `json:"senderType"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewMessageView maps a domain message onto the wire.
func NewMessageView(message domain.Message) MessageView {
	return MessageView{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.Sender.ID,
		SenderType:     string(message.Sender.Role),
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}
}

// CustomerView is the wire shape of a customer.
type CustomerView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Identified bool   `json:"identified"`
}

// Outbound events.

// AuthSuccessEvent confirms agent socket authentication.
type AuthSuccessEvent struct {
	Type      string    `json:"type"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	AgentID   int64     `json:"agentId"`
	AgentName string    `json:"agentName"`
}

// AuthErrorEvent rejects agent socket authentication.
type AuthErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// InitSuccessEvent confirms a widget initiation.
type InitSuccessEvent struct {
	Type                string       `json:"type"`
	Customer            CustomerView `json:"customer"`
	ConversationID      int64        `json:"conversationId"`
	WidgetToken         string       `json:"widgetToken,omitempty"`
	IsReturningCustomer bool         `json:"isReturningCustomer"`
}

// NewMessageEvent carries a broadcast message.
type NewMessageEvent struct {
	Type    string      `json:"type"`
	Message MessageView `json:"message"`
}

// ConversationCreatedEvent tells agent dashboards a new conversation
// appeared.
type ConversationCreatedEvent struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	CustomerID     int64  `json:"customerId"`
}

// ConversationAssignedEvent announces (re)assignment.
type ConversationAssignedEvent struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	AgentID        int64  `json:"agentId"`
	AgentName      string `json:"agentName,omitempty"`
}

// ConversationClosedEvent announces closure.
type ConversationClosedEvent struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
}

// TypingEvent relays a typing indicator to the other parties.
type TypingEvent struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	SenderType     string `json:"senderType"`
	IsTyping       bool   `json:"isTyping"`
}

// ErrorEvent reports a per-connection failure without closing the socket.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorEvent builds a typed error event.
func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
