package domain

import "time"

// SenderRole indicates who authored a message.
type SenderRole string

const (
	SenderRoleCustomer  SenderRole = "customer"
	SenderRoleAgent     SenderRole = "agent"
	SenderRoleAutomated SenderRole = "automated"
	SenderRoleSystem    SenderRole = "system"
)

// Sender is an explicit role-tagged author reference. Automated and system
// messages carry no id.
type Sender struct {
	Role SenderRole `json:"role"`
	ID   *int64     `json:"id,omitempty"`
}

// CustomerSender builds a customer sender reference.
func CustomerSender(customerID int64) Sender {
	return Sender{Role: SenderRoleCustomer, ID: &customerID}
}

// AgentSender builds an agent sender reference.
func AgentSender(agentID int64) Sender {
	return Sender{Role: SenderRoleAgent, ID: &agentID}
}

// AutomatedSender builds the automated responder's sender reference.
func AutomatedSender() Sender {
	return Sender{Role: SenderRoleAutomated}
}

// Message is one immutable entry in a conversation's ordered log.
type Message struct {
	ID             int64
	ConversationID int64
	Sender         Sender
	Content        string
	CreatedAt      time.Time
}
