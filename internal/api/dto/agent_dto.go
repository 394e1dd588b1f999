package dto

import (
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// AgentLoginRequest payload for agent login.
type AgentLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Agent     AgentResponse `json:"agent"`
}

// AgentResponse is the public shape of an operator account.
type AgentResponse struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      domain.AgentRole `json:"role"`
	Active    bool             `json:"active"`
	Available bool             `json:"available"`
	Online    bool             `json:"online"`
	CreatedAt time.Time        `json:"created_at"`
}

// UpdateAgentRequest carries self-service profile changes. Pointer fields
// distinguish "leave alone" from an explicit value.
type UpdateAgentRequest struct {
	Name      *string `json:"name"`
	Available *bool   `json:"available"`
}

// CreateAgentRequest admin payload for provisioning an operator.
type CreateAgentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
