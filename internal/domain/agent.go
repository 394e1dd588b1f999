package domain

import "time"

// AgentRole enumerates operator roles.
type AgentRole string

const (
	AgentRoleAdmin      AgentRole = "ADMIN"
	AgentRoleAgent      AgentRole = "AGENT"
	AgentRoleSupervisor AgentRole = "SUPERVISOR"
)

// Agent models a human support operator.
type Agent struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	Active       bool
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
