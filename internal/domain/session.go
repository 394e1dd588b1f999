package domain

import "time"

// Session maps an opaque token to an authenticated agent. At most one
// record exists per token; expired records are dropped lazily and by sweep.
type Session struct {
	Token     string            `json:"token"`
	AgentID   int64             `json:"agent_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
