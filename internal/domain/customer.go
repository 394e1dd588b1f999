package domain

import "time"

// Customer is a widget visitor, possibly anonymous.
type Customer struct {
	ID        int64
	SessionID string
	Name      string
	Email     string
	Phone     string
	IPAddress string
	UserAgent string
	Country   string
	// Identified is set once the visitor supplies an email or explicit name.
	Identified bool
	LastSeenAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
