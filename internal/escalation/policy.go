// Package escalation decides whether the automated responder may speak or
// must defer to a human. The decision is a pure function of conversation
// state so the policy can be tested over its whole input domain and swapped
// without touching the routing path.
package escalation

import (
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// Policy holds the knobs the decision is gated on.
type Policy struct {
	// Enabled switches automation off globally.
	Enabled bool
	// GraceWindow gives an assigned agent first right of reply: while the
	// last message is younger than this, automation stays quiet.
	GraceWindow time.Duration
}

// ShouldAutomate reports whether the automated engine may answer the
// latest customer message.
func (p Policy) ShouldAutomate(status domain.ConversationStatus, hasAssignedAgent bool, elapsedSinceLastMessage time.Duration) bool {
	if !p.Enabled {
		return false
	}
	if status == domain.ConversationStatusClosed {
		return false
	}
	if hasAssignedAgent && elapsedSinceLastMessage < p.GraceWindow {
		return false
	}
	return true
}
