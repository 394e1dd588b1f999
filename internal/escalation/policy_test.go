package escalation

import (
	"testing"
	"time"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

func TestShouldAutomateDisabled(t *testing.T) {
	p := Policy{Enabled: false, GraceWindow: time.Minute}

	if p.ShouldAutomate(domain.ConversationStatusOpen, false, time.Hour) {
		t.Fatal("disabled policy must never automate")
	}
}

func TestShouldAutomateClosedConversation(t *testing.T) {
	p := Policy{Enabled: true, GraceWindow: time.Minute}

	if p.ShouldAutomate(domain.ConversationStatusClosed, false, time.Hour) {
		t.Fatal("closed conversations must never get automated replies")
	}
	if p.ShouldAutomate(domain.ConversationStatusClosed, true, 0) {
		t.Fatal("closed conversations must never get automated replies")
	}
}

func TestShouldAutomateGraceWindow(t *testing.T) {
	p := Policy{Enabled: true, GraceWindow: time.Minute}

	if p.ShouldAutomate(domain.ConversationStatusAssigned, true, 10*time.Second) {
		t.Fatal("assigned agent inside grace window must suppress automation")
	}
	if !p.ShouldAutomate(domain.ConversationStatusAssigned, true, 2*time.Minute) {
		t.Fatal("expired grace window must allow automation")
	}
	if !p.ShouldAutomate(domain.ConversationStatusOpen, false, 0) {
		t.Fatal("unassigned conversation must allow automation regardless of elapsed time")
	}
}

// every combination of status and assignment yields a decision, never a
// panic, even for inputs outside normal operation
func TestShouldAutomateTotal(t *testing.T) {
	p := Policy{Enabled: true, GraceWindow: time.Minute}

	statuses := []domain.ConversationStatus{
		domain.ConversationStatusOpen,
		domain.ConversationStatusAssigned,
		domain.ConversationStatusClosed,
		domain.ConversationStatus("unknown"),
	}
	elapsed := []time.Duration{0, time.Second, time.Minute, time.Hour, -time.Second}

	for _, status := range statuses {
		for _, assigned := range []bool{true, false} {
			for _, d := range elapsed {
				got := p.ShouldAutomate(status, assigned, d)
				if status == domain.ConversationStatusClosed && got {
					t.Fatalf("closed must always be false (assigned=%v elapsed=%v)", assigned, d)
				}
			}
		}
	}
}
