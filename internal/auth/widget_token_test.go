package auth

import (
	"testing"
)

func TestWidgetTokenRoundTrip(t *testing.T) {
	manager := NewWidgetTokenManager("test-secret", 60)

	token, expiresAt, err := manager.Issue(10, 7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("expected signed token with expiry")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.CustomerID != 10 || claims.ConversationID != 7 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestWidgetTokenWrongSecret(t *testing.T) {
	token, _, err := NewWidgetTokenManager("secret-a", 60).Issue(10, 7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := NewWidgetTokenManager("secret-b", 60).Parse(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestWidgetTokenGarbage(t *testing.T) {
	if _, err := NewWidgetTokenManager("secret", 60).Parse("not-a-token"); err == nil {
		t.Fatal("garbage must be rejected")
	}
}
