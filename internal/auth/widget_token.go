package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// WidgetTokenManager issues and validates the short-lived signed claim the
// embed script stores so a reloaded widget can re-attach to its
// conversation without re-initiating.
type WidgetTokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewWidgetTokenManager builds a new manager.
func NewWidgetTokenManager(secret string, ttlMinutes int) *WidgetTokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 1440
	}
	return &WidgetTokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// WidgetClaims describes the widget JWT payload.
type WidgetClaims struct {
	CustomerID     int64 `json:"customer_id"`
	ConversationID int64 `json:"conversation_id"`
	jwt.RegisteredClaims
}

// Issue signs a widget token binding a customer to a conversation.
func (wm *WidgetTokenManager) Issue(customerID, conversationID int64) (string, time.Time, error) {
	expiresAt := time.Now().Add(wm.ttl)
	claims := &WidgetClaims{
		CustomerID:     customerID,
		ConversationID: conversationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(wm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates and returns widget claims.
func (wm *WidgetTokenManager) Parse(tokenStr string) (*WidgetClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &WidgetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return wm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*WidgetClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
