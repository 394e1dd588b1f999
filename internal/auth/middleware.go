package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/session"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

const agentKey = "auth_agent"

// Middleware validates bearer session tokens and loads the agent.
type Middleware struct {
	sessions *session.Store
}

// NewMiddleware constructs middleware backed by the session store.
func NewMiddleware(sessions *session.Store) *Middleware {
	return &Middleware{sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	agent, err := m.sessions.Validate(c.UserContext(), parts[1])
	if err != nil {
		return err
	}

	c.Locals(agentKey, agent)
	c.Locals(tokenKey, parts[1])
	return c.Next()
}

const tokenKey = "auth_token"

// AgentFromContext retrieves the authenticated agent.
func AgentFromContext(c *fiber.Ctx) (*domain.Agent, bool) {
	val := c.Locals(agentKey)
	if val == nil {
		return nil, false
	}
	agent, ok := val.(*domain.Agent)
	return agent, ok
}

// TokenFromContext retrieves the session token used for this request.
func TokenFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(tokenKey)
	if val == nil {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

// RequireRole ensures the agent has one of the allowed roles.
func RequireRole(allowed ...domain.AgentRole) fiber.Handler {
	allowedSet := make(map[domain.AgentRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		agent, ok := AgentFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[agent.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
