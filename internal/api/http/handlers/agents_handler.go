package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/api/dto"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/auth"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/hub"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/session"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

// AgentsHandler manages operator auth and account endpoints.
type AgentsHandler struct {
	agents     repository.AgentRepository
	sessions   *session.Store
	hub        *hub.Hub
	bcryptCost int
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agents repository.AgentRepository, sessions *session.Store, h *hub.Hub, bcryptCost int) *AgentsHandler {
	return &AgentsHandler{agents: agents, sessions: sessions, hub: h, bcryptCost: bcryptCost}
}

// Login POST /auth/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email, password required", nil)
	}

	agent, err := h.agents.GetByEmail(c.Context(), req.Email)
	if err != nil || auth.ComparePassword(agent.PasswordHash, req.Password) != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if !agent.Active {
		return apperrors.NewUnauthorized("agent deactivated")
	}

	sess, err := h.sessions.Create(c.Context(), agent.ID, map[string]string{
		"via": "rest",
		"ip":  c.IP(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Agent:     h.agentResponse(agent),
	}})
}

// Logout POST /auth/logout.
func (h *AgentsHandler) Logout(c *fiber.Ctx) error {
	token, ok := auth.TokenFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	if err := h.sessions.Invalidate(c.Context(), token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Me GET /agents/me.
func (h *AgentsHandler) Me(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	return c.JSON(fiber.Map{"data": h.agentResponse(agent)})
}

// UpdateMe PATCH /agents/me. Agents use this to flip their availability
// and rename themselves.
func (h *AgentsHandler) UpdateMe(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.UpdateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return apperrors.NewValidationError("name cannot be empty", nil)
		}
		agent.Name = name
	}
	if req.Available != nil {
		agent.Available = *req.Available
	}
	agent.UpdatedAt = time.Now().UTC()
	if err := h.agents.Update(c.Context(), agent); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.agentResponse(agent)})
}

// List GET /agents. Online state comes from live hub registrations.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	agents, err := h.agents.List(c.Context())
	if err != nil {
		return err
	}
	online := h.hub.OnlineAgentIDs()
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		resp := h.agentResponse(&agents[i])
		resp.Online = online[agents[i].ID]
		items = append(items, resp)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /agents. Admin provisioning of operator accounts.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	role := domain.AgentRole(strings.ToUpper(req.Role))
	switch role {
	case domain.AgentRoleAdmin, domain.AgentRoleAgent, domain.AgentRoleSupervisor:
	case "":
		role = domain.AgentRoleAgent
	default:
		return apperrors.NewValidationError("unknown role", fiber.Map{"role": req.Role})
	}

	if _, err := h.agents.GetByEmail(c.Context(), req.Email); err == nil {
		return apperrors.NewConflict("email already registered", nil)
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	agent := &domain.Agent{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.agents.Create(c.Context(), agent); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.agentResponse(agent)})
}

func (h *AgentsHandler) agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		Name:      agent.Name,
		Email:     agent.Email,
		Role:      agent.Role,
		Active:    agent.Active,
		Available: agent.Available,
		CreatedAt: agent.CreatedAt,
	}
}
