package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/api/dto"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/auth"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/lifecycle"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

// ConversationsHandler manages the agent dashboard's conversation endpoints.
type ConversationsHandler struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	customers     repository.CustomerRepository
	controller    *lifecycle.Controller
}

// NewConversationsHandler constructs handler.
func NewConversationsHandler(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	customers repository.CustomerRepository,
	controller *lifecycle.Controller,
) *ConversationsHandler {
	return &ConversationsHandler{
		conversations: conversations,
		messages:      messages,
		customers:     customers,
		controller:    controller,
	}
}

// List GET /conversations.
func (h *ConversationsHandler) List(c *fiber.Ctx) error {
	filter := parseConversationQuery(c)
	conversations, err := h.conversations.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		items = append(items, conversationSummary(&conversations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /conversations/:id.
func (h *ConversationsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	conversation, err := h.conversations.GetByID(c.Context(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	messages, err := h.messages.ListByConversation(c.Context(), id, parseInt(c.Query("limit"), 200))
	if err != nil {
		return err
	}

	detail := dto.ConversationDetail{
		ConversationSummary: conversationSummary(conversation),
		Messages:            messageResponses(messages),
	}
	if customer, err := h.customers.GetByID(c.Context(), conversation.CustomerID); err == nil {
		detail.Customer = &dto.CustomerResponse{
			ID:         customer.ID,
			Name:       customer.Name,
			Email:      customer.Email,
			Identified: customer.Identified,
			LastSeenAt: customer.LastSeenAt,
		}
	}
	return c.JSON(fiber.Map{"data": detail})
}

// Assign POST /conversations/:id/assign.
func (h *ConversationsHandler) Assign(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	targetAgentID := req.AgentID
	if targetAgentID == 0 {
		targetAgentID = agent.ID
	}

	conversation, err := h.controller.Assign(c.Context(), id, targetAgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conversation)})
}

// Close POST /conversations/:id/close.
func (h *ConversationsHandler) Close(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	conversation, err := h.controller.Close(c.Context(), id, &agent.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conversation)})
}

// AddMessage POST /conversations/:id/messages. REST fallback for agents
// without a live socket; the hub still fans the accepted message out.
func (h *ConversationsHandler) AddMessage(c *fiber.Ctx) error {
	agent, ok := auth.AgentFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("agent required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}

	message, err := h.controller.AcceptMessage(c.Context(), id, domain.AgentSender(agent.ID), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(message)})
}

// ListMessages GET /conversations/:id/messages.
func (h *ConversationsHandler) ListMessages(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	messages, err := h.messages.ListByConversation(c.Context(), id, parseInt(c.Query("limit"), 200))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": messageResponses(messages)})
}

func parseConversationQuery(c *fiber.Ctx) repository.ConversationFilter {
	filter := repository.ConversationFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.ConversationStatus(strings.TrimSpace(statusStr))
		filter.Status = &status
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", nil)
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func conversationSummary(conversation *domain.Conversation) dto.ConversationSummary {
	return dto.ConversationSummary{
		ID:                      conversation.ID,
		CustomerID:              conversation.CustomerID,
		AgentID:                 conversation.AgentID,
		Status:                  conversation.Status,
		LastAgentInterventionAt: conversation.LastAgentInterventionAt,
		CreatedAt:               conversation.CreatedAt,
		UpdatedAt:               conversation.UpdatedAt,
	}
}

func messageResponses(messages []domain.Message) []dto.MessageResponse {
	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, messageResponse(&messages[i]))
	}
	return items
}

func messageResponse(message *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderRole:     message.Sender.Role,
		SenderID:       message.Sender.ID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}
}
