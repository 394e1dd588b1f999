package lifecycle

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/escalation"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/events"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

// Responder is the automated engine as the controller sees it.
type Responder interface {
	Respond(ctx context.Context, conversationID int64, message, customerName string) string
	ClearHistory(conversationID int64)
}

// Controller enforces conversation state transitions and drives their side
// effects: persisting, event broadcast, and automated replies.
type Controller struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	customers     repository.CustomerRepository
	agents        repository.AgentRepository
	responder     Responder
	policy        escalation.Policy
	dispatcher    events.Dispatcher
	minDelay      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// Dependencies bundles what the controller needs.
type Dependencies struct {
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.MessageRepository
	CustomerRepo     repository.CustomerRepository
	AgentRepo        repository.AgentRepository
	Responder        Responder
	Policy           escalation.Policy
	Dispatcher       events.Dispatcher
	MinResponseDelay time.Duration
	Logger           *zap.Logger
}

// NewController constructs the controller.
func NewController(deps Dependencies) *Controller {
	return &Controller{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		customers:     deps.CustomerRepo,
		agents:        deps.AgentRepo,
		responder:     deps.Responder,
		policy:        deps.Policy,
		dispatcher:    deps.Dispatcher,
		minDelay:      deps.MinResponseDelay,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

var allowedTransitions = map[domain.ConversationStatus][]domain.ConversationStatus{
	domain.ConversationStatusOpen:     {domain.ConversationStatusAssigned, domain.ConversationStatusClosed},
	domain.ConversationStatusAssigned: {domain.ConversationStatusAssigned, domain.ConversationStatusClosed},
	domain.ConversationStatusClosed:   {},
}

func isValidTransition(current, next domain.ConversationStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AcceptMessage appends a message to a conversation and broadcasts it. For
// customer messages the escalation policy lets through, it also schedules
// an automated reply after the minimum response delay. The reply for
// message N is always enqueued after message N's own broadcast.
func (c *Controller) AcceptMessage(ctx context.Context, conversationID int64, sender domain.Sender, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("message content required", nil)
	}

	conversation, err := c.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation.Status == domain.ConversationStatusClosed {
		return nil, apperrors.NewConflict("conversation is closed", map[string]any{"conversation_id": conversationID})
	}

	message := &domain.Message{
		ConversationID: conversation.ID,
		Sender:         sender,
		Content:        content,
	}
	if err := c.messages.Create(ctx, message); err != nil {
		return nil, apperrors.MapError(err)
	}

	now := c.now()
	elapsedSinceAgent := c.elapsedSinceAgent(conversation, now)
	conversation.UpdatedAt = now
	if sender.Role == domain.SenderRoleAgent {
		conversation.LastAgentInterventionAt = &now
	}
	if err := c.conversations.Update(ctx, conversation); err != nil {
		return nil, apperrors.MapError(err)
	}

	c.publish(ctx, events.Event{
		Type:           events.EventMessageAccepted,
		ConversationID: conversation.ID,
		Payload:        events.MessageAcceptedPayload{Message: *message},
	})

	if sender.Role == domain.SenderRoleCustomer &&
		c.responder != nil &&
		c.policy.ShouldAutomate(conversation.Status, conversation.AgentID != nil, elapsedSinceAgent) {
		go c.deliverAutomatedReply(conversation.ID, conversation.CustomerID, content)
	}

	return message, nil
}

// Assign moves a conversation to the given agent. Reassignment from
// assigned is legal; assigning a closed conversation is rejected and the
// status stays closed.
func (c *Controller) Assign(ctx context.Context, conversationID, agentID int64) (*domain.Conversation, error) {
	conversation, err := c.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(conversation.Status, domain.ConversationStatusAssigned) {
		return nil, apperrors.NewConflict("conversation cannot be assigned", map[string]any{
			"conversation_id": conversationID,
			"status":          conversation.Status,
		})
	}

	agent, err := c.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !agent.Active {
		return nil, apperrors.NewConflict("agent deactivated", map[string]any{"agent_id": agentID})
	}

	conversation.AgentID = &agent.ID
	conversation.Status = domain.ConversationStatusAssigned
	conversation.UpdatedAt = c.now()
	if err := c.conversations.Update(ctx, conversation); err != nil {
		return nil, apperrors.MapError(err)
	}

	c.publish(ctx, events.Event{
		Type:           events.EventConversationAssigned,
		ConversationID: conversation.ID,
		Payload: events.ConversationAssignedPayload{
			AgentID:   agent.ID,
			AgentName: agent.Name,
		},
	})
	return conversation, nil
}

// Close terminates a conversation. Side effects run in order: persist the
// status, broadcast closure, clear the responder's rolling history.
func (c *Controller) Close(ctx context.Context, conversationID int64, closedBy *int64) (*domain.Conversation, error) {
	conversation, err := c.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(conversation.Status, domain.ConversationStatusClosed) {
		return nil, apperrors.NewConflict("conversation already closed", map[string]any{"conversation_id": conversationID})
	}

	conversation.Status = domain.ConversationStatusClosed
	conversation.UpdatedAt = c.now()
	if err := c.conversations.Update(ctx, conversation); err != nil {
		return nil, apperrors.MapError(err)
	}

	c.publish(ctx, events.Event{
		Type:           events.EventConversationClosed,
		ConversationID: conversation.ID,
		Payload:        events.ConversationClosedPayload{ClosedBy: closedBy},
	})

	if c.responder != nil {
		c.responder.ClearHistory(conversation.ID)
	}
	return conversation, nil
}

// deliverAutomatedReply runs detached from the triggering request so a slow
// generation call never delays delivery for other conversations.
func (c *Controller) deliverAutomatedReply(conversationID, customerID int64, customerMessage string) {
	if c.minDelay > 0 {
		time.Sleep(c.minDelay)
	}

	ctx := context.Background()

	customerName := "there"
	if customer, err := c.customers.GetByID(ctx, customerID); err == nil && customer.Name != "" {
		customerName = customer.Name
	}

	reply := c.responder.Respond(ctx, conversationID, customerMessage, customerName)

	// the conversation may have closed or been taken over while generating
	conversation, err := c.getConversation(ctx, conversationID)
	if err != nil || conversation.Status == domain.ConversationStatusClosed {
		c.logger.Debug("dropping automated reply", zap.Int64("conversation_id", conversationID))
		return
	}

	message := &domain.Message{
		ConversationID: conversationID,
		Sender:         domain.AutomatedSender(),
		Content:        reply,
	}
	if err := c.messages.Create(ctx, message); err != nil {
		c.logger.Error("persist automated reply failed", zap.Error(err), zap.Int64("conversation_id", conversationID))
		return
	}

	conversation.UpdatedAt = c.now()
	if err := c.conversations.Update(ctx, conversation); err != nil {
		c.logger.Warn("touch conversation failed", zap.Error(err), zap.Int64("conversation_id", conversationID))
	}

	c.publish(ctx, events.Event{
		Type:           events.EventMessageAccepted,
		ConversationID: conversationID,
		Payload:        events.MessageAcceptedPayload{Message: *message},
	})
}

func (c *Controller) elapsedSinceAgent(conversation *domain.Conversation, now time.Time) time.Duration {
	if conversation.LastAgentInterventionAt == nil {
		// no agent has spoken yet; outside any grace window
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(*conversation.LastAgentInterventionAt)
}

func (c *Controller) getConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	conversation, err := c.conversations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("conversation", map[string]any{"conversation_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return conversation, nil
}

func (c *Controller) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	_ = c.dispatcher.Publish(ctx, event)
}
