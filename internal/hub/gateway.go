package hub

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/auth"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/config"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/events"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/identity"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/lifecycle"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/session"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

// Locals keys set by the upgrade middleware before the connection is
// handed to the gateway.
const (
	LocalClientIP  = "client_ip"
	LocalUserAgent = "user_agent"
)

// Gateway owns the per-connection read loop: it authenticates the first
// frame, registers the socket with the hub, and dispatches subsequent
// frames. Malformed frames produce an error event on that socket only.
type Gateway struct {
	hub           *Hub
	agents        repository.AgentRepository
	customers     repository.CustomerRepository
	conversations repository.ConversationRepository
	sessions      *session.Store
	resolver      *identity.Resolver
	controller    *lifecycle.Controller
	widgetTokens  *auth.WidgetTokenManager
	dispatcher    events.Dispatcher
	cfg           config.HubConfig
	logger        *zap.Logger
}

// GatewayDependencies bundles collaborators for the gateway.
type GatewayDependencies struct {
	Hub              *Hub
	AgentRepo        repository.AgentRepository
	CustomerRepo     repository.CustomerRepository
	ConversationRepo repository.ConversationRepository
	Sessions         *session.Store
	Resolver         *identity.Resolver
	Controller       *lifecycle.Controller
	WidgetTokens     *auth.WidgetTokenManager
	Dispatcher       events.Dispatcher
	Config           config.HubConfig
	Logger           *zap.Logger
}

// NewGateway constructs the gateway.
func NewGateway(deps GatewayDependencies) *Gateway {
	return &Gateway{
		hub:           deps.Hub,
		agents:        deps.AgentRepo,
		customers:     deps.CustomerRepo,
		conversations: deps.ConversationRepo,
		sessions:      deps.Sessions,
		resolver:      deps.Resolver,
		controller:    deps.Controller,
		widgetTokens:  deps.WidgetTokens,
		dispatcher:    deps.Dispatcher,
		cfg:           deps.Config,
		logger:        deps.Logger,
	}
}

// Handle runs the connection's read loop until the peer goes away. The
// first accepted frame must be agent_auth or customer_init; everything else
// before registration is rejected with an error event.
func (g *Gateway) Handle(conn *websocket.Conn) {
	ip, _ := conn.Locals(LocalClientIP).(string)
	userAgent, _ := conn.Locals(LocalUserAgent).(string)

	var client *Client
	defer func() {
		if client != nil {
			g.hub.Unregister(client)
		}
		_ = conn.Close()
	}()

	pongTimeout := time.Duration(g.cfg.PongTimeoutSeconds) * time.Second
	if pongTimeout <= 0 {
		pongTimeout = 60 * time.Second
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			g.logger.Debug("websocket read loop ended", zap.Error(err))
			return
		}

		frame, err := DecodeInbound(data)
		if err != nil {
			g.writeError(conn, client, err.Error())
			continue
		}

		switch f := frame.(type) {
		case AgentAuthFrame:
			client = g.handleAgentAuth(conn, client, f)
		case CustomerInitFrame:
			client = g.handleCustomerInit(conn, client, f, ip, userAgent)
		case ChatMessageFrame:
			g.handleChatMessage(conn, client, f)
		case TypingFrame:
			g.handleTyping(conn, client, f)
		}
	}
}

func (g *Gateway) handleAgentAuth(conn *websocket.Conn, client *Client, frame AgentAuthFrame) *Client {
	if client != nil {
		g.writeError(conn, client, "connection already registered")
		return client
	}

	ctx := context.Background()
	agent, err := g.agents.GetByEmail(ctx, frame.Email)
	if err != nil || auth.ComparePassword(agent.PasswordHash, frame.Password) != nil {
		g.writeDirect(conn, AuthErrorEvent{Type: "auth_error", Message: "invalid credentials"})
		return nil
	}
	if !agent.Active {
		g.writeDirect(conn, AuthErrorEvent{Type: "auth_error", Message: "agent deactivated"})
		return nil
	}

	sess, err := g.sessions.Create(ctx, agent.ID, map[string]string{"via": "websocket"})
	if err != nil {
		g.logger.Error("create session failed", zap.Error(err))
		g.writeDirect(conn, AuthErrorEvent{Type: "auth_error", Message: "authentication unavailable"})
		return nil
	}

	client = NewAgentClient(conn, agent.ID, g.cfg.SendBufferSize)
	g.hub.Register(client)
	go client.WritePump(g.pingPeriod(), 10*time.Second)

	client.SendEvent(AuthSuccessEvent{
		Type:      "auth_success",
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		AgentID:   agent.ID,
		AgentName: agent.Name,
	})
	g.logger.Info("agent socket authenticated", zap.Int64("agent_id", agent.ID))
	return client
}

func (g *Gateway) handleCustomerInit(conn *websocket.Conn, client *Client, frame CustomerInitFrame, ip, userAgent string) *Client {
	if client != nil {
		g.writeError(conn, client, "connection already registered")
		return client
	}

	ctx := context.Background()

	if frame.WidgetToken != "" {
		if reattached := g.reattach(ctx, conn, frame.WidgetToken); reattached != nil {
			return reattached
		}
		// stale or invalid token falls through to a fresh initiation
	}

	resolution, err := g.resolver.Resolve(ctx, identity.ResolveInput{
		Name:      frame.Name,
		Email:     frame.Email,
		Phone:     frame.Phone,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		g.logger.Error("customer resolution failed", zap.Error(err))
		g.writeDirect(conn, NewErrorEvent("could not start conversation"))
		return nil
	}

	token, _, err := g.widgetTokens.Issue(resolution.Customer.ID, resolution.Conversation.ID)
	if err != nil {
		g.logger.Warn("widget token issue failed", zap.Error(err))
	}

	client = NewCustomerClient(conn, resolution.Customer.ID, resolution.Conversation.ID, g.cfg.SendBufferSize)
	g.hub.Register(client)
	go client.WritePump(g.pingPeriod(), 10*time.Second)

	if g.dispatcher != nil {
		_ = g.dispatcher.Publish(ctx, events.Event{
			ID:             uuid.NewString(),
			Type:           events.EventConversationCreated,
			ConversationID: resolution.Conversation.ID,
			Timestamp:      time.Now(),
			Payload:        events.ConversationCreatedPayload{CustomerID: resolution.Customer.ID},
		})
	}

	client.SendEvent(InitSuccessEvent{
		Type: "init_success",
		Customer: CustomerView{
			ID:         resolution.Customer.ID,
			Name:       resolution.Customer.Name,
			Email:      resolution.Customer.Email,
			Identified: resolution.Customer.Identified,
		},
		ConversationID:      resolution.Conversation.ID,
		WidgetToken:         token,
		IsReturningCustomer: resolution.Returning,
	})
	return client
}

// reattach rebinds a reloaded widget to its existing conversation. Returns
// nil when the token or conversation is no longer usable.
func (g *Gateway) reattach(ctx context.Context, conn *websocket.Conn, widgetToken string) *Client {
	claims, err := g.widgetTokens.Parse(widgetToken)
	if err != nil {
		return nil
	}
	conversation, err := g.conversations.GetByID(ctx, claims.ConversationID)
	if err != nil || conversation.Status == domain.ConversationStatusClosed {
		return nil
	}
	customer, err := g.customers.GetByID(ctx, claims.CustomerID)
	if err != nil {
		return nil
	}

	client := NewCustomerClient(conn, customer.ID, conversation.ID, g.cfg.SendBufferSize)
	g.hub.Register(client)
	go client.WritePump(g.pingPeriod(), 10*time.Second)

	client.SendEvent(InitSuccessEvent{
		Type: "init_success",
		Customer: CustomerView{
			ID:         customer.ID,
			Name:       customer.Name,
			Email:      customer.Email,
			Identified: customer.Identified,
		},
		ConversationID:      conversation.ID,
		WidgetToken:         widgetToken,
		IsReturningCustomer: true,
	})
	return client
}

func (g *Gateway) handleChatMessage(conn *websocket.Conn, client *Client, frame ChatMessageFrame) {
	if client == nil {
		g.writeDirect(conn, NewErrorEvent("authenticate before sending messages"))
		return
	}

	var (
		conversationID int64
		sender         domain.Sender
	)
	switch client.role {
	case RoleCustomer:
		// customers speak only on their own conversation, whatever the
		// frame claims
		conversationID = client.conversationID
		sender = domain.CustomerSender(client.customerID)
	case RoleAgent:
		if frame.ConversationID == 0 {
			client.SendEvent(NewErrorEvent("conversationId required"))
			return
		}
		conversationID = frame.ConversationID
		sender = domain.AgentSender(client.agentID)
	}

	if _, err := g.controller.AcceptMessage(context.Background(), conversationID, sender, frame.Content); err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			client.SendEvent(NewErrorEvent(domainErr.Message))
			return
		}
		if errors.Is(err, pgx.ErrNoRows) {
			client.SendEvent(NewErrorEvent("conversation not found"))
			return
		}
		client.SendEvent(NewErrorEvent("message delivery failed"))
	}
}

func (g *Gateway) handleTyping(conn *websocket.Conn, client *Client, frame TypingFrame) {
	if client == nil {
		g.writeDirect(conn, NewErrorEvent("authenticate before typing events"))
		return
	}

	conversationID := frame.ConversationID
	senderType := string(client.role)
	if client.role == RoleCustomer {
		conversationID = client.conversationID
	}
	if conversationID == 0 {
		client.SendEvent(NewErrorEvent("conversationId required"))
		return
	}

	g.hub.RelayTyping(conversationID, TypingEvent{
		Type:           "typing",
		ConversationID: conversationID,
		SenderType:     senderType,
		IsTyping:       frame.IsTyping,
	}, client)
}

func (g *Gateway) pingPeriod() time.Duration {
	period := time.Duration(g.cfg.PingPeriodSeconds) * time.Second
	if period <= 0 {
		period = 54 * time.Second
	}
	return period
}

// writeError routes an error event through the client queue when one
// exists, or straight onto the socket before registration.
func (g *Gateway) writeError(conn *websocket.Conn, client *Client, message string) {
	if client != nil {
		client.SendEvent(NewErrorEvent(message))
		return
	}
	g.writeDirect(conn, NewErrorEvent(message))
}

// writeDirect is only safe before a WritePump exists for the connection.
func (g *Gateway) writeDirect(conn *websocket.Conn, event any) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = conn.WriteJSON(event)
}
