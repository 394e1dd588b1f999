// Package hub maintains the registry of live widget and dashboard
// connections and routes real-time events to them. Delivery is
// fire-and-forget to currently registered sockets; nothing is replayed
// across reconnects.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/events"
)

// Role tags a connection as either a customer bound to one conversation or
// an agent with cross-conversation visibility.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Hub is the in-process connection registry.
type Hub struct {
	logger *zap.Logger

	mu             sync.RWMutex
	clients        map[*Client]struct{}
	byConversation map[int64]map[*Client]struct{}
	agents         map[*Client]struct{}
}

// New creates an empty hub.
func New(logger *zap.Logger) *Hub {
	return &Hub{
		logger:         logger,
		clients:        make(map[*Client]struct{}),
		byConversation: make(map[int64]map[*Client]struct{}),
		agents:         make(map[*Client]struct{}),
	}
}

// Register adds a connection to the registry under its role tag.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	switch client.role {
	case RoleAgent:
		h.agents[client] = struct{}{}
	case RoleCustomer:
		set, ok := h.byConversation[client.conversationID]
		if !ok {
			set = make(map[*Client]struct{})
			h.byConversation[client.conversationID] = set
		}
		set[client] = struct{}{}
	}

	h.logger.Debug("connection registered",
		zap.String("client_id", client.id),
		zap.String("role", string(client.role)),
		zap.Int64("conversation_id", client.conversationID),
		zap.Int64("agent_id", client.agentID))
}

// Unregister removes a connection and closes its send queue. Safe to call
// more than once per connection.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, registered := h.clients[client]
	if registered {
		delete(h.clients, client)
		delete(h.agents, client)
		if set, ok := h.byConversation[client.conversationID]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.byConversation, client.conversationID)
			}
		}
	}
	h.mu.Unlock()

	if registered {
		client.closeSend()
		h.logger.Debug("connection unregistered",
			zap.String("client_id", client.id),
			zap.String("role", string(client.role)),
			zap.Int64("conversation_id", client.conversationID))
	}
}

// BroadcastToConversation delivers an event to every customer socket on the
// conversation and to every agent socket. Per-target order follows the
// caller's call order; a failed or slow target never blocks the others.
func (h *Hub) BroadcastToConversation(conversationID int64, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal broadcast event", zap.Error(err))
		return
	}
	h.deliver(h.conversationTargets(conversationID), payload, nil)
}

// BroadcastToAgents delivers an event to every agent socket only.
func (h *Hub) BroadcastToAgents(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal broadcast event", zap.Error(err))
		return
	}
	h.deliver(h.agentTargets(), payload, nil)
}

// RelayTyping forwards a typing indicator to the conversation's parties and
// agents, excluding the originating connection.
func (h *Hub) RelayTyping(conversationID int64, event any, except *Client) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal typing event", zap.Error(err))
		return
	}
	h.deliver(h.conversationTargets(conversationID), payload, except)
}

// OnlineAgentIDs lists the agent ids with at least one live connection.
func (h *Hub) OnlineAgentIDs() map[int64]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	online := make(map[int64]bool, len(h.agents))
	for client := range h.agents {
		online[client.agentID] = true
	}
	return online
}

// ConnectionCount reports the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BindDispatcher subscribes the hub to lifecycle events so every accepted
// message, assignment, and closure reaches the interested sockets.
func (h *Hub) BindDispatcher(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventMessageAccepted, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.MessageAcceptedPayload)
		if !ok {
			return nil
		}
		h.BroadcastToConversation(event.ConversationID, NewMessageEvent{
			Type:    "new_message",
			Message: NewMessageView(payload.Message),
		})
		return nil
	})

	dispatcher.Subscribe(events.EventConversationCreated, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.ConversationCreatedPayload)
		if !ok {
			return nil
		}
		h.BroadcastToAgents(ConversationCreatedEvent{
			Type:           "conversation_created",
			ConversationID: event.ConversationID,
			CustomerID:     payload.CustomerID,
		})
		return nil
	})

	dispatcher.Subscribe(events.EventConversationAssigned, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.ConversationAssignedPayload)
		if !ok {
			return nil
		}
		h.BroadcastToConversation(event.ConversationID, ConversationAssignedEvent{
			Type:           "conversation_assigned",
			ConversationID: event.ConversationID,
			AgentID:        payload.AgentID,
			AgentName:      payload.AgentName,
		})
		return nil
	})

	dispatcher.Subscribe(events.EventConversationClosed, func(_ context.Context, event events.Event) error {
		h.BroadcastToConversation(event.ConversationID, ConversationClosedEvent{
			Type:           "conversation_closed",
			ConversationID: event.ConversationID,
		})
		return nil
	})
}

// conversationTargets snapshots the delivery set: the conversation's
// customer sockets plus all agents. Snapshotting under the read lock keeps
// a concurrent (un)register from being skipped or double-delivered
// mid-iteration.
func (h *Hub) conversationTargets(conversationID int64) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]*Client, 0, len(h.agents)+2)
	for client := range h.byConversation[conversationID] {
		targets = append(targets, client)
	}
	for client := range h.agents {
		targets = append(targets, client)
	}
	return targets
}

func (h *Hub) agentTargets() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]*Client, 0, len(h.agents))
	for client := range h.agents {
		targets = append(targets, client)
	}
	return targets
}

func (h *Hub) deliver(targets []*Client, payload []byte, except *Client) {
	var slow []*Client
	for _, client := range targets {
		if client == except {
			continue
		}
		if !client.enqueue(payload) {
			slow = append(slow, client)
		}
	}

	// a full send buffer means the peer stopped reading; cut it loose
	// rather than stall everyone else
	for _, client := range slow {
		h.logger.Warn("send buffer full, dropping connection",
			zap.String("role", string(client.role)),
			zap.Int64("conversation_id", client.conversationID))
		h.Unregister(client)
	}
}
