package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/escalation"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/events"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
)

type fakeConversationRepo struct {
	mu    sync.Mutex
	items map[int64]domain.Conversation
}

func newFakeConversationRepo(items ...domain.Conversation) *fakeConversationRepo {
	repo := &fakeConversationRepo{items: make(map[int64]domain.Conversation)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (f *fakeConversationRepo) Create(_ context.Context, conversation *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation.ID = int64(len(f.items) + 1)
	f.items[conversation.ID] = *conversation
	return nil
}

func (f *fakeConversationRepo) Update(_ context.Context, conversation *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[conversation.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.items[conversation.ID] = *conversation
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id int64) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := item
	return &copied, nil
}

func (f *fakeConversationRepo) List(_ context.Context, _ repository.ConversationFilter) ([]domain.Conversation, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	mu    sync.Mutex
	items []domain.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	message.ID = int64(len(f.items) + 1)
	message.CreatedAt = time.Now()
	f.items = append(f.items, *message)
	return nil
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID int64, _ int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, item := range f.items {
		if item.ConversationID == conversationID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) bySender(role domain.SenderRole) []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, item := range f.items {
		if item.Sender.Role == role {
			out = append(out, item)
		}
	}
	return out
}

type fakeCustomerRepo struct {
	customer *domain.Customer
}

func (f *fakeCustomerRepo) Create(_ context.Context, _ *domain.Customer) error { return nil }
func (f *fakeCustomerRepo) Update(_ context.Context, _ *domain.Customer) error { return nil }
func (f *fakeCustomerRepo) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	if f.customer != nil && f.customer.ID == id {
		copied := *f.customer
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}
func (f *fakeCustomerRepo) GetByEmail(_ context.Context, _ string) (*domain.Customer, error) {
	return nil, pgx.ErrNoRows
}
func (f *fakeCustomerRepo) GetLatestByIP(_ context.Context, _ string) (*domain.Customer, error) {
	return nil, pgx.ErrNoRows
}
func (f *fakeCustomerRepo) GetBySessionID(_ context.Context, _ string) (*domain.Customer, error) {
	return nil, pgx.ErrNoRows
}

type fakeAgentRepo struct {
	agents map[int64]domain.Agent
}

func (f *fakeAgentRepo) Create(_ context.Context, _ *domain.Agent) error { return nil }
func (f *fakeAgentRepo) Update(_ context.Context, _ *domain.Agent) error { return nil }
func (f *fakeAgentRepo) GetByID(_ context.Context, id int64) (*domain.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &agent, nil
}
func (f *fakeAgentRepo) GetByEmail(_ context.Context, _ string) (*domain.Agent, error) {
	return nil, pgx.ErrNoRows
}
func (f *fakeAgentRepo) List(_ context.Context) ([]domain.Agent, error) { return nil, nil }
func (f *fakeAgentRepo) Count(_ context.Context) (int64, error)         { return 0, nil }

type fakeResponder struct {
	mu      sync.Mutex
	replies []string
	cleared []int64
	reply   string
}

func (f *fakeResponder) Respond(_ context.Context, _ int64, message, _ string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, message)
	if f.reply != "" {
		return f.reply
	}
	return "automated: " + message
}

func (f *fakeResponder) ClearHistory(conversationID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, conversationID)
}

func (f *fakeResponder) respondCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *captureDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type testHarness struct {
	controller    *Controller
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	responder     *fakeResponder
	dispatcher    *captureDispatcher
}

func newHarness(policy escalation.Policy, conversations ...domain.Conversation) *testHarness {
	conversationRepo := newFakeConversationRepo(conversations...)
	messageRepo := &fakeMessageRepo{}
	responder := &fakeResponder{}
	dispatcher := &captureDispatcher{}

	controller := NewController(Dependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		CustomerRepo:     &fakeCustomerRepo{customer: &domain.Customer{ID: 10, Name: "Ada"}},
		AgentRepo: &fakeAgentRepo{agents: map[int64]domain.Agent{
			5: {ID: 5, Name: "Sam", Active: true},
			6: {ID: 6, Name: "Gone", Active: false},
		}},
		Responder:  responder,
		Policy:     policy,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})

	return &testHarness{
		controller:    controller,
		conversations: conversationRepo,
		messages:      messageRepo,
		responder:     responder,
		dispatcher:    dispatcher,
	}
}

func openConversation(id int64) domain.Conversation {
	return domain.Conversation{ID: id, CustomerID: 10, Status: domain.ConversationStatusOpen}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAcceptMessageRejectsEmptyContent(t *testing.T) {
	h := newHarness(escalation.Policy{}, openConversation(1))

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "   "); err == nil {
		t.Fatal("blank content must be rejected")
	}
}

func TestAcceptMessageOnClosedConversation(t *testing.T) {
	closed := openConversation(1)
	closed.Status = domain.ConversationStatusClosed
	h := newHarness(escalation.Policy{}, closed)

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "hello"); err == nil {
		t.Fatal("messages on closed conversations must be rejected")
	}
	if len(h.messages.items) != 0 {
		t.Fatal("rejected message must not be persisted")
	}
}

func TestAcceptMessagePersistsAndBroadcasts(t *testing.T) {
	h := newHarness(escalation.Policy{}, openConversation(1))

	message, err := h.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "hello")
	if err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}
	if message.ID == 0 {
		t.Fatal("expected message id from persistence")
	}
	if got := h.dispatcher.ofType(events.EventMessageAccepted); len(got) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(got))
	}
}

func TestAgentMessageStampsIntervention(t *testing.T) {
	h := newHarness(escalation.Policy{}, openConversation(1))

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.AgentSender(5), "on it"); err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}
	conversation, _ := h.conversations.GetByID(context.Background(), 1)
	if conversation.LastAgentInterventionAt == nil {
		t.Fatal("agent message must stamp the intervention time")
	}

	h2 := newHarness(escalation.Policy{}, openConversation(1))
	if _, err := h2.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "help"); err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}
	conversation, _ = h2.conversations.GetByID(context.Background(), 1)
	if conversation.LastAgentInterventionAt != nil {
		t.Fatal("customer message must not stamp the intervention time")
	}
}

func TestCustomerMessageTriggersAutomatedReply(t *testing.T) {
	h := newHarness(escalation.Policy{Enabled: true, GraceWindow: time.Minute}, openConversation(1))

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "where is my order"); err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}

	waitFor(t, func() bool {
		return len(h.dispatcher.ofType(events.EventMessageAccepted)) == 2
	})
	if got := h.messages.bySender(domain.SenderRoleAutomated); len(got) != 1 {
		t.Fatalf("expected one automated message, got %d", len(got))
	}

	// customer message broadcast must precede the automated reply broadcast
	accepted := h.dispatcher.ofType(events.EventMessageAccepted)
	first := accepted[0].Payload.(events.MessageAcceptedPayload)
	if first.Message.Sender.Role != domain.SenderRoleCustomer {
		t.Fatal("customer message must broadcast before the automated reply")
	}
}

func TestAgentMessageNeverTriggersAutomation(t *testing.T) {
	h := newHarness(escalation.Policy{Enabled: true}, openConversation(1))

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.AgentSender(5), "hello"); err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if h.responder.respondCount() != 0 {
		t.Fatal("agent messages must not trigger the responder")
	}
}

func TestGraceWindowSuppressesAutomation(t *testing.T) {
	now := time.Now()
	conversation := openConversation(1)
	agentID := int64(5)
	conversation.Status = domain.ConversationStatusAssigned
	conversation.AgentID = &agentID
	conversation.LastAgentInterventionAt = &now
	h := newHarness(escalation.Policy{Enabled: true, GraceWindow: time.Hour}, conversation)

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "anyone there?"); err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if h.responder.respondCount() != 0 {
		t.Fatal("fresh agent intervention must suppress automation")
	}
}

func TestAutomatedReplyDroppedWhenConversationCloses(t *testing.T) {
	h := newHarness(escalation.Policy{Enabled: true}, openConversation(1))
	h.controller.minDelay = 50 * time.Millisecond

	if _, err := h.controller.AcceptMessage(context.Background(), 1, domain.CustomerSender(10), "hello"); err != nil {
		t.Fatalf("AcceptMessage failed: %v", err)
	}
	if _, err := h.controller.Close(context.Background(), 1, nil); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := h.messages.bySender(domain.SenderRoleAutomated); len(got) != 0 {
		t.Fatalf("reply for a closed conversation must be dropped, got %d", len(got))
	}
}

func TestAssignTransitions(t *testing.T) {
	h := newHarness(escalation.Policy{}, openConversation(1))

	conversation, err := h.controller.Assign(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if conversation.Status != domain.ConversationStatusAssigned || conversation.AgentID == nil || *conversation.AgentID != 5 {
		t.Fatalf("unexpected conversation after assign: %+v", conversation)
	}
	if got := h.dispatcher.ofType(events.EventConversationAssigned); len(got) != 1 {
		t.Fatalf("expected one assigned broadcast, got %d", len(got))
	}

	// reassignment from assigned is legal
	if _, err := h.controller.Assign(context.Background(), 1, 5); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
}

func TestAssignRejectsInactiveAgent(t *testing.T) {
	h := newHarness(escalation.Policy{}, openConversation(1))

	if _, err := h.controller.Assign(context.Background(), 1, 6); err == nil {
		t.Fatal("assigning a deactivated agent must fail")
	}
}

func TestAssignClosedConversationKeepsClosed(t *testing.T) {
	closed := openConversation(1)
	closed.Status = domain.ConversationStatusClosed
	h := newHarness(escalation.Policy{}, closed)

	if _, err := h.controller.Assign(context.Background(), 1, 5); err == nil {
		t.Fatal("assigning a closed conversation must fail")
	}
	conversation, _ := h.conversations.GetByID(context.Background(), 1)
	if conversation.Status != domain.ConversationStatusClosed {
		t.Fatalf("status must stay closed, got %s", conversation.Status)
	}
}

func TestCloseBroadcastsThenClearsHistory(t *testing.T) {
	h := newHarness(escalation.Policy{}, openConversation(1))

	if _, err := h.controller.Close(context.Background(), 1, nil); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := h.dispatcher.ofType(events.EventConversationClosed); len(got) != 1 {
		t.Fatalf("expected one closed broadcast, got %d", len(got))
	}
	if len(h.responder.cleared) != 1 || h.responder.cleared[0] != 1 {
		t.Fatalf("close must clear responder history, got %v", h.responder.cleared)
	}

	// closing twice is rejected
	if _, err := h.controller.Close(context.Background(), 1, nil); err == nil {
		t.Fatal("double close must fail")
	}
}

func TestUnknownConversationIsNotFound(t *testing.T) {
	h := newHarness(escalation.Policy{})

	if _, err := h.controller.AcceptMessage(context.Background(), 99, domain.CustomerSender(10), "hi"); err == nil {
		t.Fatal("unknown conversation must be rejected")
	}
	if _, err := h.controller.Assign(context.Background(), 99, 5); err == nil {
		t.Fatal("unknown conversation must be rejected")
	}
	if _, err := h.controller.Close(context.Background(), 99, nil); err == nil {
		t.Fatal("unknown conversation must be rejected")
	}
}
