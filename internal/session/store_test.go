package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

type memDurable struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	failing  bool
	finds    int
}

func newMemDurable() *memDurable {
	return &memDurable{sessions: make(map[string]domain.Session)}
}

func (m *memDurable) Save(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("durable tier down")
	}
	m.sessions[session.Token] = *session
	return nil
}

func (m *memDurable) Find(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.failing {
		return nil, errors.New("durable tier down")
	}
	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	copied := session
	return &copied, nil
}

func (m *memDurable) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memDurable) setFailing(failing bool) {
	m.mu.Lock()
	m.failing = failing
	m.mu.Unlock()
}

type stubAgentRepo struct {
	agents map[int64]domain.Agent
}

func (s *stubAgentRepo) Create(_ context.Context, _ *domain.Agent) error { return nil }
func (s *stubAgentRepo) Update(_ context.Context, _ *domain.Agent) error { return nil }
func (s *stubAgentRepo) GetByID(_ context.Context, id int64) (*domain.Agent, error) {
	agent, ok := s.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &agent, nil
}
func (s *stubAgentRepo) GetByEmail(_ context.Context, _ string) (*domain.Agent, error) {
	return nil, pgx.ErrNoRows
}
func (s *stubAgentRepo) List(_ context.Context) ([]domain.Agent, error) { return nil, nil }
func (s *stubAgentRepo) Count(_ context.Context) (int64, error)         { return 0, nil }

func newTestStore(durable Durable, ttl time.Duration) *Store {
	agents := &stubAgentRepo{agents: map[int64]domain.Agent{
		1: {ID: 1, Name: "Sam", Active: true},
		2: {ID: 2, Name: "Gone", Active: false},
	}}
	return NewStore(durable, agents, ttl, zap.NewNop())
}

func TestCreateAndValidate(t *testing.T) {
	store := newTestStore(newMemDurable(), time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, map[string]string{"via": "test"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected opaque token")
	}

	agent, err := store.Validate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if agent.ID != 1 {
		t.Fatalf("expected agent 1, got %d", agent.ID)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	store := newTestStore(newMemDurable(), time.Hour)

	if _, err := store.Validate(context.Background(), "nope"); err == nil {
		t.Fatal("unknown token must fail validation")
	}
	if _, err := store.Validate(context.Background(), ""); err == nil {
		t.Fatal("empty token must fail validation")
	}
}

func TestUnknownTokenLockNotRetained(t *testing.T) {
	durable := newMemDurable()
	store := newTestStore(durable, time.Hour)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if _, err := store.Validate(ctx, fmt.Sprintf("guess-%d", i)); err == nil {
			t.Fatal("unknown token must fail validation")
		}
	}
	durable.setFailing(true)
	if _, err := store.Validate(ctx, "guess-down"); err == nil {
		t.Fatal("durable failure must fail validation")
	}

	locks := 0
	store.tokenLocks.Range(func(_, _ any) bool {
		locks++
		return true
	})
	if locks != 0 {
		t.Fatalf("failed validations must not retain token locks, got %d", locks)
	}
}

func TestValidateFallsBackToDurable(t *testing.T) {
	durable := newMemDurable()
	store := newTestStore(durable, time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// simulate a restart: fresh store, same durable tier
	restarted := newTestStore(durable, time.Hour)
	agent, err := restarted.Validate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Validate after restart failed: %v", err)
	}
	if agent.ID != 1 {
		t.Fatalf("expected agent 1, got %d", agent.ID)
	}

	// second validation must hit the refilled cache, not the durable tier
	before := durable.finds
	if _, err := restarted.Validate(ctx, session.Token); err != nil {
		t.Fatalf("cached Validate failed: %v", err)
	}
	if durable.finds != before {
		t.Fatal("cached session must not consult the durable tier")
	}
}

func TestValidateFailsClosedOnDurableError(t *testing.T) {
	durable := newMemDurable()
	store := newTestStore(durable, time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	restarted := newTestStore(durable, time.Hour)
	durable.setFailing(true)
	if _, err := restarted.Validate(ctx, session.Token); err == nil {
		t.Fatal("durable failure on cache miss must fail closed")
	}
}

func TestValidateExpiredSessionEvicted(t *testing.T) {
	durable := newMemDurable()
	store := newTestStore(durable, time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := store.Validate(ctx, session.Token); err == nil {
		t.Fatal("expired session must fail validation")
	}
	if _, ok := durable.sessions[session.Token]; ok {
		t.Fatal("expired session must be evicted from the durable tier")
	}
}

func TestValidateDeactivatedAgent(t *testing.T) {
	store := newTestStore(newMemDurable(), time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, 2, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Validate(ctx, session.Token); err == nil {
		t.Fatal("deactivated agent must fail validation")
	}
}

func TestInvalidate(t *testing.T) {
	durable := newMemDurable()
	store := newTestStore(durable, time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Invalidate(ctx, session.Token); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, err := store.Validate(ctx, session.Token); err == nil {
		t.Fatal("invalidated token must fail validation")
	}
	// unknown token invalidation is a no-op
	if err := store.Invalidate(ctx, "nope"); err != nil {
		t.Fatalf("Invalidate of unknown token failed: %v", err)
	}
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	store := newTestStore(newMemDurable(), time.Hour)
	ctx := context.Background()

	fresh, err := store.Create(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	base := time.Now()
	store.now = func() time.Time { return base.Add(-2 * time.Hour) }
	stale, err := store.Create(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.now = time.Now

	if n := store.Sweep(); n != 1 {
		t.Fatalf("expected one swept session, got %d", n)
	}
	if _, ok := store.cached(stale.Token); ok {
		t.Fatal("stale session must be swept from the cache")
	}
	if _, ok := store.cached(fresh.Token); !ok {
		t.Fatal("fresh session must survive the sweep")
	}
}
