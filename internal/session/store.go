package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	apperrors "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/pkg/util/errorutil"
)

// Durable is the collaborator that keeps sessions across restarts.
// Find returns (nil, nil) when the token is unknown.
type Durable interface {
	Save(ctx context.Context, session *domain.Session) error
	Find(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// Store tracks authenticated agent sessions. Validation hits an in-process
// cache first and falls back to the durable tier on miss. A durable-tier
// failure during fallback is treated as an invalid session: auth fails
// closed.
type Store struct {
	durable Durable
	agents  repository.AgentRepository
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]domain.Session

	// one writer per token; concurrent validations of the same token must
	// not fill the cache with diverging expiries
	tokenLocks sync.Map
}

// NewStore builds a session store.
func NewStore(durable Durable, agents repository.AgentRepository, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		durable: durable,
		agents:  agents,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		cache:   make(map[string]domain.Session),
	}
}

// Create issues a fresh session for the agent and persists it in both tiers.
func (s *Store) Create(ctx context.Context, agentID int64, metadata map[string]string) (*domain.Session, error) {
	session := &domain.Session{
		Token:     uuid.NewString(),
		AgentID:   agentID,
		ExpiresAt: s.now().Add(s.ttl),
		Metadata:  metadata,
		CreatedAt: s.now(),
	}

	if err := s.durable.Save(ctx, session); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[session.Token] = *session
	s.mu.Unlock()

	return session, nil
}

// Validate resolves a token to its agent, evicting invalid sessions from
// both tiers as it finds them.
func (s *Store) Validate(ctx context.Context, token string) (*domain.Agent, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorized("missing session token")
	}

	lock := s.lockFor(token)
	lock.Lock()
	defer lock.Unlock()

	session, ok := s.cached(token)
	if !ok {
		found, err := s.durable.Find(ctx, token)
		if err != nil {
			s.logger.Warn("session durable lookup failed", zap.Error(err))
			s.tokenLocks.Delete(token)
			return nil, apperrors.NewUnauthorized("invalid session")
		}
		if found == nil {
			// the lock entry must not outlive the lookup, or probing
			// unknown tokens grows the map without bound
			s.tokenLocks.Delete(token)
			return nil, apperrors.NewUnauthorized("invalid session")
		}
		session = *found

		s.mu.Lock()
		s.cache[token] = session
		s.mu.Unlock()
	}

	if session.Expired(s.now()) {
		s.evict(ctx, token)
		return nil, apperrors.NewUnauthorized("session expired")
	}

	agent, err := s.agents.GetByID(ctx, session.AgentID)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid session")
	}
	if !agent.Active {
		s.evict(ctx, token)
		return nil, apperrors.NewUnauthorized("agent deactivated")
	}
	return agent, nil
}

// Invalidate removes a session from both tiers. Unknown tokens are a no-op.
func (s *Store) Invalidate(ctx context.Context, token string) error {
	lock := s.lockFor(token)
	lock.Lock()
	defer lock.Unlock()

	s.evict(ctx, token)
	return nil
}

// Sweep drops expired sessions from the cache. The durable tier expires its
// own records via TTL.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.cache {
		if session.Expired(now) {
			delete(s.cache, token)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given cadence until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept expired sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) cached(token string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.cache[token]
	return session, ok
}

func (s *Store) evict(ctx context.Context, token string) {
	s.mu.Lock()
	delete(s.cache, token)
	s.mu.Unlock()

	if err := s.durable.Delete(ctx, token); err != nil {
		s.logger.Warn("session durable delete failed", zap.Error(err))
	}
	s.tokenLocks.Delete(token)
}

func (s *Store) lockFor(token string) *sync.Mutex {
	actual, _ := s.tokenLocks.LoadOrStore(token, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
