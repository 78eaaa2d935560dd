// Package session tracks per-conversation state: the fact register consumed
// by the audit gate and the prior-turn context used to resolve follow-up
// questions. Sessions are bounded by an LRU with a TTL.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/alertstack/triage-engine/internal/audit"
	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/models"
)

// Session is one conversation's state. The fact register is owned here and
// never shared between sessions.
type Session struct {
	ID        string
	Facts     *audit.FactRegister
	CreatedAt time.Time

	mu       sync.Mutex
	context  models.QueryContext
	lastUsed time.Time
	queries  int
}

// Context returns a copy of the prior-turn context.
func (s *Session) Context() models.QueryContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

// UpdateContext records the outcome of the latest turn for follow-up
// resolution.
func (s *Session) UpdateContext(target, cause string, findings []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target != "" {
		s.context.LastTarget = target
	}
	if cause != "" {
		s.context.LastCause = cause
	}
	if len(findings) > 0 {
		s.context.LastFindings = findings
	}
	s.queries++
	s.lastUsed = time.Now()
}

// Queries reports how many turns this session has served.
func (s *Session) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed) > ttl
}

// reset clears conversation state but keeps the session alive.
func (s *Session) reset() {
	s.Facts.Reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = models.QueryContext{}
}

// Store holds active sessions, evicting the least recently used when
// capacity is reached and lazily expiring idle ones.
type Store struct {
	mu          sync.Mutex
	cache       *lru.Cache[string, *Session]
	ttl         time.Duration
	newRegister func() *audit.FactRegister
	logger      *slog.Logger
}

// NewStore builds a session store. newRegister is called once per created
// session, typically audit.Engine.NewRegister.
func NewStore(cfg config.SessionConfig, newRegister func() *audit.FactRegister, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		ttl:         cfg.TTL,
		newRegister: newRegister,
		logger:      logger,
	}
	cache, err := lru.NewWithEvict[string, *Session](cfg.Capacity, func(id string, _ *Session) {
		logger.Debug("session evicted", "session_id", id)
	})
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Get returns an active session by id. Expired sessions are removed and
// reported as missing.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	now := time.Now()
	if sess.expired(now, s.ttl) {
		s.cache.Remove(id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// GetOrCreate returns the session for id, creating it if absent. An empty
// id allocates a fresh session with a generated id.
func (s *Store) GetOrCreate(id string) *Session {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess
		}
	} else {
		id = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache.Get(id); ok && !sess.expired(time.Now(), s.ttl) {
		return sess
	}
	now := time.Now()
	sess := &Session{
		ID:        id,
		Facts:     s.newRegister(),
		CreatedAt: now,
	}
	sess.lastUsed = now
	s.cache.Add(id, sess)
	s.logger.Debug("session created", "session_id", id)
	return sess
}

// Reset clears the conversation state of a session. It reports whether the
// session existed.
func (s *Store) Reset(id string) bool {
	sess, ok := s.Get(id)
	if !ok {
		return false
	}
	sess.reset()
	s.logger.Debug("session reset", "session_id", id)
	return true
}

// Remove drops a session entirely.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
}

// Len reports the number of cached sessions, including any not yet expired
// lazily.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
