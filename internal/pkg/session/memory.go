package session

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
)

// Config holds session store settings
type Config struct {
	TTL         time.Duration // idle time before a session is evicted, default 30m
	LockTimeout time.Duration // how long a turn waits for the user's lock, default 5s
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = 5 * time.Second
	}
	return c
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryStore keeps sessions in process. Turns of one user are queued on a
// per-user semaphore; different users never block each other.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]conversation.Session
	locks    map[string]*lockEntry
	config   Config
	now      func() time.Time
}

func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]conversation.Session),
		locks:    make(map[string]*lockEntry),
		config:   cfg.withDefaults(),
		now:      time.Now,
	}
}

func (m *MemoryStore) acquireEntry(userID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.locks[userID]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		m.locks[userID] = e
	}
	e.refs++
	return e
}

func (m *MemoryStore) releaseEntry(userID string, e *lockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.locks, userID)
	}
}

// Lock implements conversation.SessionStore.
func (m *MemoryStore) Lock(ctx context.Context, userID string) (func(), error) {
	e := m.acquireEntry(userID)

	timer := time.NewTimer(m.config.LockTimeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.releaseEntry(userID, e)
		return nil, conversation.ErrSessionBusy
	case <-timer.C:
		m.releaseEntry(userID, e)
		return nil, conversation.ErrSessionBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.releaseEntry(userID, e)
		})
	}, nil
}

// Get implements conversation.SessionStore. Expired sessions are removed on
// the way out.
func (m *MemoryStore) Get(_ context.Context, userID string) (conversation.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return conversation.Session{}, false, nil
	}
	if s.Expired(m.now(), m.config.TTL) {
		delete(m.sessions, userID)
		return conversation.Session{}, false, nil
	}
	return s.Clone(), true, nil
}

// Save implements conversation.SessionStore.
func (m *MemoryStore) Save(_ context.Context, s conversation.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s.Clone()
	return nil
}

// Delete implements conversation.SessionStore.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Sweep implements conversation.SessionStore.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	evicted := 0
	for id, s := range m.sessions {
		if s.Expired(now, m.config.TTL) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted, nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
