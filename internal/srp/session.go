package srp

import (
	"context"
	"math/big"
	"sync"
	"time"
)

const sessionTTL = 5 * time.Minute

// Session is the server-held state between Init and Verify. Everything
// needed to recompute B and the shared secret is retained so Verify never
// has to re-read the user's verifier from the database.
type Session struct {
	UserID        string
	Email         string
	Salt          string
	Verifier      *big.Int
	ServerPublic  *big.Int // B
	ServerPrivate *big.Int // b
	ClientPublic  *big.Int // A
	ExpiresAt     time.Time
}

// Store persists in-flight SRP sessions. The in-memory implementation is
// sufficient for a single gateway process; the Redis-backed one (§12.3 of
// the expanded spec) lets SRP logins survive a restart or be shared across
// gateway replicas.
type Store interface {
	Save(ctx context.Context, id string, s Session) error
	Load(ctx context.Context, id string) (*Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a mutex-protected map with lazy expiry, the same shape as
// the teacher's in-memory caches elsewhere in the pack.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Save(_ context.Context, id string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, false, nil
	}
	return &s, true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
