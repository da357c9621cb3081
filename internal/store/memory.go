package store

import (
	"context"
	"sync"

	"github.com/fixiedash/backend/internal/domain"
)

// MemoryStore implements Store with plain in-process maps. Each surface has
// its own RWMutex; cross-surface atomicity is not provided and not needed.
type MemoryStore struct {
	usersMu sync.RWMutex
	users   map[string]domain.User

	sessionsMu sync.RWMutex
	sessions   map[string]domain.GameSession

	resultsMu sync.RWMutex
	results   map[string]domain.GameResult
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.GameSession),
		results:  make(map[string]domain.GameResult),
	}
}

func (m *MemoryStore) PutUser(ctx context.Context, user domain.User) error {
	m.usersMu.Lock()
	defer m.usersMu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *MemoryStore) PutSession(ctx context.Context, session domain.GameSession) error {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (domain.GameSession, bool, error) {
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok, nil
}

// UpdateSession mutates the stored session in place while holding the write
// lock, so concurrent updates on the same id cannot interleave.
func (m *MemoryStore) UpdateSession(ctx context.Context, id string, fn func(*domain.GameSession)) error {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	fn(&session)
	m.sessions[id] = session
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]domain.GameSession, error) {
	m.sessionsMu.RLock()
	defer m.sessionsMu.RUnlock()
	sessions := make([]domain.GameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (m *MemoryStore) PutResult(ctx context.Context, result domain.GameResult) error {
	m.resultsMu.Lock()
	defer m.resultsMu.Unlock()
	m.results[result.SessionID] = result
	return nil
}

func (m *MemoryStore) GetResult(ctx context.Context, sessionID string) (domain.GameResult, bool, error) {
	m.resultsMu.RLock()
	defer m.resultsMu.RUnlock()
	result, ok := m.results[sessionID]
	return result, ok, nil
}

func (m *MemoryStore) ListResults(ctx context.Context) ([]domain.GameResult, error) {
	m.resultsMu.RLock()
	defer m.resultsMu.RUnlock()
	results := make([]domain.GameResult, 0, len(m.results))
	for _, r := range m.results {
		results = append(results, r)
	}
	return results, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
