package store

import (
	"context"

	"github.com/fixiedash/backend/internal/domain"
)

// Store exposes three independent key-value surfaces: users, game sessions and
// completed results. Fetches report absence with a bool rather than an error;
// the error return is reserved for backend I/O failures. There are no
// transactional guarantees across the three surfaces, and enumeration order is
// unspecified.
//
// All implementations must be safe for concurrent use. UpdateSession runs its
// mutation as a single critical section relative to other operations on the
// sessions surface, so concurrent read-modify-write updates on the same id
// cannot lose writes.
type Store interface {
	PutUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, id string) (domain.User, bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	PutSession(ctx context.Context, session domain.GameSession) error
	GetSession(ctx context.Context, id string) (domain.GameSession, bool, error)
	// UpdateSession applies fn to the stored session under the store's lock.
	// Returns domain.ErrSessionNotFound if the id is absent.
	UpdateSession(ctx context.Context, id string, fn func(*domain.GameSession)) error
	ListSessions(ctx context.Context) ([]domain.GameSession, error)

	PutResult(ctx context.Context, result domain.GameResult) error
	GetResult(ctx context.Context, sessionID string) (domain.GameResult, bool, error)
	ListResults(ctx context.Context) ([]domain.GameResult, error)

	Ping(ctx context.Context) error
	Close() error
}
