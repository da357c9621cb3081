package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixiedash/backend/internal/domain"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("empty store", func(t *testing.T) {
		_, found, err := s.GetUser(ctx, "missing")
		require.NoError(t, err)
		require.False(t, found)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Empty(t, users)
	})

	t.Run("put and get", func(t *testing.T) {
		user := domain.User{ID: "u1", Username: "alice"}
		require.NoError(t, s.PutUser(ctx, user))

		got, found, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, user, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.PutUser(ctx, domain.User{ID: "u1", Username: "alice2"}))

		got, found, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "alice2", got.Username)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
	})
}

func TestMemoryStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	session := domain.GameSession{ID: "s1", UserID: "u1", IsActive: true}
	require.NoError(t, s.PutSession(ctx, session))

	got, found, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, session, got)

	t.Run("update missing session", func(t *testing.T) {
		err := s.UpdateSession(ctx, "nope", func(*domain.GameSession) {})
		require.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("update applies mutation", func(t *testing.T) {
		err := s.UpdateSession(ctx, "s1", func(gs *domain.GameSession) {
			gs.IsActive = false
			gs.TotalDistance = 1200
		})
		require.NoError(t, err)

		got, found, err := s.GetSession(ctx, "s1")
		require.NoError(t, err)
		require.True(t, found)
		require.False(t, got.IsActive)
		require.Equal(t, 1200.0, got.TotalDistance)
	})
}

// Concurrent read-modify-write updates on the same session must not lose
// writes.
func TestMemoryStore_UpdateSessionNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.PutSession(ctx, domain.GameSession{ID: "s1", IsActive: true}))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.UpdateSession(ctx, "s1", func(gs *domain.GameSession) {
				gs.TotalDistance++
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, float64(workers), got.TotalDistance)
}

func TestMemoryStore_Results(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.GetResult(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found)

	first := domain.GameResult{SessionID: "s1", Username: "alice", TotalDistance: 100}
	require.NoError(t, s.PutResult(ctx, first))

	// Last write wins for the same session id.
	second := domain.GameResult{SessionID: "s1", Username: "alice", TotalDistance: 900}
	require.NoError(t, s.PutResult(ctx, second))

	got, found, err := s.GetResult(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 900.0, got.TotalDistance)

	results, err := s.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestMemoryStore_SurfacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Same key on every surface; none may shadow another.
	require.NoError(t, s.PutUser(ctx, domain.User{ID: "x"}))
	require.NoError(t, s.PutSession(ctx, domain.GameSession{ID: "x"}))
	require.NoError(t, s.PutResult(ctx, domain.GameResult{SessionID: "x"}))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	results, err := s.ListResults(ctx)
	require.NoError(t, err)

	require.Len(t, users, 1)
	require.Len(t, sessions, 1)
	require.Len(t, results, 1)
}

func TestMemoryStore_ListSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.PutSession(ctx, domain.GameSession{ID: fmt.Sprintf("s%d", i)}))
	}

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 5)
}
