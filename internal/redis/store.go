package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fixiedash/backend/internal/config"
	"github.com/fixiedash/backend/internal/domain"
)

// Store is a Redis-backed implementation of store.Store. Each surface lives in
// one hash keyed by entity id with JSON-encoded values, so enumeration is a
// single HGETALL and the ranking logic stays in the service layer.
type Store struct {
	client *redis.Client
	logger *slog.Logger

	// Serializes session read-modify-write updates. The deployment model is a
	// single process, so a process-local lock is enough to keep UpdateSession
	// a critical section.
	sessionMu sync.Mutex
}

// NewStore connects to Redis and returns a Store
func NewStore(cfg *config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger,
	}, nil
}

const (
	usersKey    = "fixiedash:users"
	sessionsKey = "fixiedash:sessions"
	resultsKey  = "fixiedash:results"
)

func (s *Store) put(ctx context.Context, key, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s entry: %w", key, err)
	}
	if err := s.client.HSet(ctx, key, id, data).Err(); err != nil {
		return fmt.Errorf("writing %s entry: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key, id string, v any) (bool, error) {
	data, err := s.client.HGet(ctx, key, id).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s entry: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s entry: %w", key, err)
	}
	return true, nil
}

func (s *Store) PutUser(ctx context.Context, user domain.User) error {
	return s.put(ctx, usersKey, user.ID, user)
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	var user domain.User
	found, err := s.get(ctx, usersKey, id, &user)
	return user, found, err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	raw, err := s.client.HGetAll(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]domain.User, 0, len(raw))
	for id, data := range raw {
		var user domain.User
		if err := json.Unmarshal([]byte(data), &user); err != nil {
			s.logger.Warn("skipping undecodable user entry", "id", id, "error", err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) PutSession(ctx context.Context, session domain.GameSession) error {
	return s.put(ctx, sessionsKey, session.ID, session)
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.GameSession, bool, error) {
	var session domain.GameSession
	found, err := s.get(ctx, sessionsKey, id, &session)
	return session, found, err
}

func (s *Store) UpdateSession(ctx context.Context, id string, fn func(*domain.GameSession)) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	session, found, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrSessionNotFound
	}
	fn(&session)
	return s.PutSession(ctx, session)
}

func (s *Store) ListSessions(ctx context.Context) ([]domain.GameSession, error) {
	raw, err := s.client.HGetAll(ctx, sessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sessions := make([]domain.GameSession, 0, len(raw))
	for id, data := range raw {
		var session domain.GameSession
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			s.logger.Warn("skipping undecodable session entry", "id", id, "error", err)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *Store) PutResult(ctx context.Context, result domain.GameResult) error {
	return s.put(ctx, resultsKey, result.SessionID, result)
}

func (s *Store) GetResult(ctx context.Context, sessionID string) (domain.GameResult, bool, error) {
	var result domain.GameResult
	found, err := s.get(ctx, resultsKey, sessionID, &result)
	return result, found, err
}

func (s *Store) ListResults(ctx context.Context) ([]domain.GameResult, error) {
	raw, err := s.client.HGetAll(ctx, resultsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	results := make([]domain.GameResult, 0, len(raw))
	for id, data := range raw {
		var result domain.GameResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			s.logger.Warn("skipping undecodable result entry", "id", id, "error", err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
