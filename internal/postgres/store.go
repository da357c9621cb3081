package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixiedash/backend/internal/config"
	"github.com/fixiedash/backend/internal/domain"
)

// Store is a PostgreSQL-backed implementation of store.Store
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a connection pool and returns a Store
func NewStore(cfg *config.PostgresConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Store{
		pool:   pool,
		logger: logger,
	}, nil
}

// RunMigrations executes database migrations
func (s *Store) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			max_speed DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS game_results (
			session_id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			username VARCHAR(255) NOT NULL,
			max_speed DOUBLE PRECISION NOT NULL,
			total_distance DOUBLE PRECISION NOT NULL,
			completion_time DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_user ON game_results(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_distance ON game_results(total_distance DESC, completion_time ASC)`,
	}

	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	s.logger.Info("database migrations completed")
	return nil
}

func (s *Store) PutUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (id, username, email, created_at, last_seen)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			last_seen = EXCLUDED.last_seen
	`
	_, err := s.pool.Exec(ctx, query, user.ID, user.Username, user.Email, user.CreatedAt, user.LastSeen)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	query := `SELECT id, username, COALESCE(email, ''), created_at, last_seen FROM users WHERE id = $1`
	var user domain.User
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("fetching user: %w", err)
	}
	return user, true, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, username, COALESCE(email, ''), created_at, last_seen FROM users`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) PutSession(ctx context.Context, session domain.GameSession) error {
	query := `
		INSERT INTO game_sessions (id, user_id, start_time, end_time, max_speed, total_distance, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			max_speed = EXCLUDED.max_speed,
			total_distance = EXCLUDED.total_distance,
			is_active = EXCLUDED.is_active
	`
	_, err := s.pool.Exec(ctx, query,
		session.ID, session.UserID, session.StartTime, nullableTime(session.EndTime),
		session.MaxSpeed, session.TotalDistance, session.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.GameSession, bool, error) {
	query := `SELECT id, user_id, start_time, end_time, max_speed, total_distance, is_active FROM game_sessions WHERE id = $1`
	session, err := scanSession(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameSession{}, false, nil
	}
	if err != nil {
		return domain.GameSession{}, false, fmt.Errorf("fetching session: %w", err)
	}
	return session, true, nil
}

// UpdateSession runs the read-modify-write inside a transaction with a row
// lock, so concurrent updates on the same session serialize in the database.
func (s *Store) UpdateSession(ctx context.Context, id string, fn func(*domain.GameSession)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT id, user_id, start_time, end_time, max_speed, total_distance, is_active FROM game_sessions WHERE id = $1 FOR UPDATE`
	session, err := scanSession(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("fetching session for update: %w", err)
	}

	fn(&session)

	update := `
		UPDATE game_sessions
		SET end_time = $2, max_speed = $3, total_distance = $4, is_active = $5
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update,
		session.ID, nullableTime(session.EndTime), session.MaxSpeed, session.TotalDistance, session.IsActive,
	); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) ListSessions(ctx context.Context) ([]domain.GameSession, error) {
	query := `SELECT id, user_id, start_time, end_time, max_speed, total_distance, is_active FROM game_sessions`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.GameSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) PutResult(ctx context.Context, result domain.GameResult) error {
	query := `
		INSERT INTO game_results (session_id, user_id, username, max_speed, total_distance, completion_time, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			username = EXCLUDED.username,
			max_speed = EXCLUDED.max_speed,
			total_distance = EXCLUDED.total_distance,
			completion_time = EXCLUDED.completion_time,
			recorded_at = EXCLUDED.recorded_at
	`
	_, err := s.pool.Exec(ctx, query,
		result.SessionID, result.UserID, result.Username,
		result.MaxSpeed, result.TotalDistance, result.CompletionTime, result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upserting result: %w", err)
	}
	return nil
}

func (s *Store) GetResult(ctx context.Context, sessionID string) (domain.GameResult, bool, error) {
	query := `SELECT session_id, user_id, username, max_speed, total_distance, completion_time, recorded_at FROM game_results WHERE session_id = $1`
	var result domain.GameResult
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&result.SessionID, &result.UserID, &result.Username,
		&result.MaxSpeed, &result.TotalDistance, &result.CompletionTime, &result.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameResult{}, false, nil
	}
	if err != nil {
		return domain.GameResult{}, false, fmt.Errorf("fetching result: %w", err)
	}
	return result, true, nil
}

func (s *Store) ListResults(ctx context.Context) ([]domain.GameResult, error) {
	query := `SELECT session_id, user_id, username, max_speed, total_distance, completion_time, recorded_at FROM game_results`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var results []domain.GameResult
	for rows.Next() {
		var result domain.GameResult
		if err := rows.Scan(
			&result.SessionID, &result.UserID, &result.Username,
			&result.MaxSpeed, &result.TotalDistance, &result.CompletionTime, &result.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanSession(row pgx.Row) (domain.GameSession, error) {
	var session domain.GameSession
	var endTime sql.NullTime
	err := row.Scan(
		&session.ID, &session.UserID, &session.StartTime, &endTime,
		&session.MaxSpeed, &session.TotalDistance, &session.IsActive,
	)
	if err != nil {
		return domain.GameSession{}, err
	}
	if endTime.Valid {
		session.EndTime = endTime.Time
	}
	return session, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
