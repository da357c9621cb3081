package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fixiedash/backend/internal/config"
	"github.com/fixiedash/backend/internal/domain"
	"github.com/fixiedash/backend/internal/metrics"
	"github.com/fixiedash/backend/internal/store"
	"github.com/fixiedash/backend/internal/websocket"
)

// GameService provides the business logic for riders, ride sessions, result
// recording and the leaderboard.
type GameService struct {
	store   store.Store
	config  *config.LeaderboardConfig
	logger  *slog.Logger
	metrics metrics.Recorder
	hub     *websocket.Hub
}

// NewGameService creates a new game service
func NewGameService(
	st store.Store,
	cfg *config.LeaderboardConfig,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *GameService {
	return &GameService{
		store:   st,
		config:  cfg,
		logger:  logger,
		metrics: recorder,
	}
}

// SetHub sets the WebSocket hub used to push leaderboard updates
func (s *GameService) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// Ping reports whether the storage backend is reachable
func (s *GameService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// RegisterUser creates a new rider. Username is required; email is optional.
func (s *GameService) RegisterUser(ctx context.Context, username, email string) (domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return domain.User{}, domain.NewValidationError("username", "is required")
	}

	now := time.Now()
	user := domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		CreatedAt: now,
		LastSeen:  now,
	}

	if err := s.store.PutUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("storing user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordUserRegistered()
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser fetches a rider by id. Absence is reported with the bool, not an
// error.
func (s *GameService) GetUser(ctx context.Context, id string) (domain.User, bool, error) {
	return s.store.GetUser(ctx, id)
}

// UserStats aggregates a rider's recorded results
func (s *GameService) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	user, found, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("fetching user: %w", err)
	}
	if !found {
		return domain.UserStats{}, domain.ErrUserNotFound
	}

	results, err := s.store.ListResults(ctx)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("listing results: %w", err)
	}

	stats := domain.UserStats{
		UserID:   user.ID,
		Username: user.Username,
	}
	for _, r := range results {
		if r.UserID != userID {
			continue
		}
		stats.TotalRides++
		stats.TotalDistance += r.TotalDistance
		if r.TotalDistance > stats.BestDistance {
			stats.BestDistance = r.TotalDistance
		}
		if stats.BestTime == 0 || r.CompletionTime < stats.BestTime {
			stats.BestTime = r.CompletionTime
		}
		if r.Timestamp.After(stats.LastRideAt) {
			stats.LastRideAt = r.Timestamp
		}
	}
	return stats, nil
}

// StartSession opens a new ride session for a user. The user id is not
// checked against the user map here; a dangling reference surfaces when the
// result is recorded.
func (s *GameService) StartSession(ctx context.Context, userID string) (string, error) {
	session := domain.GameSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		StartTime: time.Now(),
		IsActive:  true,
	}

	if err := s.store.PutSession(ctx, session); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionStarted()
	}
	s.logger.Info("session started", "session_id", session.ID, "user_id", userID)
	return session.ID, nil
}

// EndSession closes a session and stores its final metrics. Closing an
// already-closed session is allowed; the later call's metrics win, which is
// what makes result resubmission idempotent.
func (s *GameService) EndSession(ctx context.Context, sessionID string, maxSpeed, totalDistance float64) error {
	now := time.Now()
	err := s.store.UpdateSession(ctx, sessionID, func(session *domain.GameSession) {
		if !session.IsActive {
			s.logger.Debug("re-closing inactive session", "session_id", sessionID)
		}
		session.IsActive = false
		session.EndTime = now
		session.MaxSpeed = maxSpeed
		session.TotalDistance = totalDistance
	})
	if err != nil {
		return err
	}
	s.logger.Info("session ended", "session_id", sessionID)
	return nil
}

// RecordResult closes a session and records its result on the leaderboard.
// The session must exist and must reference a registered user; a failed
// lookup persists nothing. The result is keyed by session id, so resubmitting
// overwrites the earlier record.
func (s *GameService) RecordResult(ctx context.Context, sessionID string, maxSpeed, totalDistance, completionTime float64) (domain.GameResult, error) {
	session, found, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("fetching session: %w", err)
	}
	if !found {
		if s.metrics != nil {
			s.metrics.RecordResultRejected("session_not_found")
		}
		return domain.GameResult{}, domain.ErrSessionNotFound
	}

	user, found, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("fetching user: %w", err)
	}
	if !found {
		if s.metrics != nil {
			s.metrics.RecordResultRejected("user_not_found")
		}
		return domain.GameResult{}, domain.ErrUserNotFound
	}

	result := domain.GameResult{
		SessionID:      sessionID,
		UserID:         user.ID,
		Username:       user.Username,
		MaxSpeed:       maxSpeed,
		TotalDistance:  totalDistance,
		CompletionTime: completionTime,
		Timestamp:      time.Now(),
	}

	if err := s.EndSession(ctx, sessionID, maxSpeed, totalDistance); err != nil {
		return domain.GameResult{}, err
	}

	if err := s.store.PutResult(ctx, result); err != nil {
		return domain.GameResult{}, fmt.Errorf("storing result: %w", err)
	}

	// Refresh the user's last-seen stamp; not worth failing the request over.
	user.LastSeen = result.Timestamp
	if err := s.store.PutUser(ctx, user); err != nil {
		s.logger.Warn("failed to update last seen", "user_id", user.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordResultRecorded()
	}
	s.logger.Info("result recorded",
		"session_id", sessionID,
		"user_id", user.ID,
		"total_distance", totalDistance,
		"completion_time", completionTime,
	)

	s.broadcastLeaderboard(ctx, result)

	return result, nil
}

// TopScores returns the ranked top entries. A negative limit means
// "unspecified" and falls back to the configured default; limits above the
// configured maximum are clamped down. A limit of zero returns an empty
// board.
func (s *GameService) TopScores(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	start := time.Now()

	if limit < 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	results, err := s.store.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}

	entries := domain.RankResults(results, limit)

	if s.metrics != nil {
		s.metrics.RecordLeaderboardQuery(time.Since(start))
	}
	return entries, nil
}

// broadcastLeaderboard pushes the refreshed board to websocket clients.
// Failures here never fail the originating request.
func (s *GameService) broadcastLeaderboard(ctx context.Context, result domain.GameResult) {
	if s.hub == nil {
		return
	}

	results, err := s.store.ListResults(ctx)
	if err != nil {
		s.logger.Warn("failed to load results for broadcast", "error", err)
		return
	}

	entries := domain.RankResults(results, s.config.DefaultLimit)
	s.hub.BroadcastLeaderboardUpdate(entries, len(results))
	s.hub.BroadcastResultRecorded(result)
}
