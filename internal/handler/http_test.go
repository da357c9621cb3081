package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixiedash/backend/internal/config"
	"github.com/fixiedash/backend/internal/service"
	"github.com/fixiedash/backend/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewMemoryStore()
	cfg := &config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewGameService(st, cfg, logger, nil)
	return NewHandler(svc, nil, nil, logger).Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func registerUser(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	rec, envelope := doJSON(t, router, http.MethodPost, "/api/users/register", map[string]string{"username": username})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope["user"], &user))
	require.NotEmpty(t, user.ID)
	return user.ID
}

func startSession(t *testing.T, router http.Handler, userID string) string {
	t.Helper()
	rec, envelope := doJSON(t, router, http.MethodPost, "/api/game/start", map[string]string{"playerId": userID})
	require.Equal(t, http.StatusOK, rec.Code)

	var sessionID string
	require.NoError(t, json.Unmarshal(envelope["sessionId"], &sessionID))
	require.NotEmpty(t, sessionID)
	return sessionID
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "true", string(envelope["success"]))
	require.Contains(t, envelope, "status")
	require.Contains(t, envelope, "timestamp")
	require.Contains(t, envelope, "version")
}

func TestRegisterUser_MissingUsername(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/users/register", map[string]string{"email": "x@y.z"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, "false", string(envelope["success"]))
	require.Contains(t, envelope, "error")
}

func TestRegisterAndFetchUser(t *testing.T) {
	router := newTestRouter(t)
	userID := registerUser(t, router, "handler_rider")

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(envelope["user"], &user))
	require.Equal(t, "handler_rider", user.Username)
}

func TestFetchUser_Unknown(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/users/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, "false", string(envelope["success"]))
}

func TestStartSession_MissingPlayerID(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/game/start", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndSession_UnknownSession(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/game/end", map[string]any{
		"sessionId":      "no-such-session",
		"maxSpeed":       30.0,
		"totalDistance":  1000.0,
		"completionTime": 60.0,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndSession_NegativeMetrics(t *testing.T) {
	router := newTestRouter(t)
	userID := registerUser(t, router, "neg_rider")
	sessionID := startSession(t, router, userID)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/game/end", map[string]any{
		"sessionId":     sessionID,
		"totalDistance": -1.0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndSession_UnregisteredUser(t *testing.T) {
	router := newTestRouter(t)
	sessionID := startSession(t, router, "ghost")

	rec, _ := doJSON(t, router, http.MethodPost, "/api/game/end", map[string]any{
		"sessionId":      sessionID,
		"maxSpeed":       30.0,
		"totalDistance":  1000.0,
		"completionTime": 60.0,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFullGameFlowAndLeaderboard(t *testing.T) {
	router := newTestRouter(t)

	rides := []struct {
		username       string
		distance, time float64
	}{
		{"r1", 1000, 50},
		{"r2", 1500, 80},
		{"r3", 1500, 60},
	}
	for _, ride := range rides {
		userID := registerUser(t, router, ride.username)
		sessionID := startSession(t, router, userID)

		rec, envelope := doJSON(t, router, http.MethodPost, "/api/game/end", map[string]any{
			"sessionId":      sessionID,
			"maxSpeed":       35.0,
			"totalDistance":  ride.distance,
			"completionTime": ride.time,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, envelope, "result")
	}

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/leaderboard/top/10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var board []struct {
		Rank     int    `json:"rank"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(envelope["leaderboard"], &board))
	require.Len(t, board, 3)
	require.Equal(t, "r3", board[0].Username)
	require.Equal(t, "r2", board[1].Username)
	require.Equal(t, "r1", board[2].Username)

	t.Run("limit truncates after sort", func(t *testing.T) {
		rec, envelope := doJSON(t, router, http.MethodGet, "/api/leaderboard/top/2", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var board []struct {
			Username string `json:"username"`
		}
		require.NoError(t, json.Unmarshal(envelope["leaderboard"], &board))
		require.Len(t, board, 2)
		require.Equal(t, "r3", board[0].Username)
	})

	t.Run("zero limit returns empty board", func(t *testing.T) {
		rec, envelope := doJSON(t, router, http.MethodGet, "/api/leaderboard/top/0", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var board []any
		require.NoError(t, json.Unmarshal(envelope["leaderboard"], &board))
		require.Empty(t, board)
	})

	t.Run("missing limit uses default", func(t *testing.T) {
		rec, envelope := doJSON(t, router, http.MethodGet, "/api/leaderboard/top", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var board []any
		require.NoError(t, json.Unmarshal(envelope["leaderboard"], &board))
		require.Len(t, board, 3)
	})

	t.Run("user stats aggregate rides", func(t *testing.T) {
		userID := registerUser(t, router, "stats_rider")
		sessionID := startSession(t, router, userID)
		rec, _ := doJSON(t, router, http.MethodPost, "/api/game/end", map[string]any{
			"sessionId":      sessionID,
			"maxSpeed":       40.0,
			"totalDistance":  2000.0,
			"completionTime": 75.0,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, envelope := doJSON(t, router, http.MethodGet, "/api/users/"+userID+"/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats struct {
			TotalRides   int     `json:"totalRides"`
			BestDistance float64 `json:"bestDistance"`
		}
		require.NoError(t, json.Unmarshal(envelope["stats"], &stats))
		require.Equal(t, 1, stats.TotalRides)
		require.Equal(t, 2000.0, stats.BestDistance)
	})
}

func TestIdempotentResubmissionOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	userID := registerUser(t, router, "twice_rider")
	sessionID := startSession(t, router, userID)

	for _, distance := range []float64{800, 950} {
		rec, _ := doJSON(t, router, http.MethodPost, "/api/game/end", map[string]any{
			"sessionId":      sessionID,
			"maxSpeed":       30.0,
			"totalDistance":  distance,
			"completionTime": 100.0,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, envelope := doJSON(t, router, http.MethodGet, "/api/leaderboard/top/10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var board []struct {
		TotalDistance float64 `json:"totalDistance"`
	}
	require.NoError(t, json.Unmarshal(envelope["leaderboard"], &board))
	require.Len(t, board, 1)
	require.Equal(t, 950.0, board[0].TotalDistance)
}
