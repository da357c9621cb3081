package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fixiedash/backend/internal/domain"
	"github.com/fixiedash/backend/internal/metrics"
	"github.com/fixiedash/backend/internal/service"
	"github.com/fixiedash/backend/internal/websocket"
)

// Version reported by the health endpoint
const Version = "1.0.0"

// Handler provides the HTTP handlers wrapping the game service
type Handler struct {
	service   *service.GameService
	hub       *websocket.Hub
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc *service.GameService, hub *websocket.Hub, collector *metrics.Collector, logger *slog.Logger) *Handler {
	return &Handler{
		service:   svc,
		hub:       hub,
		collector: collector,
		logger:    logger,
	}
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Get("/ws", h.HandleWebSocket)
	if h.collector != nil {
		r.Method(http.MethodGet, "/metrics", h.collector.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.RegisterUser)
			r.Get("/{userID}", h.GetUser)
			r.Get("/{userID}/stats", h.GetUserStats)
		})

		r.Route("/game", func(r chi.Router) {
			r.Post("/start", h.StartSession)
			r.Post("/end", h.EndSession)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/top", h.TopScores)
			r.Get("/top/{limit}", h.TopScores)
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes the success envelope with the payload under key
func (h *Handler) writeSuccess(w http.ResponseWriter, status int, key string, payload interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": true,
		key:       payload,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// writeServiceError maps domain error kinds to HTTP statuses
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	default:
		h.logger.Error("unexpected service error", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadyCheck reports whether the storage backend is reachable
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("store not reachable", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrInternalError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "ready",
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// RegisterUser handles user registration
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Username, req.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "user", user)
}

// GetUser returns a user's profile
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, found, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, domain.ErrUserNotFound)
		return
	}

	h.writeSuccess(w, http.StatusOK, "user", user)
}

// GetUserStats returns a user's aggregated ride statistics
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := h.service.UserStats(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "stats", stats)
}

// StartSession starts a new game session
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req domain.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.NewValidationError("playerId", "is required"))
		return
	}

	sessionID, err := h.service.StartSession(r.Context(), req.PlayerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "sessionId", sessionID)
}

// EndSession ends a session and records its result
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	var req domain.EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, domain.NewValidationError("sessionId", "is required"))
		return
	}
	if req.MaxSpeed < 0 || req.TotalDistance < 0 || req.CompletionTime < 0 {
		h.writeError(w, http.StatusBadRequest, domain.NewValidationError("metrics", "must not be negative"))
		return
	}

	result, err := h.service.RecordResult(r.Context(), req.SessionID, req.MaxSpeed, req.TotalDistance, req.CompletionTime)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "result", result)
}

// TopScores returns the ranked leaderboard. The limit may come from the path;
// a missing or unparseable value falls back to the configured default.
func (h *Handler) TopScores(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if limitStr := chi.URLParam(r, "limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l >= 0 {
			limit = l
		}
	}

	entries, err := h.service.TopScores(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "leaderboard", entries)
}
