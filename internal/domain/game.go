package domain

import "time"

// GameSession represents a single timed ride, open while active and closed
// with final metrics when the ride ends.
type GameSession struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime,omitempty"`
	MaxSpeed      float64   `json:"maxSpeed"`
	TotalDistance float64   `json:"totalDistance"`
	IsActive      bool      `json:"isActive"`
}

// GameResult is the immutable record of a closed session's outcome. Username
// is a snapshot of the owning user at close time and is not kept in sync with
// later profile changes.
type GameResult struct {
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	MaxSpeed       float64   `json:"maxSpeed"`
	TotalDistance  float64   `json:"totalDistance"`
	CompletionTime float64   `json:"completionTime"`
	Timestamp      time.Time `json:"timestamp"`
}

// StartSessionRequest is the payload for starting a ride.
// The original client sends the user id as playerId.
type StartSessionRequest struct {
	PlayerID string `json:"playerId"`
}

// EndSessionRequest is the payload for ending a ride and submitting its score
type EndSessionRequest struct {
	SessionID      string  `json:"sessionId"`
	MaxSpeed       float64 `json:"maxSpeed"`
	TotalDistance  float64 `json:"totalDistance"`
	CompletionTime float64 `json:"completionTime"`
}
