package domain

import "time"

// User represents a registered rider
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// UserStats aggregates a user's recorded rides
type UserStats struct {
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	TotalRides    int       `json:"totalRides"`
	BestDistance  float64   `json:"bestDistance"`
	BestTime      float64   `json:"bestTime,omitempty"`
	TotalDistance float64   `json:"totalDistance"`
	LastRideAt    time.Time `json:"lastRideAt,omitempty"`
}

// RegisterUserRequest is the payload for user registration
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
