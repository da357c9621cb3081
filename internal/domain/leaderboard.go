package domain

import (
	"sort"
	"time"
)

// LeaderboardEntry is a read-time projection of a GameResult for ranked
// display. Entries are recomputed per query, never stored.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	MaxSpeed       float64   `json:"maxSpeed"`
	TotalDistance  float64   `json:"totalDistance"`
	CompletionTime float64   `json:"completionTime"`
	Timestamp      time.Time `json:"timestamp"`
}

// EntryFromResult projects a GameResult to a LeaderboardEntry. Rank is
// assigned by RankResults.
func EntryFromResult(r GameResult) LeaderboardEntry {
	return LeaderboardEntry{
		ID:             r.SessionID,
		UserID:         r.UserID,
		Username:       r.Username,
		MaxSpeed:       r.MaxSpeed,
		TotalDistance:  r.TotalDistance,
		CompletionTime: r.CompletionTime,
		Timestamp:      r.Timestamp,
	}
}

// RankResults orders results by total distance (descending), breaking ties by
// completion time (ascending, faster wins). The sort is stable, so exactly
// tied entries keep the enumeration order of the input. The full set is sorted
// before truncating to limit; a limit of 0 yields an empty board.
func RankResults(results []GameResult, limit int) []LeaderboardEntry {
	if limit < 0 {
		limit = 0
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, r := range results {
		entries[i] = EntryFromResult(r)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalDistance != entries[j].TotalDistance {
			return entries[i].TotalDistance > entries[j].TotalDistance
		}
		return entries[i].CompletionTime < entries[j].CompletionTime
	})

	if limit < len(entries) {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
