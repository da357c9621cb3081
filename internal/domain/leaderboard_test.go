package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixtureResults() []GameResult {
	return []GameResult{
		{SessionID: "r1", Username: "alice", TotalDistance: 1000, CompletionTime: 50},
		{SessionID: "r2", Username: "bob", TotalDistance: 1500, CompletionTime: 80},
		{SessionID: "r3", Username: "carol", TotalDistance: 1500, CompletionTime: 60},
	}
}

func TestRankResults_Ordering(t *testing.T) {
	entries := RankResults(fixtureResults(), 10)

	require.Len(t, entries, 3)
	// Greater distance wins; on equal distance the lower completion time wins.
	require.Equal(t, "r3", entries[0].ID)
	require.Equal(t, "r2", entries[1].ID)
	require.Equal(t, "r1", entries[2].ID)

	for i, e := range entries {
		require.Equal(t, i+1, e.Rank)
	}
}

func TestRankResults_SortThenTruncate(t *testing.T) {
	entries := RankResults(fixtureResults(), 2)

	require.Len(t, entries, 2)
	require.Equal(t, "r3", entries[0].ID)
	require.Equal(t, "r2", entries[1].ID)
}

func TestRankResults_ZeroLimit(t *testing.T) {
	require.Empty(t, RankResults(fixtureResults(), 0))
}

func TestRankResults_NegativeLimitClampedToZero(t *testing.T) {
	require.Empty(t, RankResults(fixtureResults(), -5))
}

func TestRankResults_EmptyInput(t *testing.T) {
	require.Empty(t, RankResults(nil, 10))
}

func TestRankResults_StableForExactTies(t *testing.T) {
	results := []GameResult{
		{SessionID: "a", TotalDistance: 500, CompletionTime: 42},
		{SessionID: "b", TotalDistance: 500, CompletionTime: 42},
		{SessionID: "c", TotalDistance: 500, CompletionTime: 42},
	}

	first := RankResults(results, 10)
	second := RankResults(results, 10)

	require.Equal(t, first, second)
	require.Equal(t, "a", first[0].ID)
	require.Equal(t, "b", first[1].ID)
	require.Equal(t, "c", first[2].ID)
}

func TestEntryFromResult_CarriesFields(t *testing.T) {
	r := fixtureResults()[0]
	e := EntryFromResult(r)

	require.Equal(t, r.SessionID, e.ID)
	require.Equal(t, r.Username, e.Username)
	require.Equal(t, r.TotalDistance, e.TotalDistance)
	require.Equal(t, r.CompletionTime, e.CompletionTime)
	require.Zero(t, e.Rank)
}
