package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixiedash/backend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	require.Equal(t, 0, hub.GetTotalConnections())

	client := &Client{id: "c1", hub: hub, send: make(chan []byte, 8), logger: testLogger()}
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.GetTotalConnections() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return hub.GetTotalConnections() == 0
	}, time.Second, 10*time.Millisecond)

	// The hub closes the send channel on unregister.
	_, open := <-client.send
	require.False(t, open)
}

func TestHub_BroadcastLeaderboardUpdate(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	client := &Client{id: "c1", hub: hub, send: make(chan []byte, 8), logger: testLogger()}
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.GetTotalConnections() == 1
	}, time.Second, 10*time.Millisecond)

	entries := []domain.LeaderboardEntry{{Rank: 1, ID: "s1", Username: "alice", TotalDistance: 1500}}
	hub.BroadcastLeaderboardUpdate(entries, 1)

	select {
	case data := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		require.Equal(t, MessageTypeLeaderboardUpdate, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast message")
	}
}

func TestHub_BroadcastWithNoClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()
	defer hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.BroadcastResultRecorded(domain.GameResult{SessionID: "s1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no clients")
	}
}
