package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestBroadcastToRoomReachesOnlyThatRoom(t *testing.T) {
	hub := startHub(t)

	inRoom := NewClient(hub, nil, TournamentRoom("t1"))
	elsewhere := NewClient(hub, nil, TournamentRoom("t2"))
	hub.Register <- inRoom
	hub.Register <- elsewhere
	require.Eventually(t, func() bool {
		return hub.RoomSize("tournament_t1") == 1 && hub.RoomSize("tournament_t2") == 1
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(TournamentRoom("t1"), WebSocketMessage{
		Type:    MessageRoundStarted,
		Payload: map[string]int{"round": 2},
		RoomID:  TournamentRoom("t1"),
	})

	select {
	case raw := <-inRoom.Send:
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
			RoomID  string         `json:"room_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageRoundStarted, msg.Type)
		assert.Equal(t, 2, msg.Payload["round"])
		assert.Equal(t, "tournament_t1", msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	assert.Empty(t, elsewhere.Send)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, TournamentRoom("t1"))
	hub.Register <- client
	hub.Unregister <- client

	require.Eventually(t, func() bool { return hub.RoomSize(TournamentRoom("t1")) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)

	// a closed client is skipped without panicking
	assert.False(t, client.enqueue([]byte("late")))
}

func TestBroadcastChannelReachesEveryRoom(t *testing.T) {
	hub := startHub(t)
	a := NewClient(hub, nil, "a")
	b := NewClient(hub, nil, "b")
	hub.Register <- a
	hub.Register <- b
	hub.Broadcast <- []byte(`{"type":"PING"}`)

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"PING"}`, string(msg))
		case <-time.After(time.Second):
			t.Fatalf("room %s did not receive the broadcast", c.Room)
		}
	}
}
