package brackets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientsInRoom(room) != want {
		if time.Now().After(deadline) {
			t.Fatalf("room %s has %d clients, want %d", room, hub.ClientsInRoom(room), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRoutesMessagesByRoom(t *testing.T) {
	hub, _ := startHub(t)

	cup := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomForTournament("cup")}
	other := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomForTournament("other")}
	for _, c := range []*Client{cup, other} {
		if !hub.Subscribe(c) {
			t.Fatalf("Subscribe to running hub failed")
		}
	}
	waitForClients(t, hub, cup.Room, 1)
	waitForClients(t, hub, other.Room, 1)

	hub.NotifyTournament("cup", MessageGameRecorded, map[string]int{"game": 2})

	select {
	case raw := <-cup.Send:
		var msg WebSocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type != MessageGameRecorded || msg.RoomID != "tournament_cup" {
			t.Fatalf("message = %+v", msg)
		}
	default:
		t.Fatalf("subscriber of cup got nothing")
	}
	if len(other.Send) != 0 {
		t.Fatalf("subscriber of another tournament got %d messages", len(other.Send))
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub, _ := startHub(t)
	c := &Client{Hub: hub, Send: make(chan []byte, 1), Room: RoomForTournament("cup")}
	hub.Subscribe(c)
	waitForClients(t, hub, c.Room, 1)

	hub.Unregister <- c
	waitForClients(t, hub, c.Room, 0)

	if _, ok := <-c.Send; ok {
		t.Fatalf("send channel still open after unregister")
	}
	if err := c.SendMessage("late"); err != errClientClosed {
		t.Fatalf("SendMessage after close = %v", err)
	}
	// Broadcasting to an empty room is a no-op.
	hub.NotifyTournament("cup", MessageScoresReset, nil)
}

func TestClientSendMessageBufferFull(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1)}
	if err := c.SendMessage(WebSocketMessage{Type: MessageScoresPublished}); err != nil {
		t.Fatalf("first SendMessage: %v", err)
	}
	if err := c.SendMessage(WebSocketMessage{Type: MessageScoresPublished}); err != errSendBufferFull {
		t.Fatalf("second SendMessage = %v", err)
	}
}

func TestHubStopsAcceptingAfterShutdown(t *testing.T) {
	hub, cancel := startHub(t)
	c := &Client{Hub: hub, Send: make(chan []byte, 1), Room: RoomForTournament("cup")}
	hub.Subscribe(c)
	waitForClients(t, hub, c.Room, 1)

	cancel()
	<-hub.done
	waitForClients(t, hub, c.Room, 0)

	if hub.Subscribe(&Client{Hub: hub, Send: make(chan []byte, 1), Room: c.Room}) {
		t.Fatalf("Subscribe succeeded on a stopped hub")
	}
}
