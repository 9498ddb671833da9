package sitekit

import (
	"encoding/json"
	"testing"
)

func TestEventHubBroadcast(t *testing.T) {
	hub := NewEventHub()
	client := hub.Add()
	t.Cleanup(func() { hub.Delete(client) })

	user := &User{Username: "admin", Role: RoleAdmin}
	hub.BroadcastSession(SessionState{User: user, IsAuthenticated: true})

	select {
	case msg := <-client.Msg:
		var payload struct {
			Authenticated bool  `json:"authenticated"`
			User          *User `json:"user"`
		}
		if err := json.Unmarshal([]byte(msg), &payload); err != nil {
			t.Fatalf("invalid payload %q: %v", msg, err)
		}
		if !payload.Authenticated || payload.User == nil || payload.User.Username != "admin" {
			t.Errorf("payload = %+v", payload)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestEventHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewEventHub()
	client := hub.Add()
	t.Cleanup(func() { hub.Delete(client) })

	// Overflow the client buffer; broadcasts must stay non-blocking.
	for i := 0; i < cap(client.Msg)+5; i++ {
		hub.BroadcastSession(SessionState{})
	}
}

func TestEventHubDelete(t *testing.T) {
	hub := NewEventHub()
	client := hub.Add()
	hub.Delete(client)

	hub.BroadcastSession(SessionState{IsAuthenticated: true})
	// The channel is closed on Delete, so a receive must report no value.
	if msg, ok := <-client.Msg; ok {
		t.Errorf("deleted client received %q", msg)
	}

	// Deleting twice is a no-op, not a double close.
	hub.Delete(client)
}
