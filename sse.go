package sitekit

import (
	"encoding/json"
	"sync"
)

// EventClient is one connected admin dashboard listening for server-sent
// events. Messages are dropped rather than blocking when a client is slow.
type EventClient struct {
	Msg chan string
}

// EventHub fans session-state changes out to connected admin dashboards.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*EventClient]struct{}
}

// NewEventHub returns an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*EventClient]struct{})}
}

// Add registers a client. The returned client must be removed with Delete
// when its connection closes.
func (h *EventHub) Add() *EventClient {
	client := &EventClient{Msg: make(chan string, 8)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	return client
}

// Delete removes a client and closes its channel.
func (h *EventHub) Delete(client *EventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Msg)
}

// BroadcastSession sends the session snapshot to every connected client.
func (h *EventHub) BroadcastSession(state SessionState) {
	payload, err := json.Marshal(map[string]any{
		"authenticated": state.IsAuthenticated,
		"user":          state.User,
	})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Msg <- string(payload):
		default:
		}
	}
}
