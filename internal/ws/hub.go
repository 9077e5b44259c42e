// Package ws delivers live engine state to connected UIs. Each
// WebSocket connection gets its own chat.Session plus a bridge
// subscription for its user's inbox; commands come in as JSON frames
// and every state change goes back out as a whole snapshot.
package ws

import (
	"go.uber.org/zap"
)

// Hub tracks the set of connected clients so the server can close them
// cleanly on shutdown. Register/unregister run on the hub goroutine;
// message fan-out happens per client via its bridge subscription, not
// through the hub. The hub never closes a client's send channel: the
// inbox pump may still be pushing frames, so dropping a client only
// closes its done channel and the client's own goroutines wind down
// from there.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("ws client connected",
				zap.String("user_id", client.session.Self().ID.String()),
				zap.Int("clients", len(h.clients)),
			)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.done)
			}
		case <-h.shutdown:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.done)
			}
			return
		}
	}
}

// Shutdown stops the hub loop and drops every client.
func (h *Hub) Shutdown() {
	close(h.shutdown)
}
