// Package ws pushes transient chat events (typing indicators, delivered
// companion messages) to connected browsers over a websocket. The channel
// is advisory: the HTTP responses carry the authoritative payloads, so a
// dropped frame or an absent client is never an error.
package ws

import (
	"context"

	"go.uber.org/zap"
)

// Hub tracks connected clients and fans broadcast frames out to them.
// All client-set mutation happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *zap.Logger
}

// NewHub creates a Hub. Call Run before registering clients.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("websocket client connected", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug("websocket client disconnected", zap.Int("clients", len(h.clients)))
			}

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// slow consumer, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-ctx.Done():
			// closing done unblocks handlers that race a late upgrade
			// against shutdown
			close(h.done)
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// add registers a client. It reports false when the hub has shut down, in
// which case the caller owns closing the connection.
func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// remove unregisters a client; a no-op after shutdown.
func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a frame for every connected client. Non-blocking: the
// frame is dropped if the hub is saturated.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
	}
}
