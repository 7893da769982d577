// Package websocket pushes live visitor snapshots to connected
// screens. Every store change fans out as a full, ordered snapshot;
// clients diff and re-render on their side.
package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/xelth-com/campusgate/internal/models"
)

// SnapshotMessage is the frame sent on every visitor-store change
type SnapshotMessage struct {
	Type     string           `json:"type"`
	Visitors []models.Visitor `json:"visitors"`
}

// Hub maintains the set of active clients and broadcasts snapshots
type Hub struct {
	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Mutex for thread-safe access to clients map and last snapshot
	mu sync.RWMutex

	// Last serialized snapshot, replayed to clients that connect late
	last []byte
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A reconnecting screen replaces its old connection
			if old, ok := h.clients[client.ID]; ok {
				close(old.send)
				delete(h.clients, client.ID)
			}
			h.clients[client.ID] = client
			last := h.last
			h.mu.Unlock()

			log.Printf("📱 Screen connected: %s", client.ID)
			if last != nil {
				select {
				case client.send <- last:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("📴 Screen disconnected: %s", client.ID)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a visitor snapshot to every connected screen. A slow
// client skips the frame; the next change delivers the newer state
// anyway.
func (h *Hub) Broadcast(visitors []models.Visitor) {
	msg, err := json.Marshal(SnapshotMessage{Type: "snapshot", Visitors: visitors})
	if err != nil {
		log.Printf("Error marshaling snapshot: %v", err)
		return
	}

	h.mu.Lock()
	h.last = msg
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected screens
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
