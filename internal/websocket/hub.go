package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of connected supervision clients and broadcasts
// setup status events to them
type Hub struct {
	// Registered clients map: connection ID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
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
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("👁  Supervision client connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("📴 Supervision client disconnected: %s", client.ID)
			}
			h.mu.Unlock()
		}
	}
}

// SetupEvent is the message pushed when a setup changes status
type SetupEvent struct {
	Type    string `json:"type"` // setup_completed, setup_approved, setup_rejected
	SetupID string `json:"setup_id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Region  string `json:"region,omitempty"`
}

// Broadcast pushes an event to every connected client. Slow clients are
// skipped rather than blocking the caller.
func (h *Hub) Broadcast(event SetupEvent) {
	jsonMsg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- jsonMsg:
		default:
			// Buffer full or client dead
		}
	}
}
