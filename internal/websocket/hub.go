package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event types pushed over the scan feed
const (
	EventScan          = "SCAN"
	EventUndo          = "SCAN_UNDO"
	EventBatchFinished = "BATCH_FINISHED"
)

// ScanEvent is one live update on a batch's scan feed. Depot dashboards
// subscribe to watch counters move in real time.
type ScanEvent struct {
	Type              string    `json:"type"`
	BatchID           string    `json:"batch_id"`
	GeneratedID       string    `json:"generated_id,omitempty"`
	ScanNumber        int       `json:"scan_number,omitempty"`
	TotalItemsScanned int       `json:"total_items_scanned"`
	Timestamp         time.Time `json:"timestamp"`
}

// Hub maintains the set of subscribed clients and fans scan events out to
// all of them
type Hub struct {
	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound events, already serialized
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.ClientID]; ok {
				close(old.send)
			}
			h.clients[client.ClientID] = client
			h.mu.Unlock()
			log.Printf("📱 Feed client connected: %s", client.ClientID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ClientID]; ok {
				delete(h.clients, client.ClientID)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("📴 Feed client disconnected: %s", client.ClientID)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead, drop rather than block the feed
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish serializes an event and fans it out to every subscriber. Safe
// to call from any goroutine; a full hub drops the event rather than
// blocking a scan.
func (h *Hub) Publish(event ScanEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling feed event: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️ Feed backlogged, dropping %s event for batch %s", event.Type, event.BatchID)
	}
}
