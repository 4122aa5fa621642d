package events

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Broker manages SSE connections and broadcasts publish progress events.
// It is injected into the runner and the API; there is no global instance.
type Broker struct {
	clients map[chan string]bool
	mu      sync.RWMutex
}

// NewBroker creates an event broker
func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan string]bool),
	}
}

// Register adds a new SSE client
func (b *Broker) Register(client chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = true
	log.Printf("📡 SSE client connected (total: %d)", len(b.clients))
}

// Unregister removes an SSE client
func (b *Broker) Unregister(client chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, client)
	close(client)
	log.Printf("📡 SSE client disconnected (total: %d)", len(b.clients))
}

// Broadcast sends an event to all connected clients. A nil broker is a no-op
// so CLI paths can run without one.
func (b *Broker) Broadcast(eventType string, data interface{}) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event data: %v", err)
		return
	}

	message := fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, string(jsonData))

	for client := range b.clients {
		select {
		case client <- message:
			// Message sent
		default:
			// Client buffer full, skip
		}
	}
}
