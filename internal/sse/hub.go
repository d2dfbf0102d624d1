package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventTemplateCreated EventType = "template.created"
	EventTemplateUpdated EventType = "template.updated"
	EventTemplateDeleted EventType = "template.deleted"
)

// TemplateEvent is the payload broadcast to admin SSE clients when a shop's
// template set changes.
type TemplateEvent struct {
	Event      EventType `json:"event"`
	ShopID     int       `json:"shopId"`
	TemplateID int       `json:"templateId"`
	PublicID   string    `json:"publicId"`
	Name       string    `json:"name"`
	Scope      string    `json:"scope"`
	IsActive   bool      `json:"isActive"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client represents a connected SSE admin client.
type Client struct {
	ID     string
	ShopID int
	Events chan []byte
}

// Hub manages SSE client connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming. Events are scoped
// to the client's shop.
func (h *Hub) Register(clientID string, shopID int) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		ShopID: shopID,
		Events: make(chan []byte, 64),
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Broadcast sends an event to all clients watching the event's shop.
// Non-blocking: drops message if client buffer is full.
func (h *Hub) Broadcast(event *TemplateEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.ShopID != event.ShopID {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
