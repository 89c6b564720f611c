package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"ewaste/internal/models"
)

// Client is one connected dashboard. Routing is by identity, not by explicit
// subscription: the account a client logged in as decides which request
// events it may see.
type Client struct {
	ID     string
	UserID string
	Role   string
	Send   chan []byte
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type Event struct {
	Type      string         `json:"type"`
	Payload   models.Request `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
	close(client.Send)
}

// RequestUpdated pushes a status change to every client allowed to see the
// request. Slow clients drop the message rather than block the sender.
func (h *Hub) RequestUpdated(request models.Request) {
	event := Event{Type: "request_status", Payload: request, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event for %s: %v", request.RequestID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !visible(client, request) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop message for client %s", client.ID)
		}
	}
}

func visible(client *Client, request models.Request) bool {
	switch client.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return request.UserID == client.UserID
	case models.RolePickupPerson:
		return request.PickupPersonID != nil && *request.PickupPersonID == client.UserID
	default:
		return false
	}
}
