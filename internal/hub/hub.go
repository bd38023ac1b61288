package hub

import (
	"encoding/json"
	"sync"
)

const EventMessageCreated = "message.created"

// Event represents a real-time event sent to chat participants.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is a subscriber channel read by the SSE handler.
type Client chan []byte

// Hub fans out chat events to the participants currently listening.
// Delivery is best effort: a full client buffer drops the event.
type Hub struct {
	chats map[uint]map[Client]bool
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		chats: make(map[uint]map[Client]bool),
	}
}

// NewClient returns a buffered client channel.
func NewClient() Client {
	return make(Client, 16)
}

// Subscribe adds a client to a chat.
func (h *Hub) Subscribe(chatID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.chats[chatID]; !ok {
		h.chats[chatID] = make(map[Client]bool)
	}
	h.chats[chatID][client] = true
}

// Unsubscribe removes a client from a chat and closes its channel.
func (h *Hub) Unsubscribe(chatID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.chats[chatID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client)
			if len(clients) == 0 {
				delete(h.chats, chatID)
			}
		}
	}
}

// Subscribers returns the number of clients listening on a chat.
func (h *Hub) Subscribers(chatID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chats[chatID])
}

// Broadcast sends an event to all clients of a chat without blocking.
func (h *Hub) Broadcast(chatID uint, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.chats[chatID]
	if !ok {
		return nil
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for client := range clients {
		select {
		case client <- messageBytes:
		default:
		}
	}
	return nil
}
