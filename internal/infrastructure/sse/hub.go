package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

const clientBuffer = 100

// Client is one open event stream of an account.
type Client struct {
	ID          string
	AccountID   uuid.UUID
	ConnectedAt time.Time
	Messages    chan *Message
}

func NewClient(id string, accountID uuid.UUID) *Client {
	return &Client{
		ID:          id,
		AccountID:   accountID,
		ConnectedAt: time.Now().UTC(),
		Messages:    make(chan *Message, clientBuffer),
	}
}

// Message is one server-sent event.
type Message struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewMessage(event string, data json.RawMessage) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Hub manages SSE clients and implements dealrequest.Notifier. Accounts
// without an open stream miss the notification.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[client.ID]; ok {
		close(old.Messages)
	}
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		close(c.Messages)
		delete(h.clients, clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify sends n to every stream of the recipient account.
func (h *Hub) Notify(ctx context.Context, n dealrequest.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	msg := NewMessage(string(n.Type), data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	var dropped int
	for _, c := range h.clients {
		if c.AccountID != n.To {
			continue
		}
		if !trySend(c, msg) {
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d stream(s) of %s", ErrChannelFull, dropped, n.To)
	}
	return nil
}

func (h *Hub) SendToClient(clientID string, message *Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c := h.clients[clientID]
	if c == nil {
		return ErrClientNotFound
	}
	if !trySend(c, message) {
		return ErrChannelFull
	}
	return nil
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Messages)
		delete(h.clients, id)
	}
}

func trySend(c *Client, msg *Message) bool {
	select {
	case c.Messages <- msg:
		return true
	default:
		return false
	}
}
