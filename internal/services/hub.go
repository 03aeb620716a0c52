package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/models"
)

// Event types sent over the notification socket
const (
	EventNotificationCreated = "notification_created"
	EventNotificationsRead   = "notifications_read"
	EventUnreadCount         = "unread_count"
)

// NotificationEvent is the JSON message pushed to a recipient's clients.
// UnreadCount is always the freshly recomputed aggregate; clients may
// decrement optimistically and reconcile against it.
type NotificationEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification,omitempty"`
	UnreadCount  int64                `json:"unreadCount"`
}

// connection wraps a websocket connection with a write lock; the fan-out
// path and the keepalive both write.
type connection struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *connection) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Send delivers an event to this session only. Used for the initial
// unread sync on connect.
func (c *connection) Send(event NotificationEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// Hub tracks the open notification sockets per user. A user may hold
// several (one per active session).
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[*connection]bool
}

// Global hub instance
var WS = &Hub{
	users: make(map[uuid.UUID]map[*connection]bool),
}

func (h *Hub) Register(userID uuid.UUID, ws *websocket.Conn) *connection {
	conn := &connection{conn: ws}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*connection]bool)
	}
	h.users[userID][conn] = true
	log.Printf("WS register: user %s (%d session(s))", userID, len(h.users[userID]))
	return conn
}

func (h *Hub) Unregister(userID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
}

// Publish sends an event to every open session of one user.
func (h *Hub) Publish(userID uuid.UUID, event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.users[userID]
	if !ok {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS publish marshal error: %v", err)
		return
	}

	for c := range conns {
		if err := c.write(msg); err != nil {
			log.Printf("WS write error for user %s: %v", userID, err)
		}
	}
}
