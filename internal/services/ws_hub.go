package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"social-graph-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type         string               `json:"type"`
	UserID       string               `json:"user_id,omitempty"`
	To           string               `json:"to,omitempty"`
	Body         string               `json:"body,omitempty"`
	Online       *bool                `json:"online,omitempty"`
	Message      string               `json:"message,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	ChatMessage  *models.Message      `json:"chat_message,omitempty"`
}

// Conn is the subset of *websocket.Conn the hub writes to
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client serialises writes; gorilla connections allow one concurrent writer
type client struct {
	mu   sync.Mutex
	conn Conn
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*client
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*client),
	}
}

// Register registers a new WebSocket connection for a user, closing any
// previous connection of the same user
func (h *WSHub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	} else {
		wsConnections.Inc()
	}

	h.connections[userID] = &client{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still conn.
// It reports whether the connection was removed.
func (h *WSHub) Unregister(userID string, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, exists := h.connections[userID]
	if !exists || c.conn != conn {
		return false
	}

	c.conn.Close()
	delete(h.connections, userID)
	wsConnections.Dec()
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	return true
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.write(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Ping writes a ping control frame to conn while it is still the user's
// registered connection
func (h *WSHub) Ping(userID string, conn Conn) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists || c.conn != conn {
		return fmt.Errorf("user %s is not connected", userID)
	}
	return c.write(websocket.PingMessage, nil)
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// OnlineAmong returns the subset of userIDs that are connected
func (h *WSHub) OnlineAmong(userIDs []string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var online []string
	for _, id := range userIDs {
		if _, ok := h.connections[id]; ok {
			online = append(online, id)
		}
	}
	return online
}

// NotifyFriendStatus tells every online friend that userID went online or offline
func (h *WSHub) NotifyFriendStatus(userID string, friendIDs []string, online bool) {
	message := WSMessage{
		Type:   "friend_status",
		UserID: userID,
		Online: &online,
	}

	for _, friendID := range h.OnlineAmong(friendIDs) {
		if err := h.SendToUser(friendID, message); err != nil {
			log.Error().
				Err(err).
				Str("user_id", friendID).
				Msg("Failed to notify friend status")
		}
	}
}

// CloseAll closes every connection, used on shutdown
func (h *WSHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.connections {
		c.conn.Close()
		delete(h.connections, userID)
		wsConnections.Dec()
	}
}
