package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"social-graph-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	readWait       = 60 * time.Second
	pingPeriod     = (readWait * 9) / 10
	maxMessageSize = 8 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Clients are native apps; auth is the token
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	userService    *services.UserService
	friendService  *services.FriendService
	messageService *services.MessageService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	friendService *services.FriendService,
	messageService *services.MessageService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		userService:    userService,
		friendService:  friendService,
		messageService: messageService,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			respondError(w, "user is blocked", "forbidden", http.StatusForbidden)
			return
		}
		respondError(w, "invalid token", "unauthorized", http.StatusUnauthorized)
		return
	}
	userID := user.ID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	h.hub.Register(userID, conn)

	ctx := r.Context()
	friendIDs, err := h.friendService.FriendIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load friends for presence")
	}
	h.hub.NotifyFriendStatus(userID, friendIDs, true)
	h.sendOnlineFriends(userID, friendIDs)

	defer func() {
		if h.hub.Unregister(userID, conn) {
			h.hub.NotifyFriendStatus(userID, friendIDs, false)
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(userID, conn, pingPeriod, done)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendErrorToUser(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendErrorToUser(userID, err.Error())
		}
	}
}

// keepAlive pings the connection every period until done is closed or the
// connection stops being the user's registered one
func (h *WebSocketHandler) keepAlive(userID string, conn services.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := h.hub.Ping(userID, conn); err != nil {
				log.Debug().Err(err).Str("user_id", userID).Msg("Stopped WebSocket keep-alive")
				return
			}
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case "chat_message":
		return h.handleChatMessage(ctx, userID, msg)
	case "ping":
		return h.hub.SendToUser(userID, services.WSMessage{Type: "pong"})
	default:
		return errors.New("unknown message type")
	}
}

// handleChatMessage sends a direct message and echoes the stored copy back
func (h *WebSocketHandler) handleChatMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	if err := validateID("to", msg.To); err != nil {
		return err
	}

	stored, err := h.messageService.Send(ctx, userID, msg.To, msg.Body)
	if err != nil {
		return err
	}

	return h.hub.SendToUser(userID, services.WSMessage{Type: "chat_message_sent", ChatMessage: stored})
}

// sendOnlineFriends tells a newly connected user which friends are online
func (h *WebSocketHandler) sendOnlineFriends(userID string, friendIDs []string) {
	online := true
	for _, friendID := range h.hub.OnlineAmong(friendIDs) {
		msg := services.WSMessage{Type: "friend_status", UserID: friendID, Online: &online}
		if err := h.hub.SendToUser(userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to send friend status")
			return
		}
	}
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
