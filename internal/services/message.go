package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxMessageLength = 2000

// MessageService handles direct messages between friends
type MessageService struct {
	store    repository.Store
	friends  *FriendService
	realtime RealtimeSender
	notifier Notifier
}

// NewMessageService creates a new message service
func NewMessageService(store repository.Store, friends *FriendService, realtime RealtimeSender, notifier Notifier) *MessageService {
	return &MessageService{
		store:    store,
		friends:  friends,
		realtime: realtime,
		notifier: notifier,
	}
}

// Send persists a message and relays it to the receiver. Offline receivers
// get a notification instead.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxMessageLength {
		return nil, fmt.Errorf("message must be 1-%d characters: %w", maxMessageLength, ErrInvalidInput)
	}

	if err := s.requireFriends(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	if err := s.store.Messages().Create(ctx, msg); err != nil {
		return nil, err
	}
	messagesSentTotal.Inc()

	if s.realtime != nil && s.realtime.IsOnline(receiverID) {
		err := s.realtime.SendToUser(receiverID, WSMessage{Type: "chat_message", ChatMessage: msg})
		if err == nil {
			return msg, nil
		}
		log.Warn().Err(err).Str("user_id", receiverID).Msg("Failed to relay chat message")
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, receiverID, models.NotificationMessage, msg.ID, "You have a new message"); err != nil {
			log.Error().Err(err).Str("user_id", receiverID).Msg("Failed to notify about message")
		}
	}

	return msg, nil
}

// History returns the conversation between two friends, newest first
func (s *MessageService) History(ctx context.Context, userID, otherID string, limit, offset int) ([]*models.Message, error) {
	if err := s.requireFriends(ctx, userID, otherID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Messages().ListBetween(ctx, userID, otherID, limit, offset)
}

func (s *MessageService) requireFriends(ctx context.Context, userID, otherID string) error {
	status, err := s.friends.CheckFriendshipStatus(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if status != models.FriendshipFriends {
		return fmt.Errorf("messages are only allowed between friends: %w", ErrForbidden)
	}
	return nil
}
