package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	pushTimeout     = 10 * time.Second
	deliveryTimeout = 15 * time.Second
)

// RealtimeSender delivers messages to connected WebSocket clients
type RealtimeSender interface {
	IsOnline(userID string) bool
	SendToUser(userID string, message WSMessage) error
}

// PushSender delivers a notification to a device
type PushSender interface {
	Push(ctx context.Context, deviceToken string, n *models.Notification) error
}

// NotificationService persists notifications and fans them out to the
// user's WebSocket connection and device
type NotificationService struct {
	store    repository.Store
	realtime RealtimeSender
	push     PushSender

	inflight sync.WaitGroup
}

// NewNotificationService creates a new notification service. push may be nil.
func NewNotificationService(store repository.Store, realtime RealtimeSender, push PushSender) *NotificationService {
	return &NotificationService{
		store:    store,
		realtime: realtime,
		push:     push,
	}
}

// Notify stores the notification and delivers it in the background. Only the
// store write can fail the call; delivery failures are logged and counted.
// Delivery outlives ctx so that a caller returning early does not cancel it.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationKind, referenceID, text string) error {
	n := &models.Notification{
		ID:          uuid.New().String(),
		UserID:      userID,
		Kind:        kind,
		ReferenceID: referenceID,
		Text:        text,
		CreatedAt:   time.Now(),
	}

	if err := s.store.Notifications().Create(ctx, n); err != nil {
		notificationDeliveriesTotal.WithLabelValues("store", "error").Inc()
		return fmt.Errorf("failed to store notification: %w", err)
	}
	notificationDeliveriesTotal.WithLabelValues("store", "ok").Inc()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()
		s.deliver(dctx, n)
	}()
	return nil
}

// Wait blocks until every delivery started by Notify has finished
func (s *NotificationService) Wait() {
	s.inflight.Wait()
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.realtime == nil || !s.realtime.IsOnline(n.UserID) {
			return nil
		}
		err := s.realtime.SendToUser(n.UserID, WSMessage{Type: "notification", Notification: n})
		s.observe("websocket", n, err)
		return nil
	})

	g.Go(func() error {
		if s.push == nil {
			return nil
		}
		user, err := s.store.Users().GetByID(gctx, n.UserID)
		if err != nil {
			s.observe("push", n, err)
			return nil
		}
		if user.PushToken == nil || *user.PushToken == "" {
			return nil
		}
		pushCtx, cancel := context.WithTimeout(gctx, pushTimeout)
		defer cancel()
		s.observe("push", n, s.push.Push(pushCtx, *user.PushToken, n))
		return nil
	})

	_ = g.Wait()
}

func (s *NotificationService) observe(channel string, n *models.Notification, err error) {
	if err == nil {
		notificationDeliveriesTotal.WithLabelValues(channel, "ok").Inc()
		return
	}
	notificationDeliveriesTotal.WithLabelValues(channel, "error").Inc()
	log.Warn().
		Err(err).
		Str("channel", channel).
		Str("user_id", n.UserID).
		Str("notification_id", n.ID).
		Msg("Failed to deliver notification")
}

// List returns a user's notifications with pagination
func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Notifications().ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.store.Notifications().MarkRead(ctx, notificationID, userID); err != nil {
		return storeErr(err, "notification "+notificationID)
	}
	return nil
}
