package services

import (
	"context"
	"fmt"

	"social-graph-backend/internal/models"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsPusher sends notifications to iOS devices through APNs
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a token-authenticated APNs client from a .p8 key file
func NewAPNsPusher(keyPath, keyID, teamID, topic string, production bool) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsPusher{
		client: client,
		topic:  topic,
	}, nil
}

// Push sends n to the device identified by deviceToken
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, n *models.Notification) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		PushType:    apns2.PushTypeAlert,
		Priority:    apns2.PriorityHigh,
		Payload:     notificationPayload(n),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

func notificationPayload(n *models.Notification) *payload.Payload {
	return payload.NewPayload().
		AlertBody(n.Text).
		Sound("default").
		ThreadID(string(n.Kind)).
		Custom("notification_id", n.ID).
		Custom("kind", string(n.Kind)).
		Custom("reference_id", n.ReferenceID)
}
