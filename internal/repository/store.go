package repository

import (
	"context"

	"social-graph-backend/internal/models"
)

// Store groups the repositories and the transaction boundary.
// Implementations: PgStore and memory.Store.
type Store interface {
	Users() UserStore
	FriendRequests() FriendRequestStore
	Friends() FriendStore
	Notifications() NotificationStore
	Messages() MessageStore
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// UserStore persists user identity records
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	UpdateAvatarKey(ctx context.Context, userID string, avatarKey *string) error
	SetBlocked(ctx context.Context, userID string, blocked bool) error
	SoftDelete(ctx context.Context, userID string) error
	// ListActiveExcluding returns up to limit users that are neither
	// soft-deleted, blocked, nor in exclude.
	ListActiveExcluding(ctx context.Context, exclude []string, limit int) ([]*models.User, error)
}

// FriendRequestStore persists directed friend requests
type FriendRequestStore interface {
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	// ListBySender and ListByReceiver filter on status unless it is empty
	ListBySender(ctx context.Context, senderID string, status models.FriendRequestStatus) ([]*models.FriendRequest, error)
	ListByReceiver(ctx context.Context, receiverID string, status models.FriendRequestStatus) ([]*models.FriendRequest, error)
	FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	// TransitionStatus moves the request from one status to another and
	// reports false if the request was not in the expected status.
	TransitionStatus(ctx context.Context, id string, from, to models.FriendRequestStatus) (bool, error)
	DeletePending(ctx context.Context, id string) (bool, error)
	// PendingAmong splits others into those userID has a pending request to
	// and those with a pending request to userID
	PendingAmong(ctx context.Context, userID string, others []string) (sent, received map[string]bool, err error)
}

// FriendStore persists undirected friendships
type FriendStore interface {
	Exists(ctx context.Context, user1ID, user2ID string) (bool, error)
	Create(ctx context.Context, friend *models.Friend) error
	FindBetween(ctx context.Context, user1ID, user2ID string) (*models.Friend, error)
	Delete(ctx context.Context, user1ID, user2ID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Friend, error)
	// FriendsAmong returns the subset of others that are friends with userID
	FriendsAmong(ctx context.Context, userID string, others []string) (map[string]bool, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// MessageStore persists direct messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListBetween(ctx context.Context, user1ID, user2ID string, limit, offset int) ([]*models.Message, error)
}
