package models

import "time"

// User represents a user in the system
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	AvatarKey    *string    `json:"avatar_key,omitempty"`
	PushToken    *string    `json:"-"`
	IsAdmin      bool       `json:"is_admin"`
	IsBlocked    bool       `json:"is_blocked"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Active reports whether the user resolves: present and not soft-deleted
func (u *User) Active() bool {
	return u != nil && u.DeletedAt == nil
}

// PublicUser is the view of a user exposed to other users
type PublicUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarKey   *string `json:"avatar_key,omitempty"`
}

// Public returns the public view of the user
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarKey:   u.AvatarKey,
	}
}

// FriendRequestStatus is the lifecycle state of a friend request
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "PENDING"
	FriendRequestAccepted FriendRequestStatus = "ACCEPTED"
	FriendRequestRejected FriendRequestStatus = "REJECTED"
)

// Terminal reports whether no transition is allowed out of the status
func (s FriendRequestStatus) Terminal() bool {
	return s == FriendRequestAccepted || s == FriendRequestRejected
}

// FriendRequest is a directed proposal from sender to receiver
type FriendRequest struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"sender_id"`
	ReceiverID string              `json:"receiver_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Friend is an undirected friendship stored with User1ID < User2ID
type Friend struct {
	ID      string    `json:"id"`
	User1ID string    `json:"user1_id"`
	User2ID string    `json:"user2_id"`
	Since   time.Time `json:"since"`
}

// Other returns the id of the friend that is not userID
func (f *Friend) Other(userID string) string {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}

// OrderedPair returns the two ids with the lexicographically smaller one first
func OrderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// FriendshipStatus classifies the relationship between a caller and another user
type FriendshipStatus string

const (
	FriendshipFriends  FriendshipStatus = "FRIENDS"
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipReceived FriendshipStatus = "RECEIVED"
	FriendshipNone     FriendshipStatus = "NONE"
)

// FriendshipStatusResult is one entry of a batch status lookup
type FriendshipStatusResult struct {
	TargetID string           `json:"target"`
	Status   FriendshipStatus `json:"status"`
}

// NotificationKind identifies what a notification refers to
type NotificationKind string

const (
	NotificationFriendRequest  NotificationKind = "FRIEND_REQUEST"
	NotificationFriendAccepted NotificationKind = "FRIEND_ACCEPTED"
	NotificationMessage        NotificationKind = "MESSAGE"
)

// Notification is a persisted event addressed to a user
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Kind        NotificationKind `json:"kind"`
	ReferenceID string           `json:"reference_id"`
	Text        string           `json:"text"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Message is a direct message between two friends
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
