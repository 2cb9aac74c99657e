package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxSuggestions = 20

// Notifier receives relationship events. Delivery is best-effort: errors are
// logged by the caller and never undo the mutation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind models.NotificationKind, referenceID, text string) error
}

// FriendEntry is a friend of the caller together with the friendship date
type FriendEntry struct {
	User  models.PublicUser `json:"user"`
	Since time.Time         `json:"since"`
}

// FriendService owns the lifecycle of friend requests and friendships
type FriendService struct {
	store    repository.Store
	notifier Notifier
}

// NewFriendService creates a new friend service
func NewFriendService(store repository.Store, notifier Notifier) *FriendService {
	return &FriendService{
		store:    store,
		notifier: notifier,
	}
}

// resolve returns the user if it exists and is not soft-deleted
func resolve(ctx context.Context, store repository.Store, userID string) (*models.User, error) {
	user, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user "+userID)
	}
	if !user.Active() {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return user, nil
}

// SendFriendRequest creates a pending request from sender to receiver
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		observeFriendOp("send", ErrConflict)
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", ErrConflict)
	}

	var (
		req    *models.FriendRequest
		sender *models.User
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if sender, err = resolve(ctx, tx, senderID); err != nil {
			return err
		}
		if _, err = resolve(ctx, tx, receiverID); err != nil {
			return err
		}

		friends, err := tx.Friends().Exists(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if friends {
			return fmt.Errorf("users are already friends: %w", ErrConflict)
		}

		// A pending request in either direction blocks a new one.
		for _, dir := range [][2]string{{senderID, receiverID}, {receiverID, senderID}} {
			_, err := tx.FriendRequests().FindPending(ctx, dir[0], dir[1])
			if err == nil {
				return fmt.Errorf("a pending friend request already exists between %s and %s: %w", dir[0], dir[1], ErrConflict)
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		now := time.Now()
		req = &models.FriendRequest{
			ID:         uuid.New().String(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     models.FriendRequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.FriendRequests().Create(ctx, req); err != nil {
			return storeErr(err, "failed to create friend request")
		}
		return nil
	})
	observeFriendOp("send", err)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", req.ID).
		Str("sender_id", senderID).
		Str("receiver_id", receiverID).
		Msg("Friend request sent")

	s.notify(ctx, receiverID, models.NotificationFriendRequest, req.ID,
		fmt.Sprintf("%s sent you a friend request", sender.Username))

	return req, nil
}

// AcceptFriendRequest moves a pending request to ACCEPTED and creates the
// friendship in the same transaction. An empty actorID skips the receiver check.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, actorID, requestID string) (*models.Friend, error) {
	var (
		req      *models.FriendRequest
		friend   *models.Friend
		receiver *models.User
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		req, err = s.pendingRequestForReceiver(ctx, tx, actorID, requestID)
		if err != nil {
			return err
		}
		if _, err = resolve(ctx, tx, req.SenderID); err != nil {
			return err
		}
		if receiver, err = resolve(ctx, tx, req.ReceiverID); err != nil {
			return err
		}

		if err := s.transition(ctx, tx, req, models.FriendRequestAccepted); err != nil {
			return err
		}

		exists, err := tx.Friends().Exists(ctx, req.SenderID, req.ReceiverID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("users are already friends: %w", ErrConflict)
		}

		friend = &models.Friend{
			ID:      uuid.New().String(),
			User1ID: req.SenderID,
			User2ID: req.ReceiverID,
			Since:   time.Now(),
		}
		if err := tx.Friends().Create(ctx, friend); err != nil {
			return storeErr(err, "failed to create friendship")
		}
		return nil
	})
	observeFriendOp("accept", err)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", requestID).
		Str("user1_id", friend.User1ID).
		Str("user2_id", friend.User2ID).
		Msg("Friend request accepted")

	s.notify(ctx, req.SenderID, models.NotificationFriendAccepted, req.ID,
		fmt.Sprintf("%s accepted your friend request", receiver.Username))

	return friend, nil
}

// RejectFriendRequest moves a pending request to REJECTED
func (s *FriendService) RejectFriendRequest(ctx context.Context, actorID, requestID string) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		req, err = s.pendingRequestForReceiver(ctx, tx, actorID, requestID)
		if err != nil {
			return err
		}
		return s.transition(ctx, tx, req, models.FriendRequestRejected)
	})
	observeFriendOp("reject", err)
	if err != nil {
		return nil, err
	}

	log.Info().Str("request_id", requestID).Msg("Friend request rejected")
	return req, nil
}

// DeleteFriendRequest removes a request while it is still pending.
// The actor must be the sender or the receiver; empty skips the check.
func (s *FriendService) DeleteFriendRequest(ctx context.Context, actorID, requestID string) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		req, err := tx.FriendRequests().GetByID(ctx, requestID)
		if err != nil {
			return storeErr(err, "friend request "+requestID)
		}
		if actorID != "" && actorID != req.SenderID && actorID != req.ReceiverID {
			return fmt.Errorf("user is not a party to this friend request: %w", ErrForbidden)
		}
		if req.Status != models.FriendRequestPending {
			return fmt.Errorf("friend request is %s: %w", req.Status, ErrInvalidState)
		}
		deleted, err := tx.FriendRequests().DeletePending(ctx, requestID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("friend request is no longer pending: %w", ErrInvalidState)
		}
		return nil
	})
	observeFriendOp("delete_request", err)
	if err != nil {
		return err
	}

	log.Info().Str("request_id", requestID).Msg("Friend request deleted")
	return nil
}

// RemoveFriendship deletes the friendship between two users. A missing
// friendship is not an error; removed reports whether one existed.
func (s *FriendService) RemoveFriendship(ctx context.Context, user1ID, user2ID string) (bool, error) {
	removed, err := s.store.Friends().Delete(ctx, user1ID, user2ID)
	observeFriendOp("remove", err)
	if err != nil {
		return false, err
	}

	if !removed {
		log.Info().
			Str("user1_id", user1ID).
			Str("user2_id", user2ID).
			Msg("No friendship to remove")
		return false, nil
	}

	log.Info().
		Str("user1_id", user1ID).
		Str("user2_id", user2ID).
		Msg("Friendship removed")
	return true, nil
}

// CheckFriendshipStatus classifies the relationship from userID's point of view
func (s *FriendService) CheckFriendshipStatus(ctx context.Context, userID, otherID string) (models.FriendshipStatus, error) {
	status, err := statusBetween(ctx, s.store, userID, otherID)
	observeFriendOp("status", err)
	return status, err
}

// CheckFriendshipBatchStatus classifies the relationship with every target,
// preserving the order of targetIDs. Only an unknown userID fails the call.
func (s *FriendService) CheckFriendshipBatchStatus(ctx context.Context, userID string, targetIDs []string) ([]models.FriendshipStatusResult, error) {
	if _, err := resolve(ctx, s.store, userID); err != nil {
		observeFriendOp("batch_status", err)
		return nil, err
	}

	friends, err := s.store.Friends().FriendsAmong(ctx, userID, targetIDs)
	if err != nil {
		observeFriendOp("batch_status", err)
		return nil, err
	}
	sent, received, err := s.store.FriendRequests().PendingAmong(ctx, userID, targetIDs)
	if err != nil {
		observeFriendOp("batch_status", err)
		return nil, err
	}

	results := make([]models.FriendshipStatusResult, 0, len(targetIDs))
	for _, targetID := range targetIDs {
		status := models.FriendshipNone
		switch {
		case friends[targetID]:
			status = models.FriendshipFriends
		case sent[targetID]:
			status = models.FriendshipPending
		case received[targetID]:
			status = models.FriendshipReceived
		}
		results = append(results, models.FriendshipStatusResult{TargetID: targetID, Status: status})
	}

	observeFriendOp("batch_status", nil)
	return results, nil
}

// statusBetween checks, in order: friendship, pending sent, pending received
func statusBetween(ctx context.Context, store repository.Store, userID, otherID string) (models.FriendshipStatus, error) {
	friends, err := store.Friends().Exists(ctx, userID, otherID)
	if err != nil {
		return "", err
	}
	if friends {
		return models.FriendshipFriends, nil
	}

	pending, err := hasPending(ctx, store, userID, otherID)
	if err != nil {
		return "", err
	}
	if pending {
		return models.FriendshipPending, nil
	}

	received, err := hasPending(ctx, store, otherID, userID)
	if err != nil {
		return "", err
	}
	if received {
		return models.FriendshipReceived, nil
	}

	return models.FriendshipNone, nil
}

func hasPending(ctx context.Context, store repository.Store, senderID, receiverID string) (bool, error) {
	_, err := store.FriendRequests().FindPending(ctx, senderID, receiverID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// GetFriendSuggestions returns up to 20 users that are not the user, a friend,
// or on either side of a pending request. Order is unspecified.
func (s *FriendService) GetFriendSuggestions(ctx context.Context, userID string) ([]models.PublicUser, error) {
	if _, err := resolve(ctx, s.store, userID); err != nil {
		observeFriendOp("suggestions", err)
		return nil, err
	}

	exclude := []string{userID}

	friends, err := s.store.Friends().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, f := range friends {
		exclude = append(exclude, f.Other(userID))
	}

	sent, err := s.store.FriendRequests().ListBySender(ctx, userID, models.FriendRequestPending)
	if err != nil {
		return nil, err
	}
	for _, r := range sent {
		exclude = append(exclude, r.ReceiverID)
	}

	received, err := s.store.FriendRequests().ListByReceiver(ctx, userID, models.FriendRequestPending)
	if err != nil {
		return nil, err
	}
	for _, r := range received {
		exclude = append(exclude, r.SenderID)
	}

	candidates, err := s.store.Users().ListActiveExcluding(ctx, exclude, maxSuggestions)
	observeFriendOp("suggestions", err)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.PublicUser, 0, len(candidates))
	for _, u := range candidates {
		suggestions = append(suggestions, u.Public())
	}
	return suggestions, nil
}

// ListFriends returns the friends of a user, skipping soft-deleted accounts
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]FriendEntry, error) {
	friends, err := s.store.Friends().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]FriendEntry, 0, len(friends))
	for _, f := range friends {
		user, err := resolve(ctx, s.store, f.Other(userID))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, FriendEntry{User: user.Public(), Since: f.Since})
	}
	return entries, nil
}

// FriendIDs returns the ids of a user's friends
func (s *FriendService) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	friends, err := s.store.Friends().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(friends))
	for _, f := range friends {
		ids = append(ids, f.Other(userID))
	}
	return ids, nil
}

// ListIncomingRequests returns pending requests received by the user
func (s *FriendService) ListIncomingRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return s.store.FriendRequests().ListByReceiver(ctx, userID, models.FriendRequestPending)
}

// ListOutgoingRequests returns pending requests sent by the user
func (s *FriendService) ListOutgoingRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return s.store.FriendRequests().ListBySender(ctx, userID, models.FriendRequestPending)
}

func (s *FriendService) pendingRequestForReceiver(ctx context.Context, tx repository.Store, actorID, requestID string) (*models.FriendRequest, error) {
	req, err := tx.FriendRequests().GetByID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "friend request "+requestID)
	}
	if actorID != "" && req.ReceiverID != actorID {
		return nil, fmt.Errorf("only the receiver can answer a friend request: %w", ErrForbidden)
	}
	if req.Status != models.FriendRequestPending {
		return nil, fmt.Errorf("friend request is %s: %w", req.Status, ErrInvalidState)
	}
	return req, nil
}

// transition compare-and-sets the status so that only one concurrent caller wins
func (s *FriendService) transition(ctx context.Context, tx repository.Store, req *models.FriendRequest, to models.FriendRequestStatus) error {
	ok, err := tx.FriendRequests().TransitionStatus(ctx, req.ID, models.FriendRequestPending, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("friend request is no longer pending: %w", ErrInvalidState)
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	return nil
}

func (s *FriendService) notify(ctx context.Context, userID string, kind models.NotificationKind, referenceID, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, referenceID, text); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("kind", string(kind)).
			Str("reference_id", referenceID).
			Msg("Failed to notify user")
	}
}
