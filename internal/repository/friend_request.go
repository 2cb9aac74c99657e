package repository

import (
	"context"
	"fmt"

	"social-graph-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const friendRequestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

// FriendRequestRepository handles database operations for friend requests
type FriendRequestRepository struct {
	db DBTX
}

// NewFriendRequestRepository creates a new friend request repository
func NewFriendRequestRepository(db DBTX) *FriendRequestRepository {
	return &FriendRequestRepository{db: db}
}

// Create creates a new friend request
func (r *FriendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		req.ID, req.SenderID, req.ReceiverID, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pending friend request exists: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// GetByID retrieves a friend request by ID
func (r *FriendRequestRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1`
	req, err := scanFriendRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "friend request", "failed to get friend request")
	}
	return req, nil
}

// ListBySender retrieves requests sent by a user, newest first
func (r *FriendRequestRepository) ListBySender(ctx context.Context, senderID string, status models.FriendRequestStatus) ([]*models.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE sender_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, senderID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list sent friend requests: %w", err)
	}
	return collectFriendRequests(rows)
}

// ListByReceiver retrieves requests received by a user, newest first
func (r *FriendRequestRepository) ListByReceiver(ctx context.Context, receiverID string, status models.FriendRequestStatus) ([]*models.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE receiver_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, receiverID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list received friend requests: %w", err)
	}
	return collectFriendRequests(rows)
}

// FindPending retrieves the pending request from sender to receiver, if any
func (r *FriendRequestRepository) FindPending(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE sender_id = $1 AND receiver_id = $2 AND status = 'PENDING'
		LIMIT 1
	`
	req, err := scanFriendRequest(r.db.QueryRow(ctx, query, senderID, receiverID))
	if err != nil {
		return nil, notFound(err, "pending friend request", "failed to find pending friend request")
	}
	return req, nil
}

// PendingAmong returns which of others have a pending request from userID
// (sent) and which have one to userID (received)
func (r *FriendRequestRepository) PendingAmong(ctx context.Context, userID string, others []string) (map[string]bool, map[string]bool, error) {
	query := `
		SELECT sender_id, receiver_id
		FROM friend_requests
		WHERE status = 'PENDING'
		  AND ((sender_id = $1 AND receiver_id = ANY($2::uuid[]))
		    OR (receiver_id = $1 AND sender_id = ANY($2::uuid[])))
	`
	rows, err := r.db.Query(ctx, query, userID, others)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check pending friend requests: %w", err)
	}
	defer rows.Close()

	sent := make(map[string]bool)
	received := make(map[string]bool)
	for rows.Next() {
		var senderID, receiverID string
		if err := rows.Scan(&senderID, &receiverID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan pending friend request: %w", err)
		}
		if senderID == userID {
			sent[receiverID] = true
		} else {
			received[senderID] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating pending friend requests: %w", err)
	}
	return sent, received, nil
}

// TransitionStatus updates the status only if it still equals from
func (r *FriendRequestRepository) TransitionStatus(ctx context.Context, id string, from, to models.FriendRequestStatus) (bool, error) {
	query := `UPDATE friend_requests SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	result, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update friend request status: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// DeletePending deletes a request only while it is pending
func (r *FriendRequestRepository) DeletePending(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM friend_requests WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete friend request: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanFriendRequest(row rowScanner) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func collectFriendRequests(rows pgx.Rows) ([]*models.FriendRequest, error) {
	defer rows.Close()

	var reqs []*models.FriendRequest
	for rows.Next() {
		req, err := scanFriendRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend requests: %w", err)
	}
	return reqs, nil
}
