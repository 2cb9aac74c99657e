package repository

import (
	"context"
	"fmt"

	"social-graph-backend/internal/models"
)

// FriendRepository handles database operations for friendships.
// Every method normalises the pair so that user1_id < user2_id.
type FriendRepository struct {
	db DBTX
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db DBTX) *FriendRepository {
	return &FriendRepository{db: db}
}

// Exists checks whether two users are friends
func (r *FriendRepository) Exists(ctx context.Context, user1ID, user2ID string) (bool, error) {
	a, b := models.OrderedPair(user1ID, user2ID)
	query := `SELECT EXISTS(SELECT 1 FROM friends WHERE user1_id = $1 AND user2_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// Create inserts a friendship, returning ErrDuplicate if the pair already exists
func (r *FriendRepository) Create(ctx context.Context, friend *models.Friend) error {
	friend.User1ID, friend.User2ID = models.OrderedPair(friend.User1ID, friend.User2ID)
	query := `
		INSERT INTO friends (id, user1_id, user2_id, since)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, friend.ID, friend.User1ID, friend.User2ID, friend.Since)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friendship exists: %w", ErrDuplicate)
	}
	return nil
}

// FindBetween retrieves the friendship between two users
func (r *FriendRepository) FindBetween(ctx context.Context, user1ID, user2ID string) (*models.Friend, error) {
	a, b := models.OrderedPair(user1ID, user2ID)
	query := `SELECT id, user1_id, user2_id, since FROM friends WHERE user1_id = $1 AND user2_id = $2`
	var f models.Friend
	err := r.db.QueryRow(ctx, query, a, b).Scan(&f.ID, &f.User1ID, &f.User2ID, &f.Since)
	if err != nil {
		return nil, notFound(err, "friendship", "failed to get friendship")
	}
	return &f, nil
}

// Delete removes the friendship between two users and reports whether one existed
func (r *FriendRepository) Delete(ctx context.Context, user1ID, user2ID string) (bool, error) {
	a, b := models.OrderedPair(user1ID, user2ID)
	result, err := r.db.Exec(ctx, `DELETE FROM friends WHERE user1_id = $1 AND user2_id = $2`, a, b)
	if err != nil {
		return false, fmt.Errorf("failed to delete friendship: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListForUser retrieves all friendships of a user, newest first
func (r *FriendRepository) ListForUser(ctx context.Context, userID string) ([]*models.Friend, error) {
	query := `
		SELECT id, user1_id, user2_id, since
		FROM friends
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY since DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.User1ID, &f.User2ID, &f.Since); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return friends, nil
}

// FriendsAmong returns the subset of others that are friends with userID
func (r *FriendRepository) FriendsAmong(ctx context.Context, userID string, others []string) (map[string]bool, error) {
	query := `
		SELECT CASE WHEN user1_id = $1 THEN user2_id ELSE user1_id END
		FROM friends
		WHERE (user1_id = $1 AND user2_id = ANY($2::uuid[]))
		   OR (user2_id = $1 AND user1_id = ANY($2::uuid[]))
	`
	rows, err := r.db.Query(ctx, query, userID, others)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendships: %w", err)
	}
	defer rows.Close()

	friends := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		friends[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendships: %w", err)
	}
	return friends, nil
}
