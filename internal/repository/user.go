package repository

import (
	"context"
	"fmt"

	"social-graph-backend/internal/models"
)

const userColumns = `id, email, username, password_hash, display_name, avatar_key, push_token,
		is_admin, is_blocked, deleted_at, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, display_name, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.DisplayName, user.IsAdmin, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email or username taken: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID, including soft-deleted users
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "user", "failed to get user")
	}
	return user, nil
}

// GetByEmail retrieves a live user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err, "user", "failed to get user by email")
	}
	return user, nil
}

// UpdateDisplayName updates the display name for a user
func (r *UserRepository) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	return r.update(ctx, `UPDATE users SET display_name = $1 WHERE id = $2 AND deleted_at IS NULL`,
		"display name", displayName, userID)
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return r.update(ctx, `UPDATE users SET push_token = $1 WHERE id = $2 AND deleted_at IS NULL`,
		"push token", pushToken, userID)
}

// UpdateAvatarKey updates the S3 key of the user's avatar
func (r *UserRepository) UpdateAvatarKey(ctx context.Context, userID string, avatarKey *string) error {
	return r.update(ctx, `UPDATE users SET avatar_key = $1 WHERE id = $2 AND deleted_at IS NULL`,
		"avatar key", avatarKey, userID)
}

// SetBlocked sets the blocked flag for a user
func (r *UserRepository) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	return r.update(ctx, `UPDATE users SET is_blocked = $1 WHERE id = $2 AND deleted_at IS NULL`,
		"blocked flag", blocked, userID)
}

// SoftDelete marks a user as deleted and clears their push token
func (r *UserRepository) SoftDelete(ctx context.Context, userID string) error {
	return r.update(ctx, `UPDATE users SET deleted_at = now(), push_token = NULL WHERE id = $1 AND deleted_at IS NULL`,
		"deleted_at", userID)
}

// ListActiveExcluding returns live, unblocked users whose id is not in exclude
func (r *UserRepository) ListActiveExcluding(ctx context.Context, exclude []string, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL AND NOT is_blocked AND id <> ALL($1::uuid[])
		LIMIT $2
	`
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := r.db.Query(ctx, query, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) update(ctx context.Context, query, field string, args ...any) error {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.DisplayName,
		&user.AvatarKey, &user.PushToken, &user.IsAdmin, &user.IsBlocked, &user.DeletedAt, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
