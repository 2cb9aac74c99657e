package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"social-graph-backend/internal/models"
	"social-graph-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// AvatarUploader issues upload URLs for avatar objects
type AvatarUploader interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Duration, error)
}

// UserService handles registration, authentication and profiles
type UserService struct {
	store     repository.Store
	avatars   AvatarUploader
	jwtSecret string
	tokenTTL  time.Duration

	adminEmails map[string]bool
}

// NewUserService creates a new user service. avatars may be nil, in which
// case avatar uploads are unavailable.
func NewUserService(store repository.Store, avatars AvatarUploader, jwtSecret string, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &UserService{
		store:     store,
		avatars:   avatars,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// SetAdminEmails marks accounts registered with these emails as admins
func (s *UserService) SetAdminEmails(emails []string) {
	s.adminEmails = make(map[string]bool, len(emails))
	for _, e := range emails {
		s.adminEmails[strings.ToLower(strings.TrimSpace(e))] = true
	}
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AvatarUpload describes where the client should upload its avatar
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	AvatarKey string `json:"avatar_key"`
	ExpiresIn int    `json:"expires_in"`
}

// Register creates a new user and returns it with a fresh token
func (s *UserService) Register(ctx context.Context, email, username, password, displayName string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if displayName == "" {
		displayName = username
	}

	email = strings.TrimSpace(email)
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
		DisplayName:  displayName,
		IsAdmin:      s.adminEmails[strings.ToLower(email)],
		CreatedAt:    time.Now(),
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, storeErr(err, "failed to create user")
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and returns a fresh token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	if user.IsBlocked {
		return nil, fmt.Errorf("user is blocked: %w", ErrForbidden)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %v: %w", err, ErrUnauthorized)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims: %w", ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token: %w", ErrUnauthorized)
	}

	return userID, nil
}

// Authenticate validates the token and checks that its user may act
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.ValidateJWT(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("user is blocked: %w", ErrForbidden)
	}
	return user, nil
}

// Resolve returns a live user or ErrNotFound
func (s *UserService) Resolve(ctx context.Context, userID string) (*models.User, error) {
	return resolve(ctx, s.store, userID)
}

// UpdateDisplayName changes the user's display name
func (s *UserService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.User, error) {
	if err := s.store.Users().UpdateDisplayName(ctx, userID, displayName); err != nil {
		return nil, storeErr(err, "failed to update display name")
	}
	return s.Resolve(ctx, userID)
}

// UpdatePushToken sets or clears the device token used for push notifications
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	if pushToken != nil && *pushToken == "" {
		pushToken = nil
	}
	if err := s.store.Users().UpdatePushToken(ctx, userID, pushToken); err != nil {
		return storeErr(err, "failed to update push token")
	}
	return nil
}

// Delete soft-deletes the user
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.store.Users().SoftDelete(ctx, userID); err != nil {
		return storeErr(err, "failed to delete user")
	}
	return nil
}

// SetBlocked blocks or unblocks a user on behalf of an admin
func (s *UserService) SetBlocked(ctx context.Context, adminID, userID string, blocked bool) error {
	admin, err := s.Resolve(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin {
		return fmt.Errorf("admin privileges required: %w", ErrForbidden)
	}
	if adminID == userID {
		return fmt.Errorf("cannot change your own blocked flag: %w", ErrInvalidInput)
	}
	if err := s.store.Users().SetBlocked(ctx, userID, blocked); err != nil {
		return storeErr(err, "failed to update blocked flag")
	}
	return nil
}

// CreateAvatarUpload issues an upload URL and records the new avatar key
func (s *UserService) CreateAvatarUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	if s.avatars == nil {
		return nil, errors.New("avatar storage is not configured")
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), extensionFor(contentType))
	url, ttl, err := s.avatars.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	if err := s.store.Users().UpdateAvatarKey(ctx, userID, &key); err != nil {
		return nil, storeErr(err, "failed to update avatar key")
	}

	return &AvatarUpload{
		UploadURL: url,
		AvatarKey: key,
		ExpiresIn: int(ttl.Seconds()),
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
