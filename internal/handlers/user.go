package handlers

import (
	"net/http"

	"social-graph-backend/internal/middleware"
	"social-graph-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Username    string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=64"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=64"`
}

// PushTokenRequest sets or clears the APNs device token
type PushTokenRequest struct {
	PushToken *string `json:"push_token" validate:"omitempty,max=200"`
}

// AvatarUploadRequest asks for an avatar upload URL
type AvatarUploadRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp"`
}

// Register handles POST /api/v1/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	result, err := h.userService.Register(r.Context(), req.Email, req.Username, req.Password, req.DisplayName)
	if err != nil {
		respondServiceError(w, err, "Failed to create user")
		return
	}

	log.Info().
		Str("user_id", result.User.ID).
		Str("username", result.User.Username).
		Msg("User registered")

	respondJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, middleware.GetUser(r.Context()))
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateDisplayName(ctx, userID, req.DisplayName)
	if err != nil {
		respondServiceError(w, err, "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// DeleteMe handles DELETE /api/v1/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.userService.Delete(ctx, userID); err != nil {
		respondServiceError(w, err, "Failed to delete user")
		return
	}

	log.Info().Str("user_id", userID).Msg("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondServiceError(w, err, "Failed to update push token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateAvatarUpload handles POST /api/v1/users/me/avatar
func (h *UserHandler) CreateAvatarUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AvatarUploadRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	upload, err := h.userService.CreateAvatarUpload(ctx, userID, req.ContentType)
	if err != nil {
		respondServiceError(w, err, "Failed to create avatar upload")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("avatar_key", upload.AvatarKey).
		Msg("Avatar upload URL generated")

	respondJSON(w, http.StatusOK, upload)
}

// GetUser handles GET /api/v1/users/{user_id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if err := validateID("user_id", userID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Resolve(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user.Public())
}

// BlockUser handles POST /api/v1/admin/users/{user_id}/block
func (h *UserHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// UnblockUser handles POST /api/v1/admin/users/{user_id}/unblock
func (h *UserHandler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *UserHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	ctx := r.Context()
	adminID := middleware.GetUserID(ctx)
	userID := chi.URLParam(r, "user_id")
	if err := validateID("user_id", userID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	if err := h.userService.SetBlocked(ctx, adminID, userID, blocked); err != nil {
		respondServiceError(w, err, "Failed to update user")
		return
	}

	log.Info().
		Str("admin_id", adminID).
		Str("user_id", userID).
		Bool("blocked", blocked).
		Msg("User blocked flag changed")

	w.WriteHeader(http.StatusNoContent)
}
