package handlers

import (
	"net/http"

	"social-graph-backend/internal/middleware"
	"social-graph-backend/internal/models"
	"social-graph-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// FriendHandler handles friend-related HTTP requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// SendFriendRequestRequest is the body of POST /friends/requests
type SendFriendRequestRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
}

// BatchStatusRequest is the body of POST /friends/status
type BatchStatusRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,max=100,dive,uuid"`
}

// BatchStatusResponse wraps the per-target statuses
type BatchStatusResponse struct {
	Statuses []models.FriendshipStatusResult `json:"statuses"`
}

// StatusResponse is the body of GET /friends/status/{user_id}
type StatusResponse struct {
	UserID string                  `json:"user_id"`
	Status models.FriendshipStatus `json:"status"`
}

// RemoveFriendResponse reports whether a friendship was removed
type RemoveFriendResponse struct {
	Removed bool `json:"removed"`
}

// SendFriendRequest handles POST /api/v1/friends/requests
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SendFriendRequestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	fr, err := h.friendService.SendFriendRequest(ctx, userID, req.ReceiverID)
	if err != nil {
		respondServiceError(w, err, "Failed to send friend request")
		return
	}

	respondJSON(w, http.StatusCreated, fr)
}

// AcceptFriendRequest handles POST /api/v1/friends/requests/{request_id}/accept
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "request_id")
	if err := validateID("request_id", requestID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	friend, err := h.friendService.AcceptFriendRequest(ctx, middleware.GetUserID(ctx), requestID)
	if err != nil {
		respondServiceError(w, err, "Failed to accept friend request")
		return
	}

	respondJSON(w, http.StatusOK, friend)
}

// RejectFriendRequest handles POST /api/v1/friends/requests/{request_id}/reject
func (h *FriendHandler) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "request_id")
	if err := validateID("request_id", requestID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	fr, err := h.friendService.RejectFriendRequest(ctx, middleware.GetUserID(ctx), requestID)
	if err != nil {
		respondServiceError(w, err, "Failed to reject friend request")
		return
	}

	respondJSON(w, http.StatusOK, fr)
}

// DeleteFriendRequest handles DELETE /api/v1/friends/requests/{request_id}
func (h *FriendHandler) DeleteFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "request_id")
	if err := validateID("request_id", requestID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	if err := h.friendService.DeleteFriendRequest(ctx, middleware.GetUserID(ctx), requestID); err != nil {
		respondServiceError(w, err, "Failed to delete friend request")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListIncomingRequests handles GET /api/v1/friends/requests/incoming
func (h *FriendHandler) ListIncomingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.friendService.ListIncomingRequests(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to list friend requests")
		return
	}
	if reqs == nil {
		reqs = []*models.FriendRequest{}
	}
	respondJSON(w, http.StatusOK, reqs)
}

// ListOutgoingRequests handles GET /api/v1/friends/requests/outgoing
func (h *FriendHandler) ListOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.friendService.ListOutgoingRequests(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to list friend requests")
		return
	}
	if reqs == nil {
		reqs = []*models.FriendRequest{}
	}
	respondJSON(w, http.StatusOK, reqs)
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	friends, err := h.friendService.ListFriends(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to list friends")
		return
	}
	respondJSON(w, http.StatusOK, friends)
}

// RemoveFriend handles DELETE /api/v1/friends/{user_id}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	otherID := chi.URLParam(r, "user_id")
	if err := validateID("user_id", otherID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	removed, err := h.friendService.RemoveFriendship(ctx, middleware.GetUserID(ctx), otherID)
	if err != nil {
		respondServiceError(w, err, "Failed to remove friend")
		return
	}

	respondJSON(w, http.StatusOK, RemoveFriendResponse{Removed: removed})
}

// GetStatus handles GET /api/v1/friends/status/{user_id}
func (h *FriendHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	otherID := chi.URLParam(r, "user_id")
	if err := validateID("user_id", otherID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	status, err := h.friendService.CheckFriendshipStatus(ctx, middleware.GetUserID(ctx), otherID)
	if err != nil {
		respondServiceError(w, err, "Failed to check friendship status")
		return
	}

	respondJSON(w, http.StatusOK, StatusResponse{UserID: otherID, Status: status})
}

// GetBatchStatus handles POST /api/v1/friends/status
func (h *FriendHandler) GetBatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BatchStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	statuses, err := h.friendService.CheckFriendshipBatchStatus(ctx, middleware.GetUserID(ctx), req.UserIDs)
	if err != nil {
		respondServiceError(w, err, "Failed to check friendship status")
		return
	}

	respondJSON(w, http.StatusOK, BatchStatusResponse{Statuses: statuses})
}

// GetSuggestions handles GET /api/v1/friends/suggestions
func (h *FriendHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suggestions, err := h.friendService.GetFriendSuggestions(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to get friend suggestions")
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}
