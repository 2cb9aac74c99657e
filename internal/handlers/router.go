package handlers

import (
	"net/http"

	"social-graph-backend/internal/middleware"
	"social-graph-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps holds everything the router needs
type RouterDeps struct {
	UserService         *services.UserService
	FriendService       *services.FriendService
	NotificationService *services.NotificationService
	MessageService      *services.MessageService
	Hub                 *services.WSHub
	FriendRequestLimit  *middleware.RateLimiter
	AuthLimit           *middleware.RateLimiter
}

// NewRouter builds the HTTP routes
func NewRouter(deps RouterDeps) http.Handler {
	userHandler := NewUserHandler(deps.UserService)
	friendHandler := NewFriendHandler(deps.FriendService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	messageHandler := NewMessageHandler(deps.MessageService)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.UserService, deps.FriendService, deps.MessageService)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			if deps.AuthLimit != nil {
				r.Use(deps.AuthLimit.Middleware)
			}
			r.Post("/auth/register", userHandler.Register)
			r.Post("/auth/login", userHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.UserService))

			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Delete("/users/me", userHandler.DeleteMe)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			r.Post("/users/me/avatar", userHandler.CreateAvatarUpload)
			r.Get("/users/{user_id}", userHandler.GetUser)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/users/{user_id}/block", userHandler.BlockUser)
				r.Post("/users/{user_id}/unblock", userHandler.UnblockUser)
			})

			r.Route("/friends", func(r chi.Router) {
				r.Get("/", friendHandler.ListFriends)
				r.Get("/suggestions", friendHandler.GetSuggestions)
				r.Get("/status/{user_id}", friendHandler.GetStatus)
				r.Post("/status", friendHandler.GetBatchStatus)
				r.Delete("/{user_id}", friendHandler.RemoveFriend)

				r.Route("/requests", func(r chi.Router) {
					r.With(limit(deps.FriendRequestLimit)).Post("/", friendHandler.SendFriendRequest)
					r.Get("/incoming", friendHandler.ListIncomingRequests)
					r.Get("/outgoing", friendHandler.ListOutgoingRequests)
					r.Post("/{request_id}/accept", friendHandler.AcceptFriendRequest)
					r.Post("/{request_id}/reject", friendHandler.RejectFriendRequest)
					r.Delete("/{request_id}", friendHandler.DeleteFriendRequest)
				})
			})

			r.Get("/notifications", notificationHandler.ListNotifications)
			r.Post("/notifications/{notification_id}/read", notificationHandler.MarkRead)

			r.Get("/messages/{user_id}", messageHandler.GetHistory)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

func limit(l *middleware.RateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
