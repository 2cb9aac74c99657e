package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-graph-backend/internal/config"
	"social-graph-backend/internal/handlers"
	"social-graph-backend/internal/middleware"
	"social-graph-backend/internal/repository"
	"social-graph-backend/internal/repository/memory"
	"social-graph-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Run: func(cmd *cobra.Command, args []string) {
		Run(loadConfig())
	},
}

// Run wires the application and serves until SIGINT or SIGTERM
func Run(cfg *config.Config) {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	var avatars services.AvatarUploader
	if cfg.AWS.S3Bucket != "" {
		storage, err := services.NewAvatarStorage(ctx,
			cfg.AWS.Region,
			cfg.AWS.S3Bucket,
			cfg.AWS.AccessKey,
			cfg.AWS.SecretKey,
			cfg.AWS.Endpoint,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create avatar storage")
		}
		avatars = storage
	} else {
		log.Warn().Msg("aws.s3_bucket not set, avatar uploads disabled")
	}

	var push services.PushSender
	if cfg.APNs.KeyPath != "" {
		pusher, err := services.NewAPNsPusher(
			cfg.APNs.KeyPath,
			cfg.APNs.KeyID,
			cfg.APNs.TeamID,
			cfg.APNs.Topic,
			cfg.APNs.Production,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		push = pusher
	} else {
		log.Warn().Msg("apns.key_path not set, push notifications disabled")
	}

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(store, avatars, cfg.JWT.Secret, cfg.JWT.TokenTTL)
	userService.SetAdminEmails(cfg.Admin.Emails)
	notificationService := services.NewNotificationService(store, wsHub, push)
	friendService := services.NewFriendService(store, notificationService)
	messageService := services.NewMessageService(store, friendService, wsHub, notificationService)

	router := handlers.NewRouter(handlers.RouterDeps{
		UserService:         userService,
		FriendService:       friendService,
		NotificationService: notificationService,
		MessageService:      messageService,
		Hub:                 wsHub,
		FriendRequestLimit:  middleware.NewRateLimiter(cfg.Limits.FriendRequestsPerMinute, cfg.Limits.FriendRequestBurst),
		AuthLimit:           middleware.NewRateLimiter(cfg.Limits.AuthPerMinute, cfg.Limits.AuthPerMinute),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not closed by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	notificationService.Wait()

	log.Info().Msg("Server exited")
}

// openStore connects to the configured backend and returns a close func
func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return memory.New(), func() {}, nil
	}

	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	return repository.NewPgStore(db), db.Close, nil
}
