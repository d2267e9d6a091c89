package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moment-backend/internal/cdn"
	"moment-backend/internal/config"
	"moment-backend/internal/handlers"
	"moment-backend/internal/middleware"
	"moment-backend/internal/models"
	"moment-backend/internal/push"
	"moment-backend/internal/repository"
	"moment-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	publicationRepo := repository.NewPublicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// External collaborators
	imageStore, err := cdn.NewS3Store(
		context.Background(),
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKey,
		cfg.S3.SecretKey,
		cfg.S3.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image store")
	}

	dispatcher, err := push.NewAPNSDispatcher(
		cfg.APNS.AuthKeyPath,
		cfg.APNS.KeyID,
		cfg.APNS.TeamID,
		cfg.APNS.Topic,
		cfg.APNS.Production,
		userRepo,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push dispatcher")
	}

	wsHub := services.NewWSHub()

	// Initialize services
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, wsHub)
	publicationService := services.NewPublicationService(
		publicationRepo,
		notificationRepo,
		commentRepo,
		friendshipService,
		imageStore,
		wsHub,
	)
	notificationService := services.NewNotificationService(notificationRepo, dispatcher)
	commentService := services.NewCommentService(commentRepo, publicationRepo, wsHub)
	userService := services.NewUserService(
		userRepo,
		cfg.JWT.Secret,
		imageStore,
		publicationService,
		commentService,
		friendshipService,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService)
	publicationHandler := handlers.NewPublicationHandler(publicationService)
	commentHandler := handlers.NewCommentHandler(commentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/users", userHandler.List)
			r.Get("/users/{id}", userHandler.Get)
			r.Patch("/users/{id}", userHandler.Update)
			r.Put("/users/{id}/profile-picture", userHandler.UpdateProfilePicture)
			r.Delete("/users/{id}", userHandler.Delete)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)

			r.Get("/friends", friendshipHandler.List)
			r.Post("/friends", friendshipHandler.Create)
			r.Patch("/friends/{friendship_id}", friendshipHandler.Respond)
			r.Delete("/friends/{friendship_id}", friendshipHandler.Delete)

			r.Get("/publications", publicationHandler.List)
			r.Post("/publications", publicationHandler.Create)
			r.Get("/publications/{id}", publicationHandler.Get)
			r.Get("/publications/{id}/comments", commentHandler.List)
			r.Post("/publications/{id}/comments", commentHandler.Create)
			r.Delete("/publications/{id}/comments/{comment_id}", commentHandler.Delete)

			r.Get("/notifications", notificationHandler.List)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Delete("/publications/{id}", publicationHandler.Delete)
				r.Post("/admin/notifications", notificationHandler.Send)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
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
