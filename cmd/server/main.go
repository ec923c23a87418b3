package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/vedran77/circle/internal/config"
	"github.com/vedran77/circle/internal/database"
	"github.com/vedran77/circle/internal/logging"
	"github.com/vedran77/circle/internal/mail"
	postgresrepo "github.com/vedran77/circle/internal/repository/postgres"
	"github.com/vedran77/circle/internal/repository/redisstore"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/storage"
	"github.com/vedran77/circle/internal/transport/http/handlers"
	"github.com/vedran77/circle/internal/transport/http/middleware"
	"github.com/vedran77/circle/internal/transport/ws"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if envErr != nil {
		log.Warn("no .env file loaded", "err", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("connecting to database", "err", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("migrating database", "err", err)
	}
	log.Info("Connected to database")

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatal("connecting to redis", "err", err)
	}
	defer rdb.Close()
	log.Info("Connected to redis")

	uploads, err := storage.NewUploads(cfg.UploadsDir)
	if err != nil {
		log.Fatal("preparing uploads", "err", err)
	}
	mailer := mail.New(cfg)

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	followRepo := postgresrepo.NewFollowRepo(pool)
	postRepo := postgresrepo.NewPostRepo(pool)
	commentRepo := postgresrepo.NewCommentRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	notificationRepo := postgresrepo.NewNotificationRepo(pool)
	activityRepo := postgresrepo.NewActivityRepo(pool)
	resetRepo := postgresrepo.NewResetTokenRepo(pool)
	otpStore := redisstore.NewOTPStore(rdb)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)
	notifier := ws.NewHubNotifier(hub)

	// Services
	authService := service.NewAuthService(userRepo, resetRepo, otpStore, mailer, service.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		PublicURL: cfg.PublicURL,
	})
	notificationService := service.NewNotificationService(notificationRepo, userRepo, mailer)
	feedService := service.NewFeedService(activityRepo, followRepo, userRepo, postRepo, commentRepo)
	userService := service.NewUserService(userRepo, followRepo, notificationService, feedService)
	postService := service.NewPostService(postRepo, commentRepo, userRepo, followRepo, notificationService, feedService)
	convService := service.NewConversationService(convRepo, messageRepo, userRepo, followRepo)
	convService.SetNotifier(notifier)
	messageService := service.NewMessageService(messageRepo, convRepo, notificationService)
	messageService.SetNotifier(notifier)
	adminService := service.NewAdminService(userRepo, postRepo)

	hub.SetTypingHandler(func(ctx context.Context, userID, convID uuid.UUID, typing bool) error {
		_, err := convService.Typing(ctx, userID, convID, service.TypingInput{Typing: typing})
		return err
	})

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET "+storage.URLPrefix, http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(uploads.Dir()))))
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret, cfg.CORSOrigin))

	handlers.Register(mux, handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Users:         handlers.NewUserHandler(userService, uploads),
		Posts:         handlers.NewPostHandler(postService),
		Notifications: handlers.NewNotificationHandler(notificationService, feedService),
		Uploads:       handlers.NewUploadHandler(uploads),
		Conversations: handlers.NewConversationHandler(convService),
		Messages:      handlers.NewMessageHandler(messageService),
		Admin:         handlers.NewAdminHandler(adminService),
	}, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           middleware.Recover(middleware.Logger(middleware.CORS(cfg.CORSOrigin)(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
