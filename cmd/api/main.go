package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"goldmarket/internal/adapter/api"
	"goldmarket/internal/adapter/api/handler"
	apimiddleware "goldmarket/internal/adapter/api/middleware"
	"goldmarket/internal/adapter/api/router"
	"goldmarket/internal/adapter/repository"
	"goldmarket/internal/domain/service"
	"goldmarket/internal/infrastructure/dedupe"
	"goldmarket/internal/infrastructure/firebase"
	"goldmarket/internal/infrastructure/metrics"
	"goldmarket/internal/infrastructure/ratelimit"
	"goldmarket/internal/infrastructure/storage"
	"goldmarket/internal/infrastructure/websocket"
	"goldmarket/internal/usecase"
	"goldmarket/pkg/config"
	"goldmarket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.Base()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Environment)
	logger.SetBase(log)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt, err := credentials(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("no Firebase credentials")
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject, StorageBucket: cfg.StorageBucket}, opt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase Auth")
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase Messaging")
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Firestore client")
	}
	defer firestoreClient.Close()

	var fileService service.FileUploadService
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Cloud Storage")
		}
		defer storageClient.Close()
		fileService = storageClient
	} else {
		log.Warn().Msg("STORAGE_BUCKET not set, image uploads are disabled")
	}

	healthChecks := map[string]handler.HealthCheck{
		"firestore": func(ctx context.Context) error {
			_, err := firestoreClient.Collection("chats").Limit(1).Documents(ctx).GetAll()
			return err
		},
	}

	var seen dedupe.Store = dedupe.NoopStore{}
	if cfg.RedisURL != "" {
		redisClient, err := dedupe.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, trigger redeliveries will not be deduplicated")
		} else {
			defer redisClient.Close()
			seen = dedupe.NewRedisStore(redisClient, time.Duration(cfg.TriggerDedupeTTLSeconds)*time.Second)
			healthChecks["redis"] = func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}
		}
	}

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	exchangeRepo := repository.NewFirestoreGoldExchangeRepository(firestoreClient)
	fileMetadataRepo := repository.NewFirestoreFileMetadataRepository(firestoreClient)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)
	pushTransport := firebase.NewFirebaseMessagingClient(messagingClient)

	tokenUseCase := usecase.NewTokenUseCase(userRepo, rateLimiter, log)
	notificationUseCase := usecase.NewNotificationUseCase(tokenUseCase, pushTransport, cfg.PushBatchSize, log)
	triggerUseCase := usecase.NewTriggerUseCase(chatRepo, notificationUseCase, seen, log)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, fileService, rateLimiter, log)
	exchangeUseCase := usecase.NewExchangeUseCase(exchangeRepo, fileService, log)

	wsManager := websocket.NewManager()

	handlers := router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase),
		File:      handler.NewFileHandler(chatUseCase, exchangeUseCase, fileMetadataRepo, cfg.MaxUploadBytes),
		WebSocket: handler.NewWebSocketHandler(ctx, wsManager, chatUseCase, log),
		User:      handler.NewUserHandler(userRepo, tokenUseCase),
		Exchange:  handler.NewExchangeHandler(exchangeUseCase),
		Trigger:   handler.NewTriggerHandler(triggerUseCase, log),
		Health:    handler.NewHealthHandler(healthChecks),
	}
	if cfg.IsDevelopment() {
		handlers.DevToken = handler.NewDevTokenHandler(firebaseAuthClient)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(apimiddleware.RequestLogger(logger.Component("http")))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("10M"))

	router.Setup(e, handlers,
		apimiddleware.NewAuthMiddleware(firebaseAuthClient),
		apimiddleware.NewAdminMiddleware(userRepo),
		router.Options{
			Environment:   cfg.Environment,
			TriggerSecret: cfg.TriggerSecret,
			RateLimiter:   rateLimiter,
		})

	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("starting server")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	wsManager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// credentials prefers inline service account JSON (production), then a key
// file, then application default credentials.
func credentials(cfg *config.Config, log zerolog.Logger) (option.ClientOption, error) {
	if cfg.ServiceAccountJSON != "" {
		log.Info().Msg("using Firebase service account from environment")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)), nil
	}

	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.ServiceAccountPath).Msg("using Firebase service account file")
		return option.WithCredentialsFile(cfg.ServiceAccountPath), nil
	}

	log.Info().Msg("using application default credentials")
	return option.WithScopes("https://www.googleapis.com/auth/cloud-platform"), nil
}
