package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	redisDriver "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"lapor-chat/internal/config"
	"lapor-chat/internal/handlers/apiserver"
	appKafka "lapor-chat/internal/kafka"
	kafkahandlers "lapor-chat/internal/kafka/handlers"
	"lapor-chat/internal/logging"
	"lapor-chat/internal/middleware"
	"lapor-chat/internal/notification"
	"lapor-chat/internal/push"
	appRedis "lapor-chat/internal/redis"
	"lapor-chat/internal/services"
	"lapor-chat/internal/storage"
	"lapor-chat/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	// 1. config and logging
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With("component", "apiserver")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := tracing.Init(rootCtx, cfg.Tracing, "apiserver")
	if err != nil {
		logger.Fatalw("init tracing", "error", err)
	}

	// 2. database
	db, err := storage.InitDB(cfg.Database, logger)
	if err != nil {
		logger.Fatalw("init database", "error", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Warnw("database migration failed", "error", err)
	}

	// 3. redis
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(rootCtx).Err(); err != nil {
		logger.Fatalw("connect redis", "addr", cfg.Redis.Addr, "error", err)
	}
	defer redisClient.Close()
	blacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	ownership := appRedis.NewRedisUploadOwnership(redisClient, cfg.Storage.OwnershipTTL)

	// 4. repositories
	userRepo := storage.NewGormUserRepository(db)
	msgRepo := storage.NewGormMessageRepository(db)
	pushTokenRepo := storage.NewGormPushTokenRepository(db)

	// 5. kafka producer
	producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatalw("create kafka producer", "error", err)
	}
	defer producer.Close()
	publisher := appKafka.NewEventPublisher(producer, cfg.Kafka)

	// 6. services
	authService := services.NewAuthService(userRepo, cfg.Auth)
	userService := services.NewUserService(userRepo)
	messageService := services.NewMessageService(msgRepo, publisher, cfg.Chat, logger)
	pushTokenService := services.NewPushTokenService(pushTokenRepo)

	storageService, err := storage.NewStorageService(rootCtx, cfg.Storage, cfg.APIServer.PublicURL, logger)
	if err != nil {
		logger.Fatalw("init blob storage", "type", cfg.Storage.Type, "error", err)
	}

	// 7. routes
	router := apiserver.Router{
		Auth:      apiserver.NewAuthHandler(authService, userService, blacklist, logger),
		Messages:  apiserver.NewMessageHandler(messageService, logger),
		Uploads:   apiserver.NewUploadHandler(storageService, ownership, cfg.Storage, logger),
		PushToken: apiserver.NewPushTokenHandler(pushTokenService, logger),
		Blobs:     apiserver.NewBlobHandler(storageService, logger),
		AuthMW:    middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, blacklist),
	}
	if cfg.RateLimit.Enabled {
		router.RateLimit = middleware.NewRateLimiter(rootCtx, cfg.RateLimit, logger).Middleware
	}
	r := router.Build()

	// 8. push dispatcher: consumes appended-message events and notifies admins
	sender := push.NewExpoClient(cfg.Push, &http.Client{Timeout: cfg.Push.Timeout}, logger)
	dispatcher := notification.NewDispatcher(userRepo, pushTokenRepo, sender, cfg.Push, logger)
	notifyLogic := kafkahandlers.NewNotificationLogic(dispatcher, logger)

	notifyConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatalw("create notification consumer", "error", err)
	}

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		topics := []string{cfg.Kafka.NotificationsTopic}
		logger.Infow("notification consumer started", "topic", cfg.Kafka.NotificationsTopic, "group", cfg.Kafka.NotificationConsumerGroup)
		err := notifyConsumer.Consume(rootCtx, topics, cfg.Kafka.NotificationConsumerGroup, notifyLogic.HandleMessageEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorw("notification consumer stopped", "error", err)
		}
	}()

	// 9. http server with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	handler := otelhttp.NewHandler(handlers.CORS(corsOptions...)(r), "apiserver")

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infow("api server listening", "addr", serverAddr, "storage", cfg.Storage.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("api server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down api server")

	stop()
	consumers.Wait()
	notifyConsumer.Close()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorw("api server forced to close", "error", err)
	}
	if err := shutdownTracing(ctxShutdown); err != nil {
		logger.Warnw("flush traces", "error", err)
	}
	logger.Info("api server stopped")
}
