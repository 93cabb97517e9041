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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisDriver "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"lapor-chat/internal/config"
	"lapor-chat/internal/handlers/chatserver"
	appKafka "lapor-chat/internal/kafka"
	kafkahandlers "lapor-chat/internal/kafka/handlers"
	"lapor-chat/internal/logging"
	appRedis "lapor-chat/internal/redis"
	"lapor-chat/internal/services"
	"lapor-chat/internal/storage"
	"lapor-chat/internal/tracing"
	"lapor-chat/internal/websocket"
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
	logger = logger.With("component", "chatserver")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := tracing.Init(rootCtx, cfg.Tracing, "chatserver")
	if err != nil {
		logger.Fatalw("init tracing", "error", err)
	}

	// 2. database, read side only
	db, err := storage.InitDB(cfg.Database, logger)
	if err != nil {
		logger.Fatalw("init database", "error", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Fatalw("migrate database", "error", err)
	}
	messageService := services.NewMessageService(storage.NewGormMessageRepository(db), nil, cfg.Chat, logger)

	// 3. redis, for revoked tokens
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

	// 4. hub
	hub := websocket.NewHub(messageService.Snapshot, cfg.Chat.SnapshotTimeout, logger)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(rootCtx)
	}()

	// 5. every instance sees every change, so each one gets its own group
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = fmt.Sprintf("pid%d", os.Getpid())
	}
	groupID := cfg.Kafka.ConsumerGroup + "-" + hostname
	refreshLogic := kafkahandlers.NewSnapshotRefreshLogic(hub, logger)

	eventConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatalw("create message event consumer", "error", err)
	}

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		topics := []string{cfg.Kafka.MessageEventsTopic}
		err := eventConsumer.Consume(rootCtx, topics, groupID, refreshLogic.HandleMessageEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorw("message event consumer stopped", "error", err)
		}
	}()

	// 6. routes
	wsHandler := chatserver.NewWebSocketHandler(hub, blacklist, cfg, logger)

	r := mux.NewRouter()
	r.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// 7. http server with graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        otelhttp.NewHandler(r, "chatserver"),
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infow("chat server listening", "addr", serverAddr, "path", cfg.Server.WebSocketPath, "group", groupID)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("chat server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down chat server")

	stop()
	consumers.Wait()
	eventConsumer.Close()
	<-hubDone

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Errorw("chat server forced to close", "error", err)
	}
	if err := shutdownTracing(ctxShutdown); err != nil {
		logger.Warnw("flush traces", "error", err)
	}
	logger.Info("chat server stopped")
}
