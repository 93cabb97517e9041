package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Delete policies for CHAT.DELETE_POLICY.
const (
	DeletePolicyAny          = "any"
	DeletePolicyOwnerOrAdmin = "owner_or_admin"
)

// Config holds all configuration for the application.
// Values come from config.yaml, then environment variables ("." becomes "_").
type Config struct {
	AppName    string          `mapstructure:"APP_NAME"`
	AppVersion string          `mapstructure:"APP_VERSION"`
	Log        LogConfig       `mapstructure:"LOG"`
	Server     ServerConfig    `mapstructure:"SERVER"` // chat server
	APIServer  APIServerConfig `mapstructure:"API_SERVER"`
	Kafka      KafkaConfig     `mapstructure:"KAFKA"`
	Database   DatabaseConfig  `mapstructure:"DATABASE"`
	Storage    StorageConfig   `mapstructure:"STORAGE"`
	Auth       AuthConfig      `mapstructure:"AUTH"`
	WebSocket  WebSocketConfig `mapstructure:"WEBSOCKET"`
	Redis      RedisConfig     `mapstructure:"REDIS"`
	Chat       ChatConfig      `mapstructure:"CHAT"`
	Push       PushConfig      `mapstructure:"PUSH"`
	RateLimit  RateLimitConfig `mapstructure:"RATE_LIMIT"`
	Tracing    TracingConfig   `mapstructure:"TRACING"`
	Client     ClientConfig    `mapstructure:"CLIENT"`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level       string `mapstructure:"LEVEL"`
	Development bool   `mapstructure:"DEVELOPMENT"`
}

// ServerConfig holds configuration for the chat (WebSocket) server.
type ServerConfig struct {
	Host           string        `mapstructure:"HOST"`
	Port           string        `mapstructure:"PORT"`
	WebSocketPath  string        `mapstructure:"WEBSOCKET_PATH"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"MAX_HEADER_BYTES"`
}

// APIServerConfig holds configuration for the REST API server.
type APIServerConfig struct {
	Host      string     `mapstructure:"HOST"`
	Port      string     `mapstructure:"PORT"`
	PublicURL string     `mapstructure:"PUBLIC_URL"` // prefix for local blob URLs
	CORS      CORSConfig `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Brokers                   []string `mapstructure:"BROKERS"`
	ClientID                  string   `mapstructure:"CLIENT_ID"`
	Protocol                  string   `mapstructure:"PROTOCOL"`
	MessageEventsTopic        string   `mapstructure:"MESSAGE_EVENTS_TOPIC"` // appends and deletes, consumed by every chat server
	NotificationsTopic        string   `mapstructure:"NOTIFICATIONS_TOPIC"`  // appends only, consumed by the push dispatcher
	ConsumerGroup             string   `mapstructure:"CONSUMER_GROUP"`       // chat server prefix, suffixed per instance
	NotificationConsumerGroup string   `mapstructure:"NOTIFICATION_CONSUMER_GROUP"`
}

// DatabaseConfig holds configuration for the database.
type DatabaseConfig struct {
	Type     string `mapstructure:"TYPE"` // "postgres" or "sqlite"
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"SSL_MODE"`
	Path     string `mapstructure:"PATH"` // sqlite file
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// StorageConfig holds configuration for blob storage.
type StorageConfig struct {
	Type          string        `mapstructure:"TYPE"` // "local", "minio", "s3"
	LocalPath     string        `mapstructure:"LOCAL_PATH"`
	KeyPrefix     string        `mapstructure:"KEY_PREFIX"`
	MaxFileSizeMB int64         `mapstructure:"MAX_FILE_SIZE_MB"`
	OwnershipTTL  time.Duration `mapstructure:"OWNERSHIP_TTL"`
	S3            S3Config      `mapstructure:"S3"`
	MinIO         MinIOConfig   `mapstructure:"MINIO"`
}

// S3Config holds configuration for AWS S3.
type S3Config struct {
	BucketName string        `mapstructure:"BUCKET_NAME"`
	Region     string        `mapstructure:"REGION"`
	PublicRead bool          `mapstructure:"PUBLIC_READ"`
	PresignTTL time.Duration `mapstructure:"PRESIGN_TTL"`
}

// MinIOConfig holds configuration for a MinIO (S3 compatible) bucket.
type MinIOConfig struct {
	Endpoint   string        `mapstructure:"ENDPOINT"`
	AccessKey  string        `mapstructure:"ACCESS_KEY"`
	SecretKey  string        `mapstructure:"SECRET_KEY"`
	UseSSL     bool          `mapstructure:"USE_SSL"`
	Bucket     string        `mapstructure:"BUCKET"`
	PresignTTL time.Duration `mapstructure:"PRESIGN_TTL"`
}

// AuthConfig holds configuration for session tokens.
type AuthConfig struct {
	JWTSecretKey string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry    time.Duration `mapstructure:"JWT_EXPIRY"`
	Issuer       string        `mapstructure:"ISSUER"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
}

// ChatConfig holds room-level behaviour.
type ChatConfig struct {
	DeletePolicy    string        `mapstructure:"DELETE_POLICY"`
	SnapshotTimeout time.Duration `mapstructure:"SNAPSHOT_TIMEOUT"`
}

// PushConfig configures the push gateway client.
type PushConfig struct {
	GatewayURL string        `mapstructure:"GATEWAY_URL"`
	Title      string        `mapstructure:"TITLE"`
	Sound      string        `mapstructure:"SOUND"`
	Timeout    time.Duration `mapstructure:"TIMEOUT"`
}

// RateLimitConfig configures the per-caller API limiter.
type RateLimitConfig struct {
	Enabled   bool `mapstructure:"ENABLED"`
	PerMinute int  `mapstructure:"PER_MINUTE"`
	Burst     int  `mapstructure:"BURST"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"ENABLED"`
	Endpoint    string `mapstructure:"ENDPOINT"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Environment string `mapstructure:"ENVIRONMENT"`
}

// ClientConfig configures the terminal client. The device fields stand in
// for the sensors a phone would have: an empty position means location
// permission is denied, an empty push token means notifications are.
type ClientConfig struct {
	APIURL    string        `mapstructure:"API_URL"`
	WSURL     string        `mapstructure:"WS_URL"`
	Timeout   time.Duration `mapstructure:"TIMEOUT"`
	Position  string        `mapstructure:"POSITION"` // "lat,lng"
	PushToken string        `mapstructure:"PUSH_TOKEN"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	v.SetDefault("APP_NAME", "lapor-chat")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.DEVELOPMENT", false)

	// Chat server
	v.SetDefault("SERVER.HOST", "0.0.0.0")
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.WEBSOCKET_PATH", "/ws/chat")
	v.SetDefault("SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER.MAX_HEADER_BYTES", 1<<20)

	// API server
	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.PUBLIC_URL", "http://localhost:8081")
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:8081"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	// Kafka
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "lapor-chat")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")
	v.SetDefault("KAFKA.MESSAGE_EVENTS_TOPIC", "chat-message-events")
	v.SetDefault("KAFKA.NOTIFICATIONS_TOPIC", "chat-notifications")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "chat-server")
	v.SetDefault("KAFKA.NOTIFICATION_CONSUMER_GROUP", "chat-push-dispatcher")

	// Database
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "lapor_chat")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.PATH", "lapor-chat.db")
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	// Storage
	v.SetDefault("STORAGE.TYPE", "local")
	v.SetDefault("STORAGE.LOCAL_PATH", "./uploads")
	v.SetDefault("STORAGE.KEY_PREFIX", "uploads/")
	v.SetDefault("STORAGE.MAX_FILE_SIZE_MB", 100)
	v.SetDefault("STORAGE.OWNERSHIP_TTL", time.Hour)
	v.SetDefault("STORAGE.S3.REGION", "us-east-1")
	v.SetDefault("STORAGE.S3.PRESIGN_TTL", 7*24*time.Hour)
	v.SetDefault("STORAGE.MINIO.ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE.MINIO.BUCKET", "chat-media")
	v.SetDefault("STORAGE.MINIO.PRESIGN_TTL", 7*24*time.Hour)

	// Auth
	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.ISSUER", "lapor-chat")

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54)
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 512)

	v.SetDefault("CHAT.DELETE_POLICY", DeletePolicyAny)
	v.SetDefault("CHAT.SNAPSHOT_TIMEOUT", 5*time.Second)

	v.SetDefault("PUSH.GATEWAY_URL", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("PUSH.TITLE", "Pesan Baru Masuk")
	v.SetDefault("PUSH.SOUND", "default")
	v.SetDefault("PUSH.TIMEOUT", 10*time.Second)

	v.SetDefault("RATE_LIMIT.ENABLED", true)
	v.SetDefault("RATE_LIMIT.PER_MINUTE", 120)
	v.SetDefault("RATE_LIMIT.BURST", 20)

	v.SetDefault("CLIENT.API_URL", "http://localhost:8081")
	v.SetDefault("CLIENT.WS_URL", "ws://localhost:8080/ws/chat")
	v.SetDefault("CLIENT.TIMEOUT", 30*time.Second)
	v.SetDefault("CLIENT.POSITION", "")
	v.SetDefault("CLIENT.PUSH_TOKEN", "")

	v.SetDefault("TRACING.ENABLED", false)
	v.SetDefault("TRACING.ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING.SERVICE_NAME", "lapor-chat")
	v.SetDefault("TRACING.ENVIRONMENT", "local")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// SERVER_PORT overrides SERVER.PORT, STORAGE_MINIO_BUCKET overrides STORAGE.MINIO.BUCKET.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// defaults and env are enough
	}

	err = v.Unmarshal(&config)
	return
}
