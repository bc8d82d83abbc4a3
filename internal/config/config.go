package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath      string
	JWTPublicKeyPath       string
	JWTExpiryDays          int
	RefreshTokenExpiryDays int

	TelegramBotToken    string
	TelegramBotUsername string // empty disables deep-link generation
	TelegramChannel     string
	AdminTgID           string // Telegram user id promoted to admin on verification

	VerificationTTL time.Duration
	MediaBaseURL    string // public base URL under which ingested media is served
	ImportLockPath  string
	SNSTopicARN     string // empty disables import-run notifications
	SNSRegion       string
	AllowedOrigins  []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Sessions      string
	Verifications string
	ChannelPosts  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Verifications: getEnv("DYNAMO_TABLE_VERIFICATIONS", "telegram_verifications"),
			ChannelPosts:  getEnv("DYNAMO_TABLE_CHANNEL_POSTS", "channel_posts"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "classifieds-media"),

		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryDays:          getEnvInt("JWT_EXPIRY_DAYS", 7),
		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramBotUsername: getEnv("TELEGRAM_BOT_USERNAME", ""),
		TelegramChannel:     getEnv("TELEGRAM_CHANNEL", ""),
		AdminTgID:           getEnv("ADMIN_TG_ID", ""),

		VerificationTTL: time.Duration(getEnvInt("VERIFICATION_TTL_MINUTES", 15)) * time.Minute,
		MediaBaseURL:    getEnv("MEDIA_BASE_URL", "/uploads/tg"),
		ImportLockPath:  getEnv("IMPORT_LOCK_PATH", "/tmp/channel-import.lock"),
		SNSTopicARN:     getEnv("SNS_TOPIC_ARN", ""),
		SNSRegion:       getEnv("SNS_REGION", "us-east-1"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
