package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Env           string
	ServerAddress string
	LogLevel      string

	MongoURI string
	MongoDB  string

	// Hosted auth. When FirebaseProjectID is empty the server falls back to
	// verifying HS256 tokens signed with JWTSecret (development mode).
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	JWTSecret               string
	AuthWebhookSecret       string

	// Avatars. When AvatarBucket is set, objects go to GCS; otherwise to
	// AvatarDir on local disk.
	AvatarBucket    string
	AvatarDir       string
	MaxUploadSizeMB int64

	SendGridAPIKey  string
	MailFromEmail   string
	RecaptchaSecret string
	AppBaseURL      string

	RedisAddr         string
	RedisPassword     string
	DirectoryCacheTTL time.Duration
}

func Load() *Config {
	return &Config{
		Env:           getEnv("APP_ENV", "development"),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "unilink"),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		JWTSecret:               getEnv("JWT_SECRET", "dev-secret-change-me"),
		AuthWebhookSecret:       getEnv("AUTH_WEBHOOK_SECRET", ""),

		AvatarBucket:    getEnv("AVATAR_BUCKET", ""),
		AvatarDir:       getEnv("AVATAR_DIR", "./avatars"),
		MaxUploadSizeMB: getEnvInt64("MAX_UPLOAD_SIZE_MB", 10),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFromEmail:   getEnv("MAIL_FROM_EMAIL", ""),
		RecaptchaSecret: getEnv("RECAPTCHA_SECRET", ""),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:5173"),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PWD", ""),
		DirectoryCacheTTL: getEnvDuration("DIRECTORY_CACHE_TTL", 2*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
