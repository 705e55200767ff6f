package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string

	JWTSecret string
	TokenTTL  time.Duration

	// Uploads arrive as base64 JSON bodies, so the request size ceiling
	// has to accommodate the whole encoded PDF.
	MaxBodyBytes int64

	AvatarBaseURL string

	// Object storage settings for the blob gateway.
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	JanitorSchedule    string
	EventRetentionDays int
}

// Load loads configuration from a .env file (if present) and environment
// variables, falling back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "3000"))
	if err != nil {
		return nil, err
	}

	ttlDays, err := strconv.Atoi(getEnv("TOKEN_TTL_DAYS", "15"))
	if err != nil {
		return nil, err
	}

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", strconv.Itoa(50<<20)), 10, 64)
	if err != nil {
		return nil, err
	}

	retention, err := strconv.Atoi(getEnv("EVENT_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:   port,
		DatabasePath: getEnv("DATABASE_PATH", "./pdfshelf.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  time.Duration(ttlDays) * 24 * time.Hour,

		MaxBodyBytes: maxBody,

		AvatarBaseURL: getEnv("AVATAR_BASE_URL", "https://api.dicebear.com/9.x/avataaars/svg"),

		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Bucket:        getEnv("S3_BUCKET", "pdfshelf"),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		JanitorSchedule:    getEnv("JANITOR_SCHEDULE", "@hourly"),
		EventRetentionDays: retention,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
