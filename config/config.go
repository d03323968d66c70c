package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	DrawLockTTL        time.Duration
	DrawMaxSearchSteps int
	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

const (
	defaultServerPort     = 8080
	defaultDrawLockTTL    = 30 * time.Second
	defaultMaxSearchSteps = 50000
)

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", defaultServerPort)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	lockTTL := defaultDrawLockTTL
	if v := os.Getenv("DRAW_LOCK_TTL"); v != "" {
		lockTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DRAW_LOCK_TTL environment variable: %w", err)
		}
		if lockTTL < time.Second {
			return nil, fmt.Errorf("DRAW_LOCK_TTL must be at least 1s, got %s", lockTTL)
		}
	}

	maxSteps, err := intFromEnv("DRAW_MAX_SEARCH_STEPS", defaultMaxSearchSteps)
	if err != nil {
		return nil, err
	}
	if maxSteps <= 0 {
		return nil, fmt.Errorf("DRAW_MAX_SEARCH_STEPS must be positive, got %d", maxSteps)
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		DrawLockTTL:        lockTTL,
		DrawMaxSearchSteps: maxSteps,
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	return cfg, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
