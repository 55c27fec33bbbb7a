// Package config loads the authority server's settings from the process
// environment and connects its backing stores.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration loaded from environment variables.
type Config struct {
	Port int

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string

	JWTSecret   string
	TokenTTL    time.Duration
	AdminInvite string

	IssueRateLimit  int
	IssueLimitQueue string

	FrontendURL string
}

// Load reads an optional .env file, then the environment, and validates
// required fields. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return Config{}, fmt.Errorf("parse PORT: %w", err)
	}

	limit, err := getEnvInt("ISSUE_RATE_LIMIT", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse ISSUE_RATE_LIMIT: %w", err)
	}

	ttl, err := getEnvDuration("TOKEN_TTL", 72*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}

	cfg := Config{
		Port:            port,
		MongoURI:        getEnv("MONGODB_URI", ""),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "civicsync"),
		RedisAddress:    getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        ttl,
		AdminInvite:     getEnv("ADMIN_INVITE", ""),
		IssueRateLimit:  limit,
		IssueLimitQueue: getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IssueRateLimit < 1 {
		return fmt.Errorf("ISSUE_RATE_LIMIT must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
