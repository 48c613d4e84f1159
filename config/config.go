package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sixchat/sixchat-backend/internal/identity"
)

const (
	DriverFirebase = "firebase"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	App      AppConfig
	Backend  BackendConfig
	Firebase FirebaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Chat     ChatConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

type BackendConfig struct {
	Driver string
}

type FirebaseConfig struct {
	ProjectID       string
	APIKey          string
	CredentialsPath string
	CredentialsJSON string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL                   time.Duration
	IdleTimeout           time.Duration
	SweepSchedule         string
	AuthAttemptsPerMinute int
}

type ChatConfig struct {
	ReservedNumber string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Backend: BackendConfig{
			Driver: getEnv("BACKEND_DRIVER", DriverFirebase),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			APIKey:          getEnv("FIREBASE_API_KEY", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			CredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL:                   getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			IdleTimeout:           getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepSchedule:         getEnv("SESSION_SWEEP_SCHEDULE", "0 */5 * * * *"),
			AuthAttemptsPerMinute: getEnvAsInt("AUTH_ATTEMPTS_PER_MINUTE", 10),
		},
		Chat: ChatConfig{
			ReservedNumber: getEnv("RESERVED_NUMBER", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Backend.Driver {
	case DriverMemory:
	case DriverFirebase:
		if c.Firebase.APIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required for the firebase backend")
		}
		if c.Firebase.CredentialsPath == "" && c.Firebase.CredentialsJSON == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH or FIREBASE_CREDENTIALS_JSON is required for the firebase backend")
		}
	default:
		return fmt.Errorf("BACKEND_DRIVER must be %q or %q, got %q", DriverFirebase, DriverMemory, c.Backend.Driver)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Session.TTL <= 0 || c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_TTL and SESSION_IDLE_TIMEOUT must be positive")
	}

	if c.Session.AuthAttemptsPerMinute <= 0 {
		return fmt.Errorf("AUTH_ATTEMPTS_PER_MINUTE must be positive")
	}

	if c.Chat.ReservedNumber != "" && !identity.IsValidNumber(c.Chat.ReservedNumber) {
		return fmt.Errorf("RESERVED_NUMBER must be exactly 6 digits")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
