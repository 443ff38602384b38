package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	AppEnv     string
	BasePath   string

	// Store selection: sqlite, postgres, mysql, redis or memory
	StoreBackend  string
	DatabasePath  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StoreHealthInterval   time.Duration
	StoreMaxRetries       int
	StoreRetryMaxInterval time.Duration

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	RateLimitPerMinute int
	CORSAllowedOrigins []string

	SESFromEmail string
	SESFromName  string
	AWSRegion    string

	OTelEnabled  bool
	OTelEndpoint string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is loaded first when present;
// real environment variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("PORT", "5000"),
		AppEnv:     getEnv("APP_ENV", "development"),
		BasePath:   strings.TrimSuffix(getEnv("BASE_PATH", ""), "/"),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
		DatabasePath:  getEnv("DB_PATH", "./familybudget.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StoreHealthInterval:   getEnvDuration("STORE_HEALTH_INTERVAL", 15*time.Second),
		StoreMaxRetries:       getEnvInt("STORE_MAX_RETRIES", 10),
		StoreRetryMaxInterval: getEnvDuration("STORE_RETRY_MAX_INTERVAL", 5*time.Second),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   getEnvDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Family Budget"),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// IsDevelopment reports whether diagnostic detail may be exposed to clients
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.ServerPort); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.ServerPort))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StoreBackend {
	case "sqlite", "sqlite3":
		if c.DatabasePath == "" {
			problems = append(problems, "DB_PATH cannot be empty when using the sqlite store")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			problems = append(problems, fmt.Sprintf("DATABASE_URL is required when using the %s store", c.StoreBackend))
		}
	case "redis":
		if c.RedisAddr == "" {
			problems = append(problems, "REDIS_ADDR is required when using the redis store")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid store backend '%s': must be one of sqlite, postgres, mysql, redis, memory", c.StoreBackend))
	}

	if c.JWTSecret == "" && !c.IsDevelopment() {
		problems = append(problems, "JWT_SECRET is required outside development")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token ttl %v: must be positive", c.TokenTTL))
	}
	if c.StoreMaxRetries < 1 {
		problems = append(problems, fmt.Sprintf("invalid store max retries %d: must be at least 1", c.StoreMaxRetries))
	}
	if c.StoreHealthInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid store health interval %v: must be at least 1 second", c.StoreHealthInterval))
	}
	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
