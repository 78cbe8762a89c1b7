package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checks value ranges that envdecode cannot express
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, test or production, got %q", c.Environment)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must be a postgres:// URL")
	}

	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns)
	}

	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
	}

	if c.DBMaxConnLifetime <= 0 || c.DBMaxConnIdleTime <= 0 {
		return fmt.Errorf("DB_MAX_CONN_LIFETIME and DB_MAX_CONN_IDLE_TIME must be positive")
	}

	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}

	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}

	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	if c.RateLimitMax < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX must be at least 1, got %d", c.RateLimitMax)
	}

	if c.CompressionLevel < -1 || c.CompressionLevel > 9 {
		return fmt.Errorf("COMPRESSION_LEVEL must be between -1 and 9, got %d", c.CompressionLevel)
	}

	if c.CompressionThreshold < 0 {
		return fmt.Errorf("COMPRESSION_THRESHOLD must not be negative, got %d", c.CompressionThreshold)
	}

	if len(c.CORSOrigins()) == 0 {
		return fmt.Errorf("CORS_ORIGIN must name at least one origin")
	}

	if c.RequestTimeoutMS < 1 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be at least 1, got %d", c.RequestTimeoutMS)
	}

	if c.BodyLimitBytes < 1 {
		return fmt.Errorf("BODY_LIMIT_BYTES must be at least 1, got %d", c.BodyLimitBytes)
	}

	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("REDIS_URL must be a redis:// or rediss:// URL")
	}

	if c.QueueConsumerRate <= 0 {
		return fmt.Errorf("QUEUE_CONSUMER_RATE must be positive")
	}

	return nil
}

// returns the request deadline as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// returns the trimmed, non-empty CORS origins
func (c *Config) CORSOrigins() []string {
	var origins []string

	for _, origin := range strings.Split(c.CORSOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// loads only what schema migrations need
func LoadMigrationConfig() (*MigrationConfig, error) {
	_ = godotenv.Load() // .env is optional

	var cfg MigrationConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	return &cfg, nil
}
