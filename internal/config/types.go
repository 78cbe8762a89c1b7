package config

import "time"

// process-wide configuration, decoded once at startup and never mutated
type Config struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	Port        int    `env:"PORT,default=8080"`

	DatabaseURL       string        `env:"DATABASE_URL,required"`
	DBMaxConns        int           `env:"DB_MAX_CONNS,default=10"`
	DBMinConns        int           `env:"DB_MIN_CONNS,default=1"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME,default=30m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=5m"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY,default=24h"`

	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX,default=100"`

	CompressionLevel     int `env:"COMPRESSION_LEVEL,default=-1"`
	CompressionThreshold int `env:"COMPRESSION_THRESHOLD,default=1024"`

	CORSOrigin string `env:"CORS_ORIGIN,default=*"`

	RequestTimeoutMS int   `env:"REQUEST_TIMEOUT_MS,default=30000"`
	BodyLimitBytes   int64 `env:"BODY_LIMIT_BYTES,default=1048576"`

	RedisURL          string  `env:"REDIS_URL"`
	QueueConsumerRate float64 `env:"QUEUE_CONSUMER_RATE,default=50"`
}

// settings needed by the migrate command
type MigrationConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
}
