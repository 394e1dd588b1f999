package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Responder ResponderConfig
	Hub       HubConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	SessionTTLMinutes   int
	SessionSweepMinutes int
	WidgetJWTSecret     string
	WidgetTTLMinutes    int
	BcryptCost          int
	BootstrapEmail      string
	BootstrapPassword   string
	BootstrapName       string
}

// ResponderConfig tunes the automated response engine and escalation policy.
type ResponderConfig struct {
	Enabled            bool
	APIBaseURL         string
	APIKey             string
	Model              string
	TimeoutSeconds     int
	MinResponseDelayMs int
	GraceWindowSeconds int
	MatchThreshold     float64
	HistoryLimit       int
}

// HubConfig tunes the live connection layer.
type HubConfig struct {
	SendBufferSize     int
	PongTimeoutSeconds int
	PingPeriodSeconds  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("RESPONDER_MATCH_THRESHOLD", "0.6"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RESPONDER_MATCH_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionTTLMinutes:   getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 720),
			SessionSweepMinutes: getEnvAsInt("AUTH_SESSION_SWEEP_MINUTES", 15),
			WidgetJWTSecret:     getEnv("AUTH_WIDGET_JWT_SECRET", "dev-secret"),
			WidgetTTLMinutes:    getEnvAsInt("AUTH_WIDGET_TTL_MINUTES", 1440),
			BcryptCost:          getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapEmail:      getEnv("AUTH_BOOTSTRAP_EMAIL", "admin@helpboard.local"),
			BootstrapPassword:   os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),
			BootstrapName:       getEnv("AUTH_BOOTSTRAP_NAME", "Administrator"),
		},
		Responder: ResponderConfig{
			Enabled:            getEnvAsBool("RESPONDER_ENABLED", true),
			APIBaseURL:         getEnv("RESPONDER_API_BASE_URL", "https://api.openai.com/v1"),
			APIKey:             os.Getenv("RESPONDER_API_KEY"),
			Model:              getEnv("RESPONDER_MODEL", "gpt-4o-mini"),
			TimeoutSeconds:     getEnvAsInt("RESPONDER_TIMEOUT_SECONDS", 20),
			MinResponseDelayMs: getEnvAsInt("RESPONDER_MIN_DELAY_MS", 1500),
			GraceWindowSeconds: getEnvAsInt("RESPONDER_GRACE_WINDOW_SECONDS", 90),
			MatchThreshold:     threshold,
			HistoryLimit:       getEnvAsInt("RESPONDER_HISTORY_LIMIT", 10),
		},
		Hub: HubConfig{
			SendBufferSize:     getEnvAsInt("HUB_SEND_BUFFER_SIZE", 256),
			PongTimeoutSeconds: getEnvAsInt("HUB_PONG_TIMEOUT_SECONDS", 60),
			PingPeriodSeconds:  getEnvAsInt("HUB_PING_PERIOD_SECONDS", 54),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the agent session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns the cadence of the session expiry sweep.
func (a AuthConfig) SweepInterval() time.Duration {
	if a.SessionSweepMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.SessionSweepMinutes) * time.Minute
}

// GenerationTimeout bounds the external generation call.
func (r ResponderConfig) GenerationTimeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// MinResponseDelay is the artificial pause before an automated reply.
func (r ResponderConfig) MinResponseDelay() time.Duration {
	if r.MinResponseDelayMs < 0 {
		return 0
	}
	return time.Duration(r.MinResponseDelayMs) * time.Millisecond
}

// GraceWindow is how long an assigned agent keeps first right of reply.
func (r ResponderConfig) GraceWindow() time.Duration {
	if r.GraceWindowSeconds <= 0 {
		return 90 * time.Second
	}
	return time.Duration(r.GraceWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
