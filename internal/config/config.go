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
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	AI           AIConfig
	Notification NotificationConfig
	Realtime     RealtimeConfig
	RateLimit    RateLimitConfig
	Escalation   EscalationConfig
	Uploads      UploadConfig
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
	Level       string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AdminEmail            string
	AdminPassword         string
}

// AIConfig configures the complaint classifier.
type AIConfig struct {
	APIKey            string
	Model             string
	MaxTokens         int
	TimeoutSeconds    int
	MaxAttempts       int
	RetryDelayMillis  int
	MinDescriptionLen int
}

// NotificationConfig holds delivery channel endpoints.
type NotificationConfig struct {
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFrom             string
	SMSWebhookURL         string
	PushWebhookURL        string
	WebhookToken          string
	DeliveryTimeoutSecond int
}

// RealtimeConfig controls the live-update channel.
type RealtimeConfig struct {
	RedisRelay   bool
	RelayChannel string
	SendBuffer   int
}

// RateLimitConfig holds fixed-window request limits per client.
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	APILimit      int
	AuthLimit     int
	AILimit       int
}

// EscalationConfig drives the overdue sweeper.
type EscalationConfig struct {
	SweepIntervalSeconds int
}

// UploadConfig controls ticket image storage.
type UploadConfig struct {
	Dir       string
	PublicURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "hostel-complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 90),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnv("APP_ENV", "development") != "production",
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminEmail:            os.Getenv("AUTH_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
		},
		AI: AIConfig{
			APIKey:            os.Getenv("AI_API_KEY"),
			Model:             getEnv("AI_MODEL", "claude-3-5-haiku-latest"),
			MaxTokens:         getEnvAsInt("AI_MAX_TOKENS", 1000),
			TimeoutSeconds:    getEnvAsInt("AI_TIMEOUT_SECONDS", 60),
			MaxAttempts:       getEnvAsInt("AI_MAX_ATTEMPTS", 3),
			RetryDelayMillis:  getEnvAsInt("AI_RETRY_DELAY_MILLIS", 1000),
			MinDescriptionLen: getEnvAsInt("AI_MIN_DESCRIPTION_LENGTH", 10),
		},
		Notification: NotificationConfig{
			SMTPHost:              os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:              getEnvAsInt("NOTIFY_SMTP_PORT", 587),
			SMTPUsername:          os.Getenv("NOTIFY_SMTP_USERNAME"),
			SMTPPassword:          os.Getenv("NOTIFY_SMTP_PASSWORD"),
			EmailFrom:             getEnv("NOTIFY_EMAIL_FROM", "noreply@myhostelpal.local"),
			SMSWebhookURL:         os.Getenv("NOTIFY_SMS_WEBHOOK_URL"),
			PushWebhookURL:        os.Getenv("NOTIFY_PUSH_WEBHOOK_URL"),
			WebhookToken:          os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
			DeliveryTimeoutSecond: getEnvAsInt("NOTIFY_DELIVERY_TIMEOUT_SECONDS", 15),
		},
		Realtime: RealtimeConfig{
			RedisRelay:   getEnvAsBool("REALTIME_REDIS_RELAY", false),
			RelayChannel: getEnv("REALTIME_RELAY_CHANNEL", "hostel:live-updates"),
			SendBuffer:   getEnvAsInt("REALTIME_SEND_BUFFER", 16),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 900),
			APILimit:      getEnvAsInt("RATE_LIMIT_API", 300),
			AuthLimit:     getEnvAsInt("RATE_LIMIT_AUTH", 20),
			AILimit:       getEnvAsInt("RATE_LIMIT_AI", 30),
		},
		Escalation: EscalationConfig{
			SweepIntervalSeconds: getEnvAsInt("ESCALATION_SWEEP_INTERVAL_SECONDS", 600),
		},
		Uploads: UploadConfig{
			Dir:       getEnv("UPLOAD_DIR", "uploads"),
			PublicURL: getEnv("UPLOAD_PUBLIC_URL", "/uploads"),
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

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// Timeout bounds a single classifier call.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// RetryDelay is the fixed pause between classifier attempts.
func (a AIConfig) RetryDelay() time.Duration {
	return time.Duration(a.RetryDelayMillis) * time.Millisecond
}

// DeliveryTimeout bounds a single channel delivery attempt.
func (n NotificationConfig) DeliveryTimeout() time.Duration {
	if n.DeliveryTimeoutSecond <= 0 {
		return 15 * time.Second
	}
	return time.Duration(n.DeliveryTimeoutSecond) * time.Second
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

// SweepInterval returns the sweeper period; zero disables the sweeper.
func (e EscalationConfig) SweepInterval() time.Duration {
	if e.SweepIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(e.SweepIntervalSeconds) * time.Second
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
