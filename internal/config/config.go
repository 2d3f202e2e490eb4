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
	OTP       OTPConfig
	SMTP      SMTPConfig
	Documents DocumentsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	ClientURL             string
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

// RedisConfig holds Redis connection values. An empty Addr switches
// the ephemeral OTP stores to the in-process implementation.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and password parameters.
type AuthConfig struct {
	JWTSecret            string
	SessionTTLDays       int
	EmailTokenTTLMinutes int
	BcryptCost           int
}

// OTPConfig defines one-time code parameters.
type OTPConfig struct {
	CodeTTLMinutes         int
	ResendWindowSeconds    int
	MaxAttempts            int
	RegistrationTTLMinutes int
	CleanupIntervalMinutes int
}

// SMTPConfig holds outbound mail settings. An empty Host disables
// delivery (notifications are logged only).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// DocumentsConfig locates the local blob store for uploaded documents.
type DocumentsConfig struct {
	Dir string
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
			Name:                  getEnv("APP_NAME", "application-tracker"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			ClientURL:             getEnv("CLIENT_URL", "http://localhost:5173"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
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
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLDays:       getEnvAsInt("AUTH_SESSION_TTL_DAYS", 10),
			EmailTokenTTLMinutes: getEnvAsInt("AUTH_EMAIL_TOKEN_TTL_MINUTES", 5),
			BcryptCost:           getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		OTP: OTPConfig{
			CodeTTLMinutes:         getEnvAsInt("OTP_CODE_TTL_MINUTES", 5),
			ResendWindowSeconds:    getEnvAsInt("OTP_RESEND_WINDOW_SECONDS", 60),
			MaxAttempts:            getEnvAsInt("OTP_MAX_ATTEMPTS", 3),
			RegistrationTTLMinutes: getEnvAsInt("OTP_REGISTRATION_TTL_MINUTES", 30),
			CleanupIntervalMinutes: getEnvAsInt("OTP_CLEANUP_INTERVAL_MINUTES", 5),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
			FromName: getEnv("SMTP_FROM_NAME", "Application Tracker"),
		},
		Documents: DocumentsConfig{
			Dir: getEnv("DOCUMENTS_DIR", "media"),
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

// CodeTTL returns the lifetime of an issued one-time code.
func (o OTPConfig) CodeTTL() time.Duration {
	return time.Duration(o.CodeTTLMinutes) * time.Minute
}

// ResendWindow returns the minimum gap between OTP issues per email.
func (o OTPConfig) ResendWindow() time.Duration {
	return time.Duration(o.ResendWindowSeconds) * time.Second
}

// RegistrationTTL returns how long pending signup data is retained.
func (o OTPConfig) RegistrationTTL() time.Duration {
	return time.Duration(o.RegistrationTTLMinutes) * time.Minute
}

// CleanupInterval returns the sweep cadence for expired ephemeral state.
func (o OTPConfig) CleanupInterval() time.Duration {
	return time.Duration(o.CleanupIntervalMinutes) * time.Minute
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
