package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App    AppConfig
	SQLite SQLiteConfig
	Redis  RedisConfig
	Logger LoggerConfig
	Auth   AuthConfig
	Upload UploadConfig
	SLA    SLAConfig
	Backup BackupConfig
	Mail   MailConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BaseURL               string
	RequestTimeoutSeconds int
}

// SQLiteConfig holds file store values.
type SQLiteConfig struct {
	Path string
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
	JWTSecret               string
	SessionTokenTTLMinutes  int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// UploadConfig bounds ticket attachments.
type UploadConfig struct {
	Dir               string
	MaxSizeBytes      int64
	AllowedExtensions []string
}

// SLAConfig holds per-priority resolution budgets in minutes.
type SLAConfig struct {
	UrgentMinutes int
	HighMinutes   int
	MediumMinutes int
	LowMinutes    int
}

// Budgets converts the configured minutes into domain budgets.
func (s SLAConfig) Budgets() domain.SLABudgets {
	return domain.SLABudgets{
		domain.TicketPriorityUrgent: time.Duration(s.UrgentMinutes) * time.Minute,
		domain.TicketPriorityHigh:   time.Duration(s.HighMinutes) * time.Minute,
		domain.TicketPriorityMedium: time.Duration(s.MediumMinutes) * time.Minute,
		domain.TicketPriorityLow:    time.Duration(s.LowMinutes) * time.Minute,
	}
}

// BackupConfig controls the scheduled store snapshot.
type BackupConfig struct {
	Dir           string
	RetentionDays int
	Schedule      string
	Enabled       bool
}

// MailConfig holds SMTP transport values. Empty Host disables delivery.
type MailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			BaseURL:               getEnv("APP_URL", "http://localhost:8080"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("DB_PATH", "database/tickets.db"),
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
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTokenTTLMinutes:  getEnvAsInt("AUTH_SESSION_TOKEN_TTL_MINUTES", 480),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Upload: UploadConfig{
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes:      int64(getEnvAsInt("UPLOAD_MAX_SIZE_BYTES", 5*1024*1024)),
			AllowedExtensions: splitList(getEnv("UPLOAD_ALLOWED_EXTENSIONS", "jpeg,jpg,png,gif,mp4,mov,avi,mkv,pdf,doc,docx,txt")),
		},
		SLA: SLAConfig{
			UrgentMinutes: getEnvAsInt("SLA_URGENT_MINUTES", 120),
			HighMinutes:   getEnvAsInt("SLA_HIGH_MINUTES", 240),
			MediumMinutes: getEnvAsInt("SLA_MEDIUM_MINUTES", 480),
			LowMinutes:    getEnvAsInt("SLA_LOW_MINUTES", 1440),
		},
		Backup: BackupConfig{
			Dir:           getEnv("BACKUP_DIR", "backups"),
			RetentionDays: getEnvAsInt("BACKUP_DAYS_RETENTION", 7),
			Schedule:      getEnv("BACKUP_SCHEDULE", "0 2 * * *"),
			Enabled:       getEnvAsBool("BACKUP_ENABLED", true),
		},
		Mail: MailConfig{
			Host: os.Getenv("EMAIL_HOST"),
			Port: getEnvAsInt("EMAIL_PORT", 587),
			User: os.Getenv("EMAIL_USER"),
			Pass: os.Getenv("EMAIL_PASS"),
			From: getEnv("EMAIL_FROM", "noreply@example.com"),
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

// SessionTTL returns the session token lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTokenTTLMinutes) * time.Minute
}

// ResetTTL returns the password reset token lifetime.
func (a AuthConfig) ResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
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

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
