package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	App      AppConfig
	Session  SessionConfig
	Work     WorkConfig
	Chat     ChatConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	Timezone       string
}

type SessionConfig struct {
	Backend       string // memory | redis
	TTL           time.Duration
	LockTimeout   time.Duration
	SweepInterval time.Duration
}

// WorkConfig is the working-day policy used to derive clock event status
// and regular hours.
type WorkConfig struct {
	Start              string // HH:MM
	End                string // HH:MM
	LateGrace          time.Duration
	StandardDailyHours decimal.Decimal
}

type ChatConfig struct {
	WebhookSecret  string
	RatePerMinute  int
	RateBurst      int
	NotifyWorkers  int
	NotifyQueueLen int
}

type PayrollConfig struct {
	CloseDay int // day of month on which the previous month is closed, 0 disables
	Workers  int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var p parser
	config := &Config{}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.int("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_chatbot"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(p.int("DB_MAX_CONNS", 10)),
	}

	config.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     p.int("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       p.int("REDIS_DB", 0),
	}

	config.App = AppConfig{
		Port:           p.int("APP_PORT", 8080),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("APP_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		Timezone:       getEnv("TIMEZONE", "Asia/Taipei"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.duration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
	}

	config.Session = SessionConfig{
		Backend:       strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		TTL:           p.duration("SESSION_TTL", 30*time.Minute),
		LockTimeout:   p.duration("SESSION_LOCK_TIMEOUT", 5*time.Second),
		SweepInterval: p.duration("SESSION_SWEEP_INTERVAL", time.Minute),
	}

	config.Work = WorkConfig{
		Start:              getEnv("WORK_START", "09:00"),
		End:                getEnv("WORK_END", "18:00"),
		LateGrace:          p.duration("LATE_GRACE", 15*time.Minute),
		StandardDailyHours: p.decimal("STANDARD_WORK_HOURS", decimal.NewFromInt(8)),
	}

	config.Chat = ChatConfig{
		WebhookSecret:  getEnv("CHAT_WEBHOOK_SECRET", ""),
		RatePerMinute:  p.int("CHAT_RATE_LIMIT", 30),
		RateBurst:      p.int("CHAT_RATE_BURST", 5),
		NotifyWorkers:  p.int("NOTIFY_WORKERS", 2),
		NotifyQueueLen: p.int("NOTIFY_QUEUE_SIZE", 1000),
	}

	config.Payroll = PayrollConfig{
		CloseDay: p.int("PAYROLL_CLOSE_DAY", 5),
		Workers:  p.int("PAYROLL_WORKERS", 4),
	}

	if err := p.err(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Session.Backend != "memory" && c.Session.Backend != "redis" {
		return fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if _, err := time.Parse("15:04", c.Work.Start); err != nil {
		return fmt.Errorf("invalid WORK_START: %w", err)
	}
	if _, err := time.Parse("15:04", c.Work.End); err != nil {
		return fmt.Errorf("invalid WORK_END: %w", err)
	}
	if !c.Work.StandardDailyHours.IsPositive() {
		return fmt.Errorf("STANDARD_WORK_HOURS must be positive")
	}
	if c.Payroll.CloseDay < 0 || c.Payroll.CloseDay > 28 {
		return fmt.Errorf("PAYROLL_CLOSE_DAY must be between 0 and 28")
	}
	if c.Chat.WebhookSecret == "" {
		slog.Warn("CHAT_WEBHOOK_SECRET is empty, the chat webhook will refuse all requests")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

// parser collects every malformed variable so one run reports them all.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}
