package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Leave      LeaveConfig
	Cron       CronConfig
}

type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port         int
	Env          string
	LogLevel     string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AttendanceConfig struct {
	Timezone string
	// Empty disables late classification
	LateCutoff string
}

type LeaveConfig struct {
	// Keyed by leave type, e.g. LEAVE_DEFAULT_ALLOCATIONS=annual=12,sick=12
	DefaultAllocations map[string]decimal.Decimal
	MaxCarryForward    decimal.Decimal
}

type CronConfig struct {
	Enabled  bool
	Interval time.Duration
	// Local hour at which yesterday's absences are marked
	AbsentHour int
}

// Load reads the environment, filling it from .env when the file exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug("No .env file found, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getEnvBool("DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Driver:      getEnv("DB_DRIVER", DriverPostgres),
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "hris_timekeeping"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(maxConns),
		MinConns:    int32(minConns),
		AutoMigrate: autoMigrate,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	readTimeout, err := getEnvDuration("APP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := getEnvDuration("APP_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:         appPort,
		Env:          getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  getEnvSlice("APP_CORS_ORIGINS"),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Attendance = AttendanceConfig{
		Timezone:   getEnv("ATTENDANCE_TIMEZONE", "UTC"),
		LateCutoff: getEnv("ATTENDANCE_LATE_CUTOFF", "09:00"),
	}

	// Leave configuration
	allocations, err := parseAllocations(getEnv("LEAVE_DEFAULT_ALLOCATIONS", "annual=12,sick=12,casual=6"))
	if err != nil {
		return nil, err
	}
	maxCarry, err := decimal.NewFromString(getEnv("LEAVE_MAX_CARRY_FORWARD", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_MAX_CARRY_FORWARD: %w", err)
	}

	config.Leave = LeaveConfig{
		DefaultAllocations: allocations,
		MaxCarryForward:    maxCarry,
	}

	// Cron configuration
	cronEnabled, err := getEnvBool("CRON_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cronInterval, err := getEnvDuration("CRON_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	absentHour, err := getEnvInt("CRON_ABSENT_HOUR", 0)
	if err != nil {
		return nil, err
	}

	config.Cron = CronConfig{
		Enabled:    cronEnabled,
		Interval:   cronInterval,
		AbsentHour: absentHour,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}
	if c.Attendance.LateCutoff != "" {
		if _, err := time.Parse("15:04", c.Attendance.LateCutoff); err != nil {
			return fmt.Errorf("ATTENDANCE_LATE_CUTOFF must be HH:MM: %w", err)
		}
	}
	if c.Leave.MaxCarryForward.IsNegative() {
		return fmt.Errorf("LEAVE_MAX_CARRY_FORWARD must not be negative")
	}
	if c.Cron.Interval <= 0 {
		return fmt.Errorf("CRON_INTERVAL must be positive")
	}
	if c.Cron.AbsentHour < 0 || c.Cron.AbsentHour > 23 {
		return fmt.Errorf("CRON_ABSENT_HOUR must be between 0 and 23")
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

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseAllocations(value string) (map[string]decimal.Decimal, error) {
	allocations := make(map[string]decimal.Decimal)
	for _, pair := range getSlice(value) {
		leaveType, days, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid LEAVE_DEFAULT_ALLOCATIONS entry %q: expected type=days", pair)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(days))
		if err != nil {
			return nil, fmt.Errorf("invalid LEAVE_DEFAULT_ALLOCATIONS entry %q: %w", pair, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("invalid LEAVE_DEFAULT_ALLOCATIONS entry %q: days must not be negative", pair)
		}
		allocations[strings.TrimSpace(leaveType)] = amount
	}
	return allocations, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	return getSlice(getEnv(env, ""))
}

func getSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
