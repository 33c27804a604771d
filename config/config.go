// Package config provides configuration management for the gatehouse service.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting.
// Everything is read once at startup; nothing in here is mutated afterwards.
package config

import (
	"fmt"
	"net/url"
	// `os` package provides operating system functionalities, like reading environment variables.
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/gatehouse-go/apperror"
)

// AuthMode selects how a successful login is turned into a credential.
type AuthMode string

const (
	// AuthModeSession issues an opaque server-side session id in an HTTP-only cookie.
	AuthModeSession AuthMode = "session"
	// AuthModeJWT issues a signed, self-contained bearer token.
	AuthModeJWT AuthMode = "jwt"
)

// StoreDriver selects the credential store backend.
type StoreDriver string

const (
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMemory   StoreDriver = "memory"
)

// PoolConfig represents configuration for the PostgreSQL connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// DSN builds a postgres:// connection string for the pool settings.
// Both pgxpool and golang-migrate's postgres driver accept this form.
func (p *PoolConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// StoreConfig holds credential-store backend settings.
type StoreConfig struct {
	Driver StoreDriver
	// Pool is nil when Driver is memory.
	Pool *PoolConfig
	// RedisURL, when set, moves login-attempt counters and sessions to Redis.
	RedisURL       string
	MigrationsPath string
}

// AuthConfig holds authentication-related configuration.
// The lockout threshold, lockout window and token lifetime are deliberately absent:
// they are fixed constants of the throttle and auth packages.
type AuthConfig struct {
	Mode      AuthMode
	JWTSecret string // Secret key for signing JWTs, only required in jwt mode
}

// IsSession reports whether session mode is configured.
func (a AuthConfig) IsSession() bool { return a.Mode == AuthModeSession }

// IsJWT reports whether jwt mode is configured.
func (a AuthConfig) IsJWT() bool { return a.Mode == AuthModeJWT }

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port          string // Port for the HTTP server
	SweepInterval time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Store  *StoreConfig
	Auth   *AuthConfig
	Server *ServerConfig
	Log    *LogConfig
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must be positive, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize validates and clamps the pool size between 5 and 100.
func clampPoolSize(size int, varName string, errors *[]string) int {
	if size < 5 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 5", varName, size))
		return 5
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Store Configuration
	driver := StoreDriver(strings.ToLower(getOptionalEnv("STORE_DRIVER", string(StoreDriverPostgres))))
	storeConfig := &StoreConfig{
		Driver:         driver,
		RedisURL:       getOptionalEnv("REDIS_URL", ""),
		MigrationsPath: getOptionalEnv("MIGRATIONS_PATH", "db/migrations"),
	}
	switch driver {
	case StoreDriverPostgres:
		// Database settings are only required when the postgres backend is selected.
		storeConfig.Pool = &PoolConfig{
			User:     getRequiredEnv("DB_USER", &errors),
			Password: getRequiredEnv("DB_PASSWORD", &errors),
			DBName:   getRequiredEnv("DB_NAME", &errors),
			Host:     getOptionalEnv("DB_HOST", "localhost"),
			Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
			MaxSize:  clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), "DB_POOL_SIZE", &errors),
		}
	case StoreDriverMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid value for STORE_DRIVER: expected 'postgres' or 'memory', got '%s'", driver))
	}
	if storeConfig.RedisURL != "" {
		if _, err := url.Parse(storeConfig.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid value for REDIS_URL: %v", err))
		}
	}

	// Auth Configuration
	mode := AuthMode(strings.ToLower(getOptionalEnv("AUTH_MODE", string(AuthModeSession))))
	authConfig := &AuthConfig{Mode: mode}
	switch mode {
	case AuthModeSession:
		authConfig.JWTSecret = getOptionalEnv("JWT_SECRET", "")
	case AuthModeJWT:
		authConfig.JWTSecret = getRequiredEnv("JWT_SECRET", &errors)
	default:
		errors = append(errors, fmt.Sprintf("invalid value for AUTH_MODE: expected 'session' or 'jwt', got '%s'", mode))
	}

	// Server Configuration
	serverConfig := &ServerConfig{
		Port:          getOptionalEnv("PORT", "8080"),
		SweepInterval: getOptionalEnvDuration("SWEEP_INTERVAL", 5*time.Minute, &errors),
	}

	logConfig := &LogConfig{
		Level:  strings.ToLower(getOptionalEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getOptionalEnv("LOG_FORMAT", "json")),
	}

	// If any errors were collected during loading, return a single aggregated error message.
	if len(errors) > 0 {
		return nil, apperror.NewConfigError("invalid configuration",
			fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- ")))
	}

	return &AppConfig{
		Store:  storeConfig,
		Auth:   authConfig,
		Server: serverConfig,
		Log:    logConfig,
	}, nil
}
