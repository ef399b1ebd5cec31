// Package config loads and validates the service configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// minSecretBytes is the shortest JWT secret accepted outside development.
const minSecretBytes = 32

// Config holds application configuration loaded from the environment.
type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// JWTSecret is the HMAC key for both token kinds.
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTAccessTTL  time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL time.Duration `mapstructure:"JWT_REFRESH_TTL"`

	LockoutThreshold int `mapstructure:"LOCKOUT_THRESHOLD"`
	BcryptCost       int `mapstructure:"BCRYPT_COST"`

	// AuditValidations also records an audit event for every validate call.
	AuditValidations  bool          `mapstructure:"AUDIT_VALIDATIONS"`
	AuditWorkers      int           `mapstructure:"AUDIT_WORKERS"`
	AuditBuffer       int           `mapstructure:"AUDIT_BUFFER"`
	AuditWriteTimeout time.Duration `mapstructure:"AUDIT_WRITE_TIMEOUT"`

	ReaperInterval time.Duration `mapstructure:"REAPER_INTERVAL"`
	ReaperHour     int           `mapstructure:"REAPER_HOUR"`
	ReaperTimezone string        `mapstructure:"REAPER_TIMEZONE"`

	DBHost           string        `mapstructure:"DB_HOST"`
	DBPort           string        `mapstructure:"DB_PORT"`
	DBUser           string        `mapstructure:"DB_USER"`
	DBPassword       string        `mapstructure:"DB_PASSWORD"`
	DBName           string        `mapstructure:"DB_NAME"`
	DBSSLMode        string        `mapstructure:"DB_SSLMODE"`
	// DBInstanceName is the Cloud SQL connection name; when set the unix socket is used.
	DBInstanceName   string        `mapstructure:"INSTANCE_CONNECTION_NAME"`
	DBConnectTimeout time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
	RunMigrations    bool          `mapstructure:"RUN_MIGRATIONS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	SessionPrefix string `mapstructure:"SESSION_PREFIX"`

	// AuthServiceURL switches bearer authentication to a remote validate call when set.
	AuthServiceURL       string        `mapstructure:"AUTH_SERVICE_URL"`
	RemoteMaxAttempts    int           `mapstructure:"REMOTE_MAX_ATTEMPTS"`
	RemoteBackoffBase    time.Duration `mapstructure:"REMOTE_BACKOFF_BASE"`
	RemoteBackoffMax     time.Duration `mapstructure:"REMOTE_BACKOFF_MAX"`
	RemoteAttemptTimeout time.Duration `mapstructure:"REMOTE_ATTEMPT_TIMEOUT"`

	LoginRatePerMin int `mapstructure:"LOGIN_RATE_PER_MIN"`
}

var defaults = map[string]any{
	"APP_ENV":                  "development",
	"HTTP_ADDR":                ":8080",
	"LOG_LEVEL":                "info",
	"JWT_SECRET":               "",
	"JWT_ACCESS_TTL":           "1h",
	"JWT_REFRESH_TTL":          "168h",
	"LOCKOUT_THRESHOLD":        5,
	"BCRYPT_COST":              10,
	"AUDIT_VALIDATIONS":        false,
	"AUDIT_WORKERS":            2,
	"AUDIT_BUFFER":             1024,
	"AUDIT_WRITE_TIMEOUT":      "5s",
	"REAPER_INTERVAL":          "24h",
	"REAPER_HOUR":              2,
	"REAPER_TIMEZONE":          "UTC",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"DB_USER":                  "postgres",
	"DB_PASSWORD":              "",
	"DB_NAME":                  "auth",
	"DB_SSLMODE":               "disable",
	"INSTANCE_CONNECTION_NAME": "",
	"DB_CONNECT_TIMEOUT":       "60s",
	"RUN_MIGRATIONS":           true,
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"SESSION_PREFIX":           "session",
	"AUTH_SERVICE_URL":         "",
	"REMOTE_MAX_ATTEMPTS":      3,
	"REMOTE_BACKOFF_BASE":      "1s",
	"REMOTE_BACKOFF_MAX":       "2s",
	"REMOTE_ATTEMPT_TIMEOUT":   "5s",
	"LOGIN_RATE_PER_MIN":       20,
}

// Load reads .env in the working directory (if present), then the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit .env path. A missing file is ignored.
// Env vars override the file.
func LoadFrom(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore missing .env

	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if len(c.JWTSecret) < minSecretBytes && !c.IsDevelopment() {
		return fmt.Errorf("config: JWT_SECRET must be at least %d bytes outside development", minSecretBytes)
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return errors.New("config: JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}
	if c.LockoutThreshold < 1 {
		return errors.New("config: LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.RemoteMaxAttempts < 1 {
		return errors.New("config: REMOTE_MAX_ATTEMPTS must be at least 1")
	}
	if c.RemoteBackoffBase <= 0 || c.RemoteBackoffMax < c.RemoteBackoffBase {
		return errors.New("config: REMOTE_BACKOFF_BASE must be positive and not above REMOTE_BACKOFF_MAX")
	}
	if c.ReaperHour < 0 || c.ReaperHour > 23 {
		return errors.New("config: REAPER_HOUR must be between 0 and 23")
	}
	return nil
}
