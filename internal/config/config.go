// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the matching variable is not set
const (
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultAppEnv        = "development"
	defaultAccessExpiry  = time.Hour
	defaultCORSOrigin    = "http://localhost:3001"
	defaultUploadDir     = "uploads"
	defaultMaxAvatarSize = 5 << 20
	defaultRateLimit     = 100
	defaultPurgeSchedule = "@hourly"
	developmentJWTSecret = "grmr-development-secret-do-not-use-in-production"
	productionEnv        = "production"
)

// Config holds all configuration for the application
type Config struct {
	AppEnv   string
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Tokens   TokensConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
	// RateLimit is the number of requests allowed per client IP and minute
	RateLimit int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds access token settings
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
	// InsecureFallback is set when no secret was configured outside production
	InsecureFallback bool
}

// UploadConfig holds avatar storage settings
type UploadConfig struct {
	Dir           string
	MaxAvatarSize int64
}

// TokensConfig holds the optional revocation settings
type TokensConfig struct {
	RevocationEnabled bool
	APIKey            string
	// PurgeSchedule is the cron schedule of the expired revocation cleanup
	PurgeSchedule string
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.AppEnv == productionEnv
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = defaultAppEnv
	}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	if cfg.Server.Port, err = intEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimit, err = intEnv("RATE_LIMIT_PER_MINUTE", defaultRateLimit); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}

	// CORS configuration
	cfg.CORS.AllowedOrigins = splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = developmentJWTSecret
		cfg.JWT.InsecureFallback = true
	}

	cfg.JWT.AccessTokenExpiry = defaultAccessExpiry
	if expiryStr := os.Getenv("JWT_ACCESS_TOKEN_EXPIRY"); expiryStr != "" {
		expiry, err := time.ParseDuration(expiryStr)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
		}
		if expiry <= 0 {
			return nil, fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRY must be positive")
		}
		cfg.JWT.AccessTokenExpiry = expiry
	}

	// Upload configuration
	cfg.Upload.Dir = os.Getenv("UPLOAD_DIR")
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = defaultUploadDir
	}
	maxSize, err := intEnv("MAX_AVATAR_SIZE", defaultMaxAvatarSize)
	if err != nil {
		return nil, err
	}
	cfg.Upload.MaxAvatarSize = int64(maxSize)

	// Token revocation configuration
	if revocationStr := os.Getenv("TOKEN_REVOCATION_ENABLED"); revocationStr != "" {
		enabled, err := strconv.ParseBool(revocationStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_REVOCATION_ENABLED: %w", err)
		}
		cfg.Tokens.RevocationEnabled = enabled
	}
	cfg.Tokens.APIKey = os.Getenv("API_KEY")
	cfg.Tokens.PurgeSchedule = os.Getenv("TOKEN_PURGE_SCHEDULE")
	if cfg.Tokens.PurgeSchedule == "" {
		cfg.Tokens.PurgeSchedule = defaultPurgeSchedule
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// intEnv reads a positive integer variable, falling back to def when unset
func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}

// splitOrigins parses a comma-separated origin list
func splitOrigins(s string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(s, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{defaultCORSOrigin}
	}
	return origins
}
