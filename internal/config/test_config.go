package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the database settings used by integration tests from TEST_DB_* variables.
// It returns a nil Config without error when any of them is missing, so callers can skip.
func LoadTestConfig() (*Config, error) {
	// .env is optional here, look in the repository root too
	_ = godotenv.Load()
	_ = godotenv.Load("./../../.env")

	cfg := &Config{
		AppEnv: "test",
		JWT: JWTConfig{
			Secret:            "integration-test-secret",
			AccessTokenExpiry: time.Hour,
		},
	}

	values := make(map[string]string)
	for _, key := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
		value := os.Getenv(key)
		if value == "" {
			return nil, nil
		}
		values[key] = value
	}

	port, err := strconv.Atoi(values["TEST_DB_PORT"])
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}

	cfg.Database = DatabaseConfig{
		Host:     values["TEST_DB_HOST"],
		Port:     port,
		User:     values["TEST_DB_USER"],
		Password: values["TEST_DB_PASSWORD"],
		DBName:   values["TEST_DB_NAME"],
	}

	return cfg, nil
}
