// Package config reads process settings from the environment. A .env file,
// when present, is loaded by the cmd entrypoints before Load is called.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
	MaxRetries int
}

type SessionConfig struct {
	Secret     string
	Issuer     string
	TTL        time.Duration
	MaxPerUser int
}

type Config struct {
	Port        string
	Env         string
	Database    DatabaseConfig
	RedisAddr   string
	KafkaBroker string
	Session     SessionConfig

	EnforceBalanceFloor bool
	LoginRatePerSec     float64
	LoginRateBurst      int
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "3000"),
		Env:  getEnv("APP_ENV", "development"),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "go_leave"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "go-leave.db"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
		},
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		Session: SessionConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Issuer:     getEnv("JWT_ISSUER", "go-leave"),
			TTL:        getEnvDuration("SESSION_TTL", 8*time.Hour),
			MaxPerUser: getEnvInt("SESSION_MAX_PER_ACCOUNT", 3),
		},
		EnforceBalanceFloor: getEnvBool("LEAVE_ENFORCE_BALANCE_FLOOR", false),
		LoginRatePerSec:     getEnvFloat("LOGIN_RATE_PER_SEC", 1),
		LoginRateBurst:      getEnvInt("LOGIN_RATE_BURST", 5),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// getEnvDuration accepts Go durations ("8h", "90m") or a bare number of hours.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if h, err := strconv.ParseFloat(raw, 64); err == nil && h > 0 {
		return time.Duration(h * float64(time.Hour))
	}
	return fallback
}
