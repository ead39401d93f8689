package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the catalog service settings.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	RateLimitPerMin int
}

// StoreConfig selects the backend: Postgres when DatabaseURL is set,
// otherwise the JSON file at FilePath.
type StoreConfig struct {
	FilePath    string
	DatabaseURL string
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitPerMin: getEnvAsInt("RATE_LIMIT_PER_MIN", 0),
		},
		Store: StoreConfig{
			FilePath:    getEnv("CATALOG_FILE", "products.json"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Token:   getEnv("METRICS_TOKEN", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
