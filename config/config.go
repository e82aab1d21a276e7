package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataSource string
	DataDir    string
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	HTTPPort string

	MaxConcurrency   int
	MaxRetries       int
	RetryBaseMs      int
	FetchRateLimitMs int

	AnalyticsPath string
	Analytics     Analytics
}

// Load reads the .env file and returns a populated Config struct.
// Analytics settings start from defaults and are overlaid by the TOML file
// named in ANALYTICS_CONFIG, if it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DataSource: getEnv("DATA_SOURCE", "csv"),
		DataDir:    getEnv("DATA_DIR", "./data"),
		SQLitePath: getEnv("SQLITE_PATH", "./airbnb.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dashboard"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dashboard123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:       getEnvInt("MAX_RETRIES", 2),
		RetryBaseMs:      getEnvInt("RETRY_BASE_MS", 200),
		FetchRateLimitMs: getEnvInt("FETCH_RATE_LIMIT_MS", 0),

		AnalyticsPath: getEnv("ANALYTICS_CONFIG", "./analytics.toml"),
		Analytics:     DefaultAnalytics(),
	}

	file, err := LoadAnalyticsFile(cfg.AnalyticsPath)
	if err != nil {
		return nil, err
	}
	cfg.Analytics = cfg.Analytics.Merge(file.Analytics)

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
