package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Events   EventsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	FetchLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

// BackendConfig points at the scraping service that issues the CAPTCHAs.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	// DownloadDir is the backend's artifact directory; bare archive names
	// returned by the CNR workflow are resolved against it.
	DownloadDir string
	// RunTTL bounds how long a pending or resolved run stays addressable.
	RunTTL time.Duration
	// RunLogTTL is how long the redis copy of a run's log is kept.
	RunLogTTL time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	Enabled   bool
	JwtSecret string
}

type EventsConfig struct {
	OutcomeTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			FetchLogFilePath:   getEnv("FETCH_LOG_FILE_PATH", "logs/fetch.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("ECOURTS_BACKEND_URL", "http://localhost:5000/api"),
			RequestTimeout: getEnvAsDuration("ECOURTS_REQUEST_TIMEOUT", 90*time.Second),
			DownloadDir:    getEnv("ECOURTS_DOWNLOAD_DIR", ""),
			RunTTL:         getEnvAsDuration("RUN_TTL", 10*time.Minute),
			RunLogTTL:      getEnvAsDuration("RUN_LOG_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			Enabled:   getEnvAsBool("AUTH_ENABLED", false),
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Events: EventsConfig{
			OutcomeTopic: getEnv("OUTCOME_TOPIC_NAME", "FETCH_OUTCOME"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
