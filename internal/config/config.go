package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// External access-management service
	Auth AuthConfig

	// HTTP server configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Marketing/catalog content
	Content ContentConfig

	// Logging Configuration
	Logging LoggingConfig
}

// AuthConfig holds the contract with the external access-management service
type AuthConfig struct {
	ServiceURL    string        // Base URL of the access-management service
	CheckInterval time.Duration // How often active sessions are re-validated
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr    string
	AllowedOrigin string // CORS origin for the session/contact endpoints
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// ContentConfig holds catalog content configuration
type ContentConfig struct {
	Dir          string        // Directory holding category/service YAML files
	ReloadEvery  time.Duration // Catalog reload interval (0 disables reload)
	TemplatesDir string        // HTML template directory
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// Access-management service base URL - supplied at deploy time
	authURL := os.Getenv("AUTH_SERVICE_URL")
	if authURL == "" {
		authURL = "http://localhost:9090"
	}

	checkInterval := durationEnv("AUTH_CHECK_INTERVAL", 5*time.Minute)

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:5173"
	}

	// Database URL - default to local sqlite file, allow override for dev
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "errandhub.sqlite"
	}

	// Redis address - default to localhost:6379, allow override for dev/docker
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	contentDir := os.Getenv("CONTENT_DIR")
	if contentDir == "" {
		contentDir = "content"
	}

	templatesDir := os.Getenv("TEMPLATES_DIR")
	if templatesDir == "" {
		templatesDir = "web/templates"
	}

	reloadEvery := durationEnv("CONTENT_RELOAD_INTERVAL", 10*time.Minute)

	// Logging configuration - defaults suitable for production
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		Auth: AuthConfig{
			ServiceURL:    authURL,
			CheckInterval: checkInterval,
		},
		Server: ServerConfig{
			ListenAddr:    listenAddr,
			AllowedOrigin: allowedOrigin,
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Content: ContentConfig{
			Dir:          contentDir,
			ReloadEvery:  reloadEvery,
			TemplatesDir: templatesDir,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

// durationEnv parses a duration env var, falling back to def when unset or
// unparseable
func durationEnv(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
