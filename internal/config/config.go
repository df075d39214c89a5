// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Twitter     TwitterConfig
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Storage     StorageConfig
}

// TwitterConfig holds Twitter API credentials and request pacing
type TwitterConfig struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string
	Host              string
	RequestsPerWindow int
	Window            time.Duration
	PageSize          int
	Timeout           time.Duration
}

// HasUserContext reports whether the OAuth 1.0a credentials are all set
func (c TwitterConfig) HasUserContext() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// HasCredentials reports whether any usable authentication is configured
func (c TwitterConfig) HasCredentials() bool {
	return c.HasUserContext() || c.BearerToken != ""
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// ConnString returns the postgres connection URL
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled        bool
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsTopic    string
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	// SaveFolder is the root of the raw tweet files, one directory per handle
	SaveFolder string
	// ArchiveDB is the SQLite tweet archive path; empty disables the archive
	ArchiveDB string
}

// Load loads configuration from environment variables, after an optional .env file
func Load() (Config, error) {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Twitter: TwitterConfig{
			ConsumerKey:       getEnv("TWITTER_CONSUMER_KEY", ""),
			ConsumerSecret:    getEnv("TWITTER_CONSUMER_SECRET", ""),
			AccessToken:       getEnv("TWITTER_ACCESS_TOKEN", ""),
			AccessTokenSecret: getEnv("TWITTER_ACCESS_TOKEN_SECRET", ""),
			BearerToken:       getEnv("TWITTER_BEARER_TOKEN", ""),
			Host:              getEnv("TWITTER_API_HOST", "https://api.twitter.com"),
			RequestsPerWindow: getEnvAsInt("TWITTER_REQUESTS_PER_WINDOW", 900),
			Window:            getEnvAsDuration("TWITTER_WINDOW", 15*time.Minute),
			PageSize:          getEnvAsInt("TWITTER_PAGE_SIZE", 100),
			Timeout:           getEnvAsDuration("TWITTER_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "tweetscope"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			Enabled:        getEnvAsBool("NATS_ENABLED", false),
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			EventsTopic:    getEnv("NATS_EVENTS_TOPIC", "tweetscope.runs"),
		},
		Storage: StorageConfig{
			SaveFolder: getEnv("SAVE_FOLDER", "tweets"),
			ArchiveDB:  getEnv("ARCHIVE_DB", ""),
		},
	}

	return config, validate(config)
}

// RequireTwitter checks that the live API client can be built
func (c Config) RequireTwitter() error {
	if !c.Twitter.HasCredentials() {
		return fmt.Errorf("twitter credentials missing: set TWITTER_BEARER_TOKEN or the four TWITTER_CONSUMER_*/TWITTER_ACCESS_* variables")
	}
	return nil
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Twitter.RequestsPerWindow <= 0 {
		return fmt.Errorf("TWITTER_REQUESTS_PER_WINDOW must be positive")
	}
	if config.Twitter.Window <= 0 {
		return fmt.Errorf("TWITTER_WINDOW must be positive")
	}
	if config.Twitter.PageSize < 5 || config.Twitter.PageSize > 100 {
		return fmt.Errorf("TWITTER_PAGE_SIZE must be between 5 and 100")
	}
	if config.NATS.Enabled && config.NATS.EventsTopic == "" {
		return fmt.Errorf("NATS_EVENTS_TOPIC must be set when NATS is enabled")
	}
	if config.Storage.SaveFolder == "" {
		return fmt.Errorf("SAVE_FOLDER must not be empty")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
