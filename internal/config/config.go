// Package config provides configuration management for the item API server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultServerPort        = 8000
	DefaultLogLevel          = "info"
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMetricsEnabled    = true
	DefaultAuthMode          = "none"
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabase     = "unipu"
	DefaultMongoCollection   = "items"
	DefaultMongoTimeout      = 10 * time.Second
	DefaultListLimit         = 1000
	DefaultEnvFile           = ".env"
	DefaultCORSAllowedOrigin = "*"
)

// Environment variable names.
const (
	EnvMongoURI           = "MONGODB_URI"
	EnvMongoDatabase      = "APP_MONGODB_DATABASE"
	EnvMongoCollection    = "APP_MONGODB_COLLECTION"
	EnvMongoTimeout       = "APP_MONGODB_CONNECT_TIMEOUT"
	EnvListLimit          = "APP_LIST_LIMIT"
	EnvServerPort         = "APP_SERVER_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvOTLPEndpoint       = "APP_OTLP_ENDPOINT"
	EnvAuthMode           = "APP_AUTH_MODE"
	EnvBasicAuthUsers     = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys            = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvCORSAllowedOrigins = "APP_CORS_ALLOWED_ORIGINS"
	EnvEnvFile            = "APP_ENV_FILE"
)

// Config holds the application configuration.
type Config struct {
	// Document store.
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MongoTimeout    time.Duration
	ListLimit       int64

	// Server settings.
	ServerPort         int
	LogLevel           string
	ShutdownTimeout    time.Duration
	MetricsEnabled     bool
	OTLPEndpoint       string // "" disables tracing, "stdout" prints spans.
	CORSAllowedOrigins []string

	// Authentication mode: none, basic, apikey.
	AuthMode       string
	BasicAuthUsers string // "user1:bcrypt_hash,user2:bcrypt_hash"
	APIKeys        string // "key1:name1,key2:name2"
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrMissingMongoURI        = errors.New("MongoDB connection string must be set")
	ErrMissingMongoDatabase   = errors.New("MongoDB database name must be set")
	ErrMissingMongoCollection = errors.New("MongoDB collection name must be set")
	ErrInvalidMongoTimeout    = errors.New("MongoDB connect timeout must be positive")
	ErrInvalidListLimit       = errors.New("list limit must be positive")
	ErrInvalidAuthMode        = errors.New("auth mode must be one of: none, basic, apikey")
	ErrInvalidBasicAuthConfig = errors.New("basic auth users must be set when auth mode is basic")
	ErrInvalidAPIKeyConfig    = errors.New("API keys must be set when auth mode is apikey")
)

// Load reads configuration from an optional .env file, then environment
// variables, on top of defaults. Variables already set in the process
// environment win over the .env file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		MongoURI:           DefaultMongoURI,
		MongoDatabase:      DefaultMongoDatabase,
		MongoCollection:    DefaultMongoCollection,
		MongoTimeout:       DefaultMongoTimeout,
		ListLimit:          DefaultListLimit,
		ServerPort:         DefaultServerPort,
		LogLevel:           DefaultLogLevel,
		ShutdownTimeout:    DefaultShutdownTimeout,
		MetricsEnabled:     DefaultMetricsEnabled,
		CORSAllowedOrigins: []string{DefaultCORSAllowedOrigin},
		AuthMode:           DefaultAuthMode,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads APP_ENV_FILE (default .env). A missing file is not an error.
func loadEnvFile() error {
	path := os.Getenv(EnvEnvFile)
	if path == "" {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func (c *Config) loadFromEnv() error {
	if err := c.loadStoreEnv(); err != nil {
		return err
	}

	if err := c.loadServerEnv(); err != nil {
		return err
	}

	c.loadAuthEnv()

	return nil
}

// loadStoreEnv loads document store settings.
func (c *Config) loadStoreEnv() error {
	if val := os.Getenv(EnvMongoURI); val != "" {
		c.MongoURI = val
	}

	if val := os.Getenv(EnvMongoDatabase); val != "" {
		c.MongoDatabase = val
	}

	if val := os.Getenv(EnvMongoCollection); val != "" {
		c.MongoCollection = val
	}

	if val := os.Getenv(EnvMongoTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMongoTimeout, err)
		}
		c.MongoTimeout = timeout
	}

	if val := os.Getenv(EnvListLimit); val != "" {
		limit, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvListLimit, err)
		}
		c.ListLimit = limit
	}

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvOTLPEndpoint); val != "" {
		c.OTLPEndpoint = val
	}

	if val := os.Getenv(EnvCORSAllowedOrigins); val != "" {
		c.CORSAllowedOrigins = splitList(val)
	}

	return nil
}

// loadAuthEnv loads authentication environment variables.
func (c *Config) loadAuthEnv() {
	if val := os.Getenv(EnvAuthMode); val != "" {
		c.AuthMode = val
	}

	if val := os.Getenv(EnvBasicAuthUsers); val != "" {
		c.BasicAuthUsers = val
	}

	if val := os.Getenv(EnvAPIKeys); val != "" {
		c.APIKeys = val
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateAuth()
}

func (c *Config) validateStore() error {
	switch {
	case c.MongoURI == "":
		return ErrMissingMongoURI
	case c.MongoDatabase == "":
		return ErrMissingMongoDatabase
	case c.MongoCollection == "":
		return ErrMissingMongoCollection
	case c.MongoTimeout <= 0:
		return ErrInvalidMongoTimeout
	case c.ListLimit <= 0:
		return ErrInvalidListLimit
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

func (c *Config) validateAuth() error {
	switch c.AuthMode {
	case "", "none":
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	default:
		return ErrInvalidAuthMode
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// TracingEnabled reports whether an OTLP endpoint is configured.
func (c *Config) TracingEnabled() bool {
	return c.OTLPEndpoint != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
