// Package config loads application configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMongo  = "mongo"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Search  SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // holds the sqlite/badger data, auth.key and the search index
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string // CORS is disabled when empty
}

// StorageConfig selects and configures the store backend.
type StorageConfig struct {
	Driver        string
	DatabaseURL   string // sqlite file or badger directory
	MongoURL      string
	MongoDatabase string
}

// AuthConfig holds token and login settings.
type AuthConfig struct {
	Secret         string // generated and persisted under DataPath when empty
	TokenFormat    string // jwt or paseto
	TokenDuration  time.Duration
	CookieSecure   bool
	StrictTokens   bool // reject requests carrying an invalid token instead of treating them as anonymous
	RateLimit      int  // login/signup attempts per minute per client
	RateLimitBurst int
}

// SearchConfig holds search index settings.
type SearchConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookreview", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "Server port (default: 3000)")
	dataPath := fs.String("data-path", "", "Directory for local data (default: ~/BookReview)")
	driver := fs.String("store", "", "Store driver: sqlite, badger or mongo (default: sqlite)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(*envFile)

	environment := getConfigValue(*env, "ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Environment: environment,
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", getConfigValue("", "PORT", "3000")),
			AllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getConfigValue(*driver, "STORE_DRIVER", DriverSQLite)),
			DatabaseURL:   getConfigValue("", "DATABASE_URL", ""),
			MongoURL:      getConfigValue("", "MONGODB_URL", "mongodb://127.0.0.1:27017"),
			MongoDatabase: getConfigValue("", "MONGODB_DATABASE", "book-review"),
		},
		Auth: AuthConfig{
			Secret:         getConfigValue("", "AUTH_SECRET", getConfigValue("", "SECRET", "")),
			TokenFormat:    strings.ToLower(getConfigValue("", "AUTH_TOKEN_FORMAT", "jwt")),
			CookieSecure:   getBoolConfigValue("", "AUTH_COOKIE_SECURE", environment == "production"),
			StrictTokens:   getBoolConfigValue("", "AUTH_STRICT_TOKENS", false),
			RateLimit:      getIntConfigValue("", "AUTH_RATE_LIMIT", 20),
			RateLimitBurst: getIntConfigValue("", "AUTH_RATE_BURST", 10),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue("", "SEARCH_ENABLED", true),
		},
	}

	durations := []struct {
		dst      *time.Duration
		key, def string
	}{
		{&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Auth.TokenDuration, "AUTH_TOKEN_DURATION", "2h"},
	}
	for _, d := range durations {
		raw := getConfigValue("", d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverBadger:
	case DriverMongo:
		if c.Storage.MongoURL == "" || c.Storage.MongoDatabase == "" {
			return errors.New("mongo store requires MONGODB_URL and MONGODB_DATABASE")
		}
	default:
		return fmt.Errorf("invalid store driver: %q (must be sqlite, badger, or mongo)", c.Storage.Driver)
	}

	switch c.Auth.TokenFormat {
	case "jwt", "paseto":
	default:
		return fmt.Errorf("invalid token format: %q (must be jwt or paseto)", c.Auth.TokenFormat)
	}

	if c.Auth.TokenDuration <= 0 {
		return errors.New("token duration must be positive")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Auth.RateLimit <= 0 || c.Auth.RateLimitBurst <= 0 {
		return errors.New("auth rate limit and burst must be positive")
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, "BookReview"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	if c.Storage.Driver == DriverMongo {
		return nil
	}

	defaultDB := filepath.Join(c.App.DataPath, "bookreview.db")
	if c.Storage.Driver == DriverBadger {
		defaultDB = filepath.Join(c.App.DataPath, "badger")
	}
	c.Storage.DatabaseURL, err = expandPath(c.Storage.DatabaseURL, defaultDB)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
