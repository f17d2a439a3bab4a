package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Storage    StorageConfig    `yaml:"storage"`
	Maps       MapsConfig       `yaml:"maps"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// StaticDir is the built frontend served behind the route guard.
	// Empty disables the static file server (API-only deployment).
	StaticDir string `yaml:"static_dir"`
	// Production toggles the Secure flag on session cookies.
	Production bool `yaml:"production"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// UnmarshalYAML parses token_ttl from a duration string ("24h"); yaml.v3
// has no native time.Duration support.
func (c *AuthConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.JWTSecret != "" {
		c.JWTSecret = raw.JWTSecret
	}
	if raw.TokenTTL != "" {
		d, err := time.ParseDuration(raw.TokenTTL)
		if err != nil {
			return fmt.Errorf("invalid auth.token_ttl: %w", err)
		}
		c.TokenTTL = d
	}
	return nil
}

// RecognizerConfig points at the external prediction service
type RecognizerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *RecognizerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.BaseURL != "" {
		c.BaseURL = raw.BaseURL
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid recognizer.timeout: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// StorageConfig holds S3 configuration for persisted upload images.
// An empty bucket disables image persistence entirely.
type StorageConfig struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// MapsConfig holds the map provider key handed to the frontend
type MapsConfig struct {
	APIKey string `yaml:"api_key"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file is not an error: every secret can be supplied
// through the environment alone.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if cfg.Recognizer.BaseURL == "" {
		return nil, errors.New("recognizer.base_url (RECOGNIZER_URL) is required")
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Auth:       AuthConfig{TokenTTL: 24 * time.Hour},
		Recognizer: RecognizerConfig{Timeout: 30 * time.Second},
		Log:        LogConfig{Level: "info"},
	}
}

// applyEnv overrides file values with environment variables. Secrets must
// never be committed with the config file, so each one has an env name.
func (c *Config) applyEnv() {
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")
	setString(&c.Server.StaticDir, "STATIC_DIR")

	setString(&c.Database.Host, "DATABASE_HOST")
	setInt(&c.Database.Port, "DATABASE_PORT")
	setString(&c.Database.User, "DATABASE_USER")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Database.DBName, "DATABASE_NAME")
	setString(&c.Database.SSLMode, "DATABASE_SSLMODE")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")

	setString(&c.Recognizer.BaseURL, "RECOGNIZER_URL")

	setString(&c.Storage.Region, "S3_REGION")
	setString(&c.Storage.Bucket, "S3_BUCKET")
	setString(&c.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&c.Storage.Endpoint, "S3_ENDPOINT")

	setString(&c.Maps.APIKey, "MAPS_API_KEY")

	setString(&c.Log.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
