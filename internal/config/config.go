// Package config provides centralized configuration management for the
// ingestion service. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail
// fast on misconfiguration.
package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Ingest   IngestConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 5m,
	// ingestion responses are synchronous)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds document-store connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 16)
	MaxConns int `env:"DB_MAX_CONNS" default:"16"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// StorageConfig holds object-storage settings for offloaded media.
type StorageConfig struct {
	// Endpoint is the S3-compatible endpoint, host:port (required)
	Endpoint string `env:"STORAGE_ENDPOINT" required:"true"`

	// AccessKey and SecretKey authenticate against the endpoint.
	AccessKey string `env:"STORAGE_ACCESS_KEY" required:"true"`
	SecretKey string `env:"STORAGE_SECRET_KEY" required:"true"`

	// Bucket is created at startup if missing (default: workforce-media)
	Bucket string `env:"STORAGE_BUCKET" default:"workforce-media"`

	// UseSSL enables TLS to the endpoint (default: true)
	UseSSL bool `env:"STORAGE_USE_SSL" default:"true"`

	// PublicBaseURL overrides the URL prefix of returned object URLs.
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`
}

// IngestConfig holds pipeline processing settings.
type IngestConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 25MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"26214400"`

	// MaxBatchSize bounds commit chunks. The backend limit is 500
	// operations per atomic batch; 400 leaves headroom (default: 400).
	MaxBatchSize int `env:"INGEST_MAX_BATCH_SIZE" default:"400"`

	// ValidateWorkers is the row-validation pool size (default: 4)
	ValidateWorkers int `env:"INGEST_VALIDATE_WORKERS" default:"4"`

	// MediaWorkers is the media-processing pool size (default: 4)
	MediaWorkers int `env:"INGEST_MEDIA_WORKERS" default:"4"`

	// MaxConcurrentJobs is the number of parallel ingestion jobs (default: 4)
	MaxConcurrentJobs int `env:"INGEST_MAX_CONCURRENT_JOBS" default:"4"`

	// MaxWaitTime is how long a request waits for a job slot (default: 15s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"15s"`

	// Timeout is the wall-clock bound for one ingestion job (default: 5m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"5m"`

	// Org is the organization prefix in generated identifiers (default: CISS)
	Org string `env:"INGEST_ORG" default:"CISS"`
}

// SecurityConfig holds API authentication settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key validation on /api routes (default: false)
	RequireAPIKey bool `env:"SECURITY_REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys string `env:"SECURITY_API_KEYS"`
}

// Keys returns the configured API keys, split and trimmed.
func (c *SecurityConfig) Keys() []string {
	if c.APIKeys == "" {
		return nil
	}
	parts := strings.Split(c.APIKeys, ",")
	keys := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
