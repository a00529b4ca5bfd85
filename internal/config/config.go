// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Scan    ScanConfig
	CORS    CORSConfig
	Metrics MetricsConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 120s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// ScanConfig holds data root and rule evaluation settings.
type ScanConfig struct {
	// DataRoot is the directory that is scanned and previewed (default: data/raw)
	DataRoot string `env:"DATA_ROOT" envAlt:"RAW_DATA_DIR" default:"data/raw"`

	// RulesPath is the rule document; empty disables checks
	// (default: docs/prd/dashboard_checks.yml)
	RulesPath string `env:"RULES_PATH" default:"docs/prd/dashboard_checks.yml"`

	// Workers is how many files are profiled concurrently (default: 4)
	Workers int `env:"SCAN_WORKERS" default:"4"`

	// MaxConcurrent is the number of scans served at once (default: 4)
	MaxConcurrent int `env:"SCAN_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a request waits for a scan slot (default: 30s)
	MaxWait time.Duration `env:"SCAN_MAX_WAIT" default:"30s"`
}

// CORSConfig holds cross-origin settings for the JSON API.
type CORSConfig struct {
	// AllowedOrigins is a comma-separated origin list (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled mounts GET /metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
