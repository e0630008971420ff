// Package config holds the beacon server configuration: a JSON5 file on
// disk overlaid with BEACON_* environment variables.
package config

import "sync"

// Config is the root configuration for the beacon server.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Signals   SignalsConfig   `json:"signals,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
	mu        sync.RWMutex
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"` // empty = allow all
	RateLimitRPM   int      `json:"rate_limit_rpm,omitempty"`  // signals per minute per connection, 0 = unlimited
}

// DatabaseConfig selects the storage backend.
// PostgresDSN is NEVER read from the config file (secret) — only from
// env BEACON_POSTGRES_DSN.
type DatabaseConfig struct {
	Driver      string `json:"driver,omitempty"`      // "sqlite" (default) or "postgres"
	SQLitePath  string `json:"sqlite_path,omitempty"` // default "beacon.db"
	PostgresDSN string `json:"-"`                     // from env BEACON_POSTGRES_DSN only
}

// SignalsConfig points at an optional JSON5 file of custom signal codes
// merged over the builtin table.
type SignalsConfig struct {
	CodesFile string `json:"codes_file,omitempty"`
	Watch     bool   `json:"watch,omitempty"` // hot-reload the codes file on change
}

// TelemetryConfig configures OpenTelemetry trace export. When enabled,
// spans are exported to an OTLP-compatible backend (Jaeger, Tempo, etc.).
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`     // e.g. "localhost:4317"
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext export for local dev
	ServiceName string            `json:"service_name,omitempty"` // default "beacon"
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (auth tokens etc.)
}

// IsPostgres reports whether the postgres backend is selected and usable.
func (c *Config) IsPostgres() bool {
	return c.Database.Driver == "postgres" && c.Database.PostgresDSN != ""
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Server = src.Server
	c.Database = src.Database
	c.Signals = src.Signals
	c.Telemetry = src.Telemetry
}
