// Package config loads the ledger service configuration from environment
// variables, applies defaults and validates the result on startup.
package config

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Import   ImportConfig
	Export   ExportConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// StoreConfig selects and configures transaction persistence.
type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// DatabaseURL is required for the postgres driver.
	// DATABASE_URL and DB_URL are both accepted.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds spreadsheet import limits.
type ImportConfig struct {
	// MaxFileSize accepts byte counts or units such as "10MB" or "8MiB".
	MaxFileSize   ByteSize      `env:"IMPORT_MAX_FILE_SIZE" default:"10MiB"`
	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"15s"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" default:"1m"`
}

// ExportConfig holds export naming settings.
type ExportConfig struct {
	SheetName  string `env:"EXPORT_SHEET_NAME" default:"Transactions"`
	FilePrefix string `env:"EXPORT_FILE_PREFIX" default:"ledger"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	// RequireAPIKey rejects API requests without a configured key.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of member:key pairs.
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers
	// are honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `env:"METRICS_ENABLED" default:"true"`
	Namespace string `env:"METRICS_NAMESPACE" default:"ledger"`
}

// ByteSize is a size in bytes that parses human-readable units.
type ByteSize int64

// ParseByteSize parses values like "1048576", "10MB" or "8MiB".
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return ByteSize(n), nil
}

// String formats the size with IEC units.
func (b ByteSize) String() string {
	if b < 0 {
		return strconv.FormatInt(int64(b), 10) + " B"
	}
	return humanize.IBytes(uint64(b))
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
