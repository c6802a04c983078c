// Package models - service configuration and operational settings.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store type constants
const (
	StoreTypeJSON     = "json"
	StoreTypeMemory   = "memory"
	StoreTypeSQLite   = "sqlite"
	StoreTypePostgres = "postgres"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Keystore      KeystoreConfig      `yaml:"keystore" json:"keystore"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Download      DownloadConfig      `yaml:"download" json:"download"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

// KeystoreConfig selects and configures the API key store backend.
type KeystoreConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Path     string         `yaml:"path" json:"path"`
	Database DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn" json:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns"`
}

// SecurityConfig holds the master credential and rate limiter tuning.
type SecurityConfig struct {
	MasterKey string          `yaml:"master_key" json:"-"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Window          time.Duration `yaml:"window" json:"window"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// DownloadConfig configures the retrieval worker pool and artifact lifecycle.
type DownloadConfig struct {
	WorkDir        string        `yaml:"work_dir" json:"work_dir"`
	Workers        int           `yaml:"workers" json:"workers"`
	ReapInterval   time.Duration `yaml:"reap_interval" json:"reap_interval"`
	MaxArtifactAge time.Duration `yaml:"max_artifact_age" json:"max_artifact_age"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig returns a configuration with environment-friendly defaults
// that work out of the box.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		Keystore: KeystoreConfig{
			Type: StoreTypeJSON,
			Path: "api_keys.json",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Window:          time.Minute,
				CleanupInterval: 5 * time.Minute,
			},
		},
		Download: DownloadConfig{
			WorkDir:        "temp_downloads",
			Workers:        2,
			ReapInterval:   10 * time.Minute,
			MaxArtifactAge: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Observability: ObservabilityConfig{
			ServiceName: "mediagate",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

// Validate checks the configuration for misconfigurations before startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.TLSEnabled && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		return errors.New("TLS cert and key files are required when TLS is enabled")
	}
	if err := c.Keystore.Validate(); err != nil {
		return err
	}
	if c.Security.MasterKey == "" {
		return errors.New("security.master_key is required")
	}
	if c.Security.RateLimit.Window <= 0 {
		return errors.New("security.rate_limit.window must be positive")
	}
	if c.Download.WorkDir == "" {
		return errors.New("download.work_dir is required")
	}
	if c.Download.Workers < 1 {
		return errors.New("download.workers must be at least 1")
	}
	if c.Download.ReapInterval <= 0 || c.Download.MaxArtifactAge <= 0 {
		return errors.New("download.reap_interval and download.max_artifact_age must be positive")
	}
	if err := validateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	if c.Observability.Tracing.Enabled {
		switch c.Observability.Tracing.Exporter {
		case "stdout":
		case "otlp":
			if c.Observability.Tracing.OTLPEndpoint == "" {
				return errors.New("observability.tracing.otlp_endpoint is required for the otlp exporter")
			}
		default:
			return fmt.Errorf("unsupported trace exporter: %s", c.Observability.Tracing.Exporter)
		}
	}
	return nil
}

func validateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unsupported log level: %s", level)
	}
}

// Validate checks a keystore configuration against its backend type.
func (kc *KeystoreConfig) Validate() error {
	switch kc.Type {
	case StoreTypeJSON:
		if kc.Path == "" {
			return errors.New("path is required for the json keystore")
		}
	case StoreTypeMemory:
		// No additional configuration required.
	case StoreTypeSQLite, StoreTypePostgres:
		if kc.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the %s keystore", kc.Type)
		}
	default:
		return fmt.Errorf("unsupported keystore type: %s", kc.Type)
	}
	return nil
}
