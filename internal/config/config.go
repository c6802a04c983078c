package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mediagate/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("MEDIAGATE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("MEDIAGATE_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("MEDIAGATE_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("MEDIAGATE_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("MEDIAGATE_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("MEDIAGATE_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("MEDIAGATE_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("MEDIAGATE_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Keystore configuration
	if storeType := os.Getenv("MEDIAGATE_KEYSTORE_TYPE"); storeType != "" {
		config.Keystore.Type = storeType
	}

	if storePath := os.Getenv("MEDIAGATE_KEYSTORE_PATH"); storePath != "" {
		config.Keystore.Path = storePath
	}

	if dsn := os.Getenv("MEDIAGATE_DATABASE_DSN"); dsn != "" {
		config.Keystore.Database.DSN = dsn
	}

	if maxOpen := os.Getenv("MEDIAGATE_DATABASE_MAX_OPEN_CONNS"); maxOpen != "" {
		if conns, err := strconv.Atoi(maxOpen); err == nil {
			config.Keystore.Database.MaxOpenConns = conns
		}
	}

	if maxIdle := os.Getenv("MEDIAGATE_DATABASE_MAX_IDLE_CONNS"); maxIdle != "" {
		if conns, err := strconv.Atoi(maxIdle); err == nil {
			config.Keystore.Database.MaxIdleConns = conns
		}
	}

	// Security configuration
	if masterKey := os.Getenv("MASTER_API_KEY"); masterKey != "" {
		config.Security.MasterKey = masterKey
	}

	if window := os.Getenv("MEDIAGATE_RATE_LIMIT_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.Security.RateLimit.Window = d
		}
	}

	if interval := os.Getenv("MEDIAGATE_RATE_LIMIT_CLEANUP_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Security.RateLimit.CleanupInterval = d
		}
	}

	// Download configuration
	if workDir := os.Getenv("MEDIAGATE_WORK_DIR"); workDir != "" {
		config.Download.WorkDir = workDir
	}

	if workers := os.Getenv("MEDIAGATE_DOWNLOAD_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			config.Download.Workers = n
		}
	}

	if interval := os.Getenv("MEDIAGATE_REAP_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Download.ReapInterval = d
		}
	}

	if age := os.Getenv("MEDIAGATE_MAX_ARTIFACT_AGE"); age != "" {
		if d, err := time.ParseDuration(age); err == nil {
			config.Download.MaxArtifactAge = d
		}
	}

	// Logging configuration
	if level := os.Getenv("MEDIAGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("MEDIAGATE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("MEDIAGATE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("MEDIAGATE_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("MEDIAGATE_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if port := os.Getenv("MEDIAGATE_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	if path := os.Getenv("MEDIAGATE_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	// Observability configuration
	if name := os.Getenv("MEDIAGATE_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("MEDIAGATE_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("MEDIAGATE_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("MEDIAGATE_TRACING_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv("MEDIAGATE_TRACING_SAMPLE_RATE"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = f
		}
	}
}
