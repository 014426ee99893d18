package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/quipvault/quipvault/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App      AppSettings      `yaml:"app"`
	Store    StoreSettings    `yaml:"store"`
	Transfer TransferSettings `yaml:"transfer"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// StoreSettings contains local store settings
type StoreSettings struct {
	Path          string `yaml:"path" env:"STORE_PATH"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms" env:"STORE_BUSY_TIMEOUT_MS"`
	MaxConns      int    `yaml:"max_conns" env:"STORE_MAX_CONNS"`
}

// TransferSettings contains export/import pipeline settings
type TransferSettings struct {
	// ExportDir is where generated snapshot files are written.
	ExportDir string `yaml:"export_dir" env:"TRANSFER_EXPORT_DIR"`

	// DefaultMaxErrors is the per-record error budget applied when an import
	// request does not specify one.
	DefaultMaxErrors int `yaml:"default_max_errors" env:"TRANSFER_DEFAULT_MAX_ERRORS"`

	// ProgressBufferSize is the capacity of progress channels handed to callers.
	ProgressBufferSize int `yaml:"progress_buffer_size" env:"TRANSFER_PROGRESS_BUFFER"`

	// AnonymizePatterns are extra regular expressions redacted from content text
	// when an export requests anonymization, on top of the built-in pattern set.
	AnonymizePatterns []string `yaml:"anonymize_patterns" env:"TRANSFER_ANONYMIZE_PATTERNS"`

	// LikelyDuplicateWindow is the timestamp proximity within which two records
	// with identical content and category are flagged as likely duplicates.
	LikelyDuplicateWindow time.Duration `yaml:"likely_duplicate_window" env:"TRANSFER_LIKELY_DUP_WINDOW"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load a .env file into the environment if one is present
	_ = godotenv.Load()

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Set defaults for missing values
	setDefaults(config)

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Save the configuration globally
	cfg = config

	// Log the configuration
	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// Default returns a configuration populated entirely from defaults, without
// touching the filesystem or environment. Intended for embedding callers and tests.
func Default() *AppConfig {
	config := &AppConfig{}
	setDefaults(config)
	return config
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	// App defaults
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = "quipvault"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	// Store defaults
	if config.Store.Path == "" {
		config.Store.Path = constants.DefaultStorePath
	}
	if config.Store.BusyTimeoutMs == 0 {
		config.Store.BusyTimeoutMs = constants.DefaultStoreBusyTimeoutMs
	}
	if config.Store.MaxConns == 0 {
		config.Store.MaxConns = constants.DefaultStoreMaxConnections
	}

	// Transfer defaults
	if config.Transfer.ExportDir == "" {
		config.Transfer.ExportDir = constants.DefaultExportDir
	}
	if config.Transfer.DefaultMaxErrors == 0 {
		config.Transfer.DefaultMaxErrors = constants.DefaultMaxErrorsAllowed
	}
	if config.Transfer.ProgressBufferSize == 0 {
		config.Transfer.ProgressBufferSize = constants.DefaultProgressBufferSize
	}
	if config.Transfer.LikelyDuplicateWindow == 0 {
		config.Transfer.LikelyDuplicateWindow = time.Hour
	}

	// Logging defaults
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	// Validate environment
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		// Instead of failing, use a default and warn
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.Store.Path == "" {
		return fmt.Errorf("store path must be set")
	}

	if config.Transfer.DefaultMaxErrors < 0 {
		return fmt.Errorf("default max errors must not be negative")
	}

	// Validate log level
	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// logConfig logs the current configuration
func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("store_path", config.Store.Path).
		Str("export_dir", config.Transfer.ExportDir).
		Int("default_max_errors", config.Transfer.DefaultMaxErrors).
		Str("log_level", config.Logging.Level).
		Msg("Configuration loaded")
}
