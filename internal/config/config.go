// Package config provides configuration management for TestMo.
//
// Configuration is layered: built-in defaults, the global file
// (~/.testmo/config.yaml), the project file (.testmo/config.yaml), .env files,
// TESTMO_* environment variables, and finally CLI flag overrides.
//
// Import rules:
//   - CAN import: internal/constants, internal/errors, std lib
//   - MUST NOT import: any other internal packages
package config

import (
	"os"
	"time"
)

// Config is the root configuration structure for TestMo.
// Fields use mapstructure tags for viper and yaml tags for display.
type Config struct {
	// Storage selects and tunes the persistence backend.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// AI contains settings for the AI collaborator.
	AI AIConfig `yaml:"ai" mapstructure:"ai"`

	// Activity tunes the activity journal.
	Activity ActivityConfig `yaml:"activity" mapstructure:"activity"`

	// Auth tunes the user directory.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// UI contains presentation preferences.
	UI UIConfig `yaml:"ui" mapstructure:"ui"`

	// Metrics configures the Prometheus textfile export.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Evidence limits attached evidence images.
	Evidence EvidenceConfig `yaml:"evidence" mapstructure:"evidence"`
}

// StorageConfig contains persistence backend settings.
type StorageConfig struct {
	// Backend is one of file, sqlite, redis or memory.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Dir is the directory of the file backend.
	// Empty means ~/.testmo/data.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// SQLitePath is the database file of the sqlite backend.
	// Empty means ~/.testmo/testmo.db.
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// RedisURL is the connection URL of the redis backend.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`

	// RedisPrefix namespaces every key written to redis.
	RedisPrefix string `yaml:"redis_prefix" mapstructure:"redis_prefix"`

	// MaxValueBytes is the largest value a single key may hold.
	MaxValueBytes int64 `yaml:"max_value_bytes" mapstructure:"max_value_bytes"`

	// LockTimeout bounds the wait for the file backend lock.
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// AIConfig contains settings for the generative model.
type AIConfig struct {
	// Provider names the model provider. Only gemini is supported.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier sent with each request.
	Model string `yaml:"model" mapstructure:"model"`

	// APIKeyEnvVar names the environment variable holding the API key.
	// The key itself is never stored in configuration files.
	APIKeyEnvVar string `yaml:"api_key_env_var" mapstructure:"api_key_env_var"`

	// Endpoint is the REST base URL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Timeout bounds a single AI operation including retries.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ImportBatchSize is the number of CSV data rows sent per import request.
	ImportBatchSize int `yaml:"import_batch_size" mapstructure:"import_batch_size"`

	// ImportConcurrency is the number of import batches in flight at once.
	ImportConcurrency int `yaml:"import_concurrency" mapstructure:"import_concurrency"`

	// Retry configures backoff for rate-limited calls.
	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// APIKey resolves the API key from the configured environment variable.
func (c AIConfig) APIKey() string {
	if c.APIKeyEnvVar == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnvVar)
}

// RetryConfig contains exponential backoff settings.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" mapstructure:"multiplier"`
	Jitter       time.Duration `yaml:"jitter" mapstructure:"jitter"`
}

// ActivityConfig tunes the activity journal.
type ActivityConfig struct {
	// Limit is the number of most recent entries kept.
	Limit int `yaml:"limit" mapstructure:"limit"`
}

// AuthConfig tunes the user directory.
type AuthConfig struct {
	// BcryptCost is the work factor for new password hashes.
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`

	// BootstrapPassword is the initial password of the admin user.
	BootstrapPassword string `yaml:"bootstrap_password" mapstructure:"bootstrap_password"`
}

// UIConfig contains presentation preferences.
type UIConfig struct {
	// Theme is the default theme for a fresh session: light or dark.
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives Prometheus metrics in text format on exit.
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// EvidenceConfig limits attached evidence.
type EvidenceConfig struct {
	// MaxBytes is the largest evidence file accepted.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}
