package config

import (
	"github.com/mrz1836/testmo/internal/constants"
)

// Default values that have no natural home in the constants package.
const (
	defaultBackend           = "file"
	defaultProvider          = "gemini"
	defaultRedisURL          = "redis://localhost:6379/0"
	defaultRedisPrefix       = "testmo:"
	defaultImportConcurrency = 1
	defaultBootstrapPassword = "password"
)

// DefaultConfig returns a Config with sensible defaults.
// Path fields are left empty and resolved against the TestMo home at load time.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:       defaultBackend,
			RedisURL:      defaultRedisURL,
			RedisPrefix:   defaultRedisPrefix,
			MaxValueBytes: constants.DefaultMaxValueBytes,
			LockTimeout:   constants.LockTimeout,
		},
		AI: AIConfig{
			Provider:          defaultProvider,
			Model:             constants.DefaultAIModel,
			APIKeyEnvVar:      constants.DefaultAIAPIKeyEnvVar,
			Endpoint:          constants.DefaultAIEndpoint,
			Timeout:           constants.DefaultAITimeout,
			ImportBatchSize:   constants.DefaultImportBatchSize,
			ImportConcurrency: defaultImportConcurrency,
			Retry: RetryConfig{
				MaxAttempts:  constants.MaxRetryAttempts,
				InitialDelay: constants.InitialBackoff,
				MaxDelay:     constants.MaxBackoff,
				Multiplier:   constants.BackoffMultiplier,
				Jitter:       constants.BackoffJitter,
			},
		},
		Activity: ActivityConfig{
			Limit: constants.ActivityLogLimit,
		},
		Auth: AuthConfig{
			BcryptCost:        constants.DefaultBcryptCost,
			BootstrapPassword: defaultBootstrapPassword,
		},
		UI: UIConfig{
			Theme: string(constants.ThemeLight),
		},
		Evidence: EvidenceConfig{
			MaxBytes: constants.DefaultMaxEvidenceBytes,
		},
	}
}
