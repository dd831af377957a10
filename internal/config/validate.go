package config

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

// Retry attempt bounds accepted by Validate.
const (
	minRetryAttempts = 1
	maxRetryAttempts = 10
)

// validBackends lists the storage backends Validate accepts.
//
//nolint:gochecknoglobals // Read-only lookup table
var validBackends = map[string]bool{
	"file":   true,
	"sqlite": true,
	"redis":  true,
	"memory": true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - storage backend must be file, sqlite, redis or memory
//   - timeouts and byte limits must be positive
//   - ai retry attempts must be between 1 and 10, multiplier at least 1
//   - import batch size, import concurrency and activity limit must be at least 1
//   - bcrypt cost must be within bcrypt's accepted range
//   - ui theme must be light or dark
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateStorageConfig(&cfg.Storage); err != nil {
		return err
	}
	if err := validateAIConfig(&cfg.AI); err != nil {
		return err
	}
	if cfg.Activity.Limit < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidActivity,
			"activity.limit must be at least 1, got %d", cfg.Activity.Limit)
	}
	if err := validateAuthConfig(&cfg.Auth); err != nil {
		return err
	}
	return validateUIConfig(cfg)
}

func validateStorageConfig(cfg *StorageConfig) error {
	if !validBackends[cfg.Backend] {
		return errors.Wrapf(errors.ErrConfigInvalidStorage,
			"storage.backend must be one of file, sqlite, redis, memory, got %q", cfg.Backend)
	}
	if cfg.MaxValueBytes <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidStorage,
			"storage.max_value_bytes must be positive, got %d", cfg.MaxValueBytes)
	}
	if cfg.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidStorage,
			"storage.lock_timeout must be positive, got %s", cfg.LockTimeout)
	}
	if cfg.Backend == "redis" && cfg.RedisURL == "" {
		return errors.Wrap(errors.ErrConfigInvalidStorage, "storage.redis_url is required for the redis backend")
	}
	return nil
}

func validateAIConfig(cfg *AIConfig) error {
	if cfg.Provider != defaultProvider {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.provider must be %s, got %q", defaultProvider, cfg.Provider)
	}
	if cfg.Model == "" {
		return errors.Wrap(errors.ErrConfigInvalidAI, "ai.model must not be empty")
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.ImportBatchSize < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.import_batch_size must be at least 1, got %d", cfg.ImportBatchSize)
	}
	if cfg.ImportConcurrency < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.import_concurrency must be at least 1, got %d", cfg.ImportConcurrency)
	}

	r := cfg.Retry
	if r.MaxAttempts < minRetryAttempts || r.MaxAttempts > maxRetryAttempts {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.retry.max_attempts must be between %d and %d, got %d",
			minRetryAttempts, maxRetryAttempts, r.MaxAttempts)
	}
	if r.InitialDelay <= 0 || r.MaxDelay <= 0 {
		return errors.Wrap(errors.ErrConfigInvalidAI, "ai.retry delays must be positive")
	}
	if r.MaxDelay < r.InitialDelay {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.retry.max_delay %s is shorter than initial_delay %s", r.MaxDelay, r.InitialDelay)
	}
	if r.Multiplier < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.retry.multiplier must be at least 1, got %g", r.Multiplier)
	}
	if r.Jitter < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidAI,
			"ai.retry.jitter must not be negative, got %s", r.Jitter)
	}
	return nil
}

func validateAuthConfig(cfg *AuthConfig) error {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return errors.Wrapf(errors.ErrConfigInvalidAuth,
			"auth.bcrypt_cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.BootstrapPassword == "" {
		return errors.Wrap(errors.ErrConfigInvalidAuth, "auth.bootstrap_password must not be empty")
	}
	return nil
}

func validateUIConfig(cfg *Config) error {
	switch constants.Theme(cfg.UI.Theme) {
	case constants.ThemeLight, constants.ThemeDark:
	default:
		return errors.Wrapf(errors.ErrConfigInvalidUI,
			"ui.theme must be light or dark, got %q", cfg.UI.Theme)
	}
	if cfg.Evidence.MaxBytes <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidUI,
			"evidence.max_bytes must be positive, got %d", cfg.Evidence.MaxBytes)
	}
	return nil
}
