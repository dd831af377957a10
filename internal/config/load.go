package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

// newViperInstance creates a Viper instance with the TESTMO_ environment
// prefix, the dotted-key replacer and all defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TESTMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config, resolves paths and validates.
func unmarshalAndValidate(v *viper.Viper, home string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := resolvePaths(&cfg, home); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (TESTMO_* prefix), including .env files
//  2. Project config (.testmo/config.yaml)
//  3. Global config (~/.testmo/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}

	loadDotEnv(ctx, constants.EnvFileName, filepath.Join(home, constants.EnvFileName))

	v := newViperInstance()
	if err := loadGlobalConfig(v, filepath.Join(home, constants.GlobalConfigName)); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v, ProjectConfigPath()); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v, home)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("storage.backend", cfg.Storage.Backend).
		Str("ai.model", cfg.AI.Model).
		Dur("ai.timeout", cfg.AI.Timeout).
		Msg("configuration loaded")

	return cfg, nil
}

// loadDotEnv loads each existing .env file in order. Variables that are
// already set are never overridden, so earlier files win over later ones.
func loadDotEnv(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if !fileExists(path) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("failed to load env file")
		}
	}
}

// loadGlobalConfig reads the global config file if it exists.
func loadGlobalConfig(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig merges the project config file over the global one if it exists.
func loadProjectConfig(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level. Storage paths resolve under home.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath, home string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v, home)
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the mapstructure tags exactly; every key needs a default
// so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", "")
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("storage.redis_url", d.Storage.RedisURL)
	v.SetDefault("storage.redis_prefix", d.Storage.RedisPrefix)
	v.SetDefault("storage.max_value_bytes", d.Storage.MaxValueBytes)
	v.SetDefault("storage.lock_timeout", d.Storage.LockTimeout.String())

	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.api_key_env_var", d.AI.APIKeyEnvVar)
	v.SetDefault("ai.endpoint", d.AI.Endpoint)
	v.SetDefault("ai.timeout", d.AI.Timeout.String())
	v.SetDefault("ai.import_batch_size", d.AI.ImportBatchSize)
	v.SetDefault("ai.import_concurrency", d.AI.ImportConcurrency)
	v.SetDefault("ai.retry.max_attempts", d.AI.Retry.MaxAttempts)
	v.SetDefault("ai.retry.initial_delay", d.AI.Retry.InitialDelay.String())
	v.SetDefault("ai.retry.max_delay", d.AI.Retry.MaxDelay.String())
	v.SetDefault("ai.retry.multiplier", d.AI.Retry.Multiplier)
	v.SetDefault("ai.retry.jitter", d.AI.Retry.Jitter.String())

	v.SetDefault("activity.limit", d.Activity.Limit)

	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("auth.bootstrap_password", d.Auth.BootstrapPassword)

	v.SetDefault("ui.theme", d.UI.Theme)

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("evidence.max_bytes", d.Evidence.MaxBytes)
}

// applyOverrides merges non-zero override values into the config.
// Zero values cannot be distinguished from "not set" and are ignored.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Storage.Backend != "" {
		cfg.Storage.Backend = overrides.Storage.Backend
	}
	if overrides.Storage.Dir != "" {
		cfg.Storage.Dir = overrides.Storage.Dir
	}
	if overrides.Storage.SQLitePath != "" {
		cfg.Storage.SQLitePath = overrides.Storage.SQLitePath
	}
	if overrides.Storage.RedisURL != "" {
		cfg.Storage.RedisURL = overrides.Storage.RedisURL
	}

	applyAIOverrides(cfg, overrides)

	if overrides.UI.Theme != "" {
		cfg.UI.Theme = overrides.UI.Theme
	}
	if overrides.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = overrides.Metrics.Textfile
	}
}

// applyAIOverrides applies AI-related overrides to the config.
func applyAIOverrides(cfg, overrides *Config) {
	if overrides.AI.Model != "" {
		cfg.AI.Model = overrides.AI.Model
	}
	if overrides.AI.Endpoint != "" {
		cfg.AI.Endpoint = overrides.AI.Endpoint
	}
	if overrides.AI.Timeout != 0 {
		cfg.AI.Timeout = overrides.AI.Timeout
	}
	if overrides.AI.ImportBatchSize != 0 {
		cfg.AI.ImportBatchSize = overrides.AI.ImportBatchSize
	}
	if overrides.AI.ImportConcurrency != 0 {
		cfg.AI.ImportConcurrency = overrides.AI.ImportConcurrency
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
