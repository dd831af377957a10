package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

func TestDefaultConfig_PassesValidation(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, constants.DefaultAIModel, cfg.AI.Model)
	assert.Equal(t, 3, cfg.AI.ImportBatchSize)
	assert.Equal(t, 5, cfg.AI.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Second, cfg.AI.Retry.InitialDelay)
	assert.Equal(t, 50, cfg.Activity.Limit)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Empty(t, cfg.Metrics.Textfile)
}

func TestAIConfig_APIKey(t *testing.T) {
	t.Setenv("TESTMO_TEST_API_KEY", "AIza-test")

	assert.Equal(t, "AIza-test", AIConfig{APIKeyEnvVar: "TESTMO_TEST_API_KEY"}.APIKey())
	assert.Empty(t, AIConfig{}.APIKey())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"memory backend", func(c *Config) { c.Storage.Backend = "memory" }, nil},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, errors.ErrConfigInvalidStorage},
		{"zero value limit", func(c *Config) { c.Storage.MaxValueBytes = 0 }, errors.ErrConfigInvalidStorage},
		{"zero lock timeout", func(c *Config) { c.Storage.LockTimeout = 0 }, errors.ErrConfigInvalidStorage},
		{"redis without url", func(c *Config) {
			c.Storage.Backend = "redis"
			c.Storage.RedisURL = ""
		}, errors.ErrConfigInvalidStorage},
		{"unknown provider", func(c *Config) { c.AI.Provider = "openai" }, errors.ErrConfigInvalidAI},
		{"empty model", func(c *Config) { c.AI.Model = "" }, errors.ErrConfigInvalidAI},
		{"negative timeout", func(c *Config) { c.AI.Timeout = -time.Second }, errors.ErrConfigInvalidAI},
		{"zero batch size", func(c *Config) { c.AI.ImportBatchSize = 0 }, errors.ErrConfigInvalidAI},
		{"zero concurrency", func(c *Config) { c.AI.ImportConcurrency = 0 }, errors.ErrConfigInvalidAI},
		{"zero attempts", func(c *Config) { c.AI.Retry.MaxAttempts = 0 }, errors.ErrConfigInvalidAI},
		{"eleven attempts", func(c *Config) { c.AI.Retry.MaxAttempts = 11 }, errors.ErrConfigInvalidAI},
		{"ten attempts", func(c *Config) { c.AI.Retry.MaxAttempts = 10 }, nil},
		{"multiplier below one", func(c *Config) { c.AI.Retry.Multiplier = 0.5 }, errors.ErrConfigInvalidAI},
		{"max below initial", func(c *Config) { c.AI.Retry.MaxDelay = time.Second }, errors.ErrConfigInvalidAI},
		{"negative jitter", func(c *Config) { c.AI.Retry.Jitter = -1 }, errors.ErrConfigInvalidAI},
		{"zero activity limit", func(c *Config) { c.Activity.Limit = 0 }, errors.ErrConfigInvalidActivity},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 1 }, errors.ErrConfigInvalidAuth},
		{"bcrypt cost too high", func(c *Config) { c.Auth.BcryptCost = 32 }, errors.ErrConfigInvalidAuth},
		{"empty bootstrap password", func(c *Config) { c.Auth.BootstrapPassword = "" }, errors.ErrConfigInvalidAuth},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, errors.ErrConfigInvalidUI},
		{"dark theme", func(c *Config) { c.UI.Theme = "dark" }, nil},
		{"zero evidence limit", func(c *Config) { c.Evidence.MaxBytes = 0 }, errors.ErrConfigInvalidUI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Validate(nil), errors.ErrConfigNil)
}
