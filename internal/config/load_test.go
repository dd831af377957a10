package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFromPaths_DefaultsWithoutFiles(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadFromPaths(context.Background(), "", "", home)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, "data"), cfg.Storage.Dir)
	assert.Equal(t, filepath.Join(home, "testmo.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, 2*time.Minute, cfg.AI.Timeout)
	assert.Equal(t, 60*time.Second, cfg.AI.Retry.MaxDelay)
	assert.InDelta(t, 2.0, cfg.AI.Retry.Multiplier, 0.0001)
}

func TestLoadFromPaths_ProjectConfigOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	project := filepath.Join(dir, "project.yaml")

	writeFile(t, global, `
storage:
  backend: sqlite
ai:
  model: gemini-global
  timeout: 90s
ui:
  theme: dark
`)
	writeFile(t, project, `
ai:
  model: gemini-project
  retry:
    max_attempts: 3
`)

	cfg, err := LoadFromPaths(context.Background(), project, global, dir)
	require.NoError(t, err)

	assert.Equal(t, "gemini-project", cfg.AI.Model, "project wins over global")
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout, "global value survives the merge")
	assert.Equal(t, 3, cfg.AI.Retry.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestLoadFromPaths_EnvironmentOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project.yaml")
	writeFile(t, project, "ai:\n  model: from-file\n")

	t.Setenv("TESTMO_AI_MODEL", "from-env")
	t.Setenv("TESTMO_AI_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("TESTMO_STORAGE_LOCK_TIMEOUT", "250ms")

	cfg, err := LoadFromPaths(context.Background(), project, "", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.Model)
	assert.Equal(t, 7, cfg.AI.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.LockTimeout)
}

func TestLoadFromPaths_ExpandsHomeInPaths(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project.yaml")
	writeFile(t, project, "storage:\n  dir: ~/testmo-data\n")

	userHome, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := LoadFromPaths(context.Background(), project, "", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, "testmo-data"), cfg.Storage.Dir)
}

func TestLoadFromPaths_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project.yaml")
	writeFile(t, project, "storage:\n  backend: mongo\n")

	_, err := LoadFromPaths(context.Background(), project, "", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigInvalidStorage)
}

func TestLoadFromPaths_MissingFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromPaths(context.Background(),
		filepath.Join(dir, "missing-project.yaml"),
		filepath.Join(dir, "missing-global.yaml"),
		dir)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Backend)
}

func TestLoad_UsesHomeProjectAndDotEnv(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv(HomeEnvVar, home)
	t.Chdir(work)

	writeFile(t, filepath.Join(home, "config.yaml"), "ai:\n  model: from-global\n  api_key_env_var: TESTMO_TEST_DOTENV_KEY\n")
	writeFile(t, filepath.Join(work, ".testmo", "config.yaml"), "ui:\n  theme: dark\n")
	writeFile(t, filepath.Join(home, ".env"), "TESTMO_TEST_DOTENV_KEY=from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("TESTMO_TEST_DOTENV_KEY") })

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "from-global", cfg.AI.Model)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, filepath.Join(home, "data"), cfg.Storage.Dir)
	assert.Equal(t, "from-dotenv", cfg.AI.APIKey())
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	writeFile(t, first, "TESTMO_TEST_EXISTING=from-file\nTESTMO_TEST_ORDER=first\n")
	writeFile(t, second, "TESTMO_TEST_ORDER=second\n")

	t.Setenv("TESTMO_TEST_EXISTING", "from-shell")
	t.Cleanup(func() { _ = os.Unsetenv("TESTMO_TEST_ORDER") })

	loadDotEnv(context.Background(), first, filepath.Join(dir, "absent.env"), second)

	assert.Equal(t, "from-shell", os.Getenv("TESTMO_TEST_EXISTING"))
	assert.Equal(t, "first", os.Getenv("TESTMO_TEST_ORDER"))
}

func TestLoadWithOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnvVar, home)
	t.Chdir(t.TempDir())

	cfg, err := LoadWithOverrides(context.Background(), &Config{
		Storage: StorageConfig{Backend: "memory"},
		AI:      AIConfig{Model: "gemini-flag", ImportConcurrency: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "gemini-flag", cfg.AI.Model)
	assert.Equal(t, 4, cfg.AI.ImportConcurrency)
	assert.Equal(t, 3, cfg.AI.ImportBatchSize, "zero override keeps the loaded value")
}

func TestLoadWithOverrides_Revalidates(t *testing.T) {
	t.Setenv(HomeEnvVar, t.TempDir())
	t.Chdir(t.TempDir())

	_, err := LoadWithOverrides(context.Background(), &Config{UI: UIConfig{Theme: "neon"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigInvalidUI)
}
