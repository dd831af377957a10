package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/testmo/internal/config"
	"github.com/mrz1836/testmo/internal/errors"
)

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", stderrors.New("disk on fire"), ExitError},
		{"not logged in", errors.ErrNotLoggedIn, ExitError},
		{"exit code 2 wrapper", errors.NewExitCode2Error(stderrors.New("x")), ExitInvalidInput},
		{"validation", fmt.Errorf("title: %w", errors.ErrEmptyValue), ExitInvalidInput},
		{"note required", errors.ErrNoteRequired, ExitInvalidInput},
		{"output format", errors.ErrInvalidOutputFormat, ExitInvalidInput},
		{"cobra unknown flag", stderrors.New("unknown flag: --colour"), ExitInvalidInput},
		{"cobra arg count", stderrors.New("accepts 1 arg(s), received 0"), ExitInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.2.0 (commit: abc123, built: 2026-01-02)",
		formatVersion(BuildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02"}))
}

func TestGlobalFlagsOverrides(t *testing.T) {
	t.Parallel()

	o := (&GlobalFlags{Backend: "sqlite", DataDir: "/data", Theme: "dark"}).overrides()
	assert.Equal(t, "sqlite", o.Storage.Backend)
	assert.Equal(t, "/data", o.Storage.Dir)
	assert.Equal(t, "dark", o.UI.Theme)

	empty := (&GlobalFlags{}).overrides()
	assert.Empty(t, empty.Storage.Backend)
}

func TestFlattenAndEnvKey(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	flat, err := flatten(cfg)
	assert.NoError(t, err)
	assert.Equal(t, "file", flat["storage.backend"])
	assert.Contains(t, flat, "ai.retry.max_attempts")

	assert.Equal(t, "TESTMO_STORAGE_REDIS_URL", envKey("storage.redis_url"))
	assert.Equal(t, "TESTMO_AI_RETRY_MAX_ATTEMPTS", envKey("ai.retry.max_attempts"))
}

func TestFlagKeys(t *testing.T) {
	t.Parallel()

	keys := flagKeys(&GlobalFlags{Backend: "redis"})
	assert.True(t, keys["storage.backend"])
	assert.False(t, keys["storage.dir"])
	assert.False(t, keys["ui.theme"])
}
