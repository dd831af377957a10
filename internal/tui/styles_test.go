package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/testmo/internal/constants"
)

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"status_change", "Status Change"},
		{"InProgress", "In Progress"},
		{"NotStarted", "Not Started"},
		{"functional", "Functional"},
		{"Passed", "Passed"},
		{"login", "Login"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Label(tt.in))
		})
	}
}

func TestStatusIcon(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "✓", StatusIcon(string(constants.StepStatusPassed)))
	assert.Equal(t, "✗", StatusIcon(string(constants.StepStatusFailed)))
	assert.Equal(t, "⊘", StatusIcon(string(constants.StepStatusBlocked)))
	assert.Equal(t, "◐", StatusIcon(string(constants.StepStatusInProgress)))
	assert.Equal(t, "○", StatusIcon(string(constants.StepStatusNotStarted)))
	assert.Equal(t, "✎", StatusIcon(string(constants.CaseStatusDraft)))
	assert.Equal(t, "?", StatusIcon("Unknown"))
}

func TestNoColorRendering(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.False(t, HasColorSupport())
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "░░░░", ProgressBar(-5, 4))
	assert.Equal(t, "████", ProgressBar(150, 4))
	assert.Equal(t, "✗ Failed", StatusBadge(constants.CaseStatusFailed))
	assert.Equal(t, "◐ In Progress", StatusBadge(constants.StepStatusInProgress))
	assert.Equal(t, "High", PriorityBadge(constants.PriorityHigh))
	assert.Equal(t, "-", PriorityBadge(""))
}

func TestHasColorSupport_DumbTerminal(t *testing.T) {
	t.Setenv("TERM", "dumb")
	assert.False(t, HasColorSupport())
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "…", truncate("abc", 1))
	assert.Equal(t, "Prüfu…", truncate("Prüfung läuft", 6))
}

func TestRelativeTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5 min ago"},
		{3 * time.Hour, "3 h ago"},
		{30 * time.Hour, "yesterday"},
		{4 * 24 * time.Hour, "4 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now))
		})
	}

	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, old.Local().Format("2006-01-02"), RelativeTime(old, now))
	assert.Equal(t, "-", Timestamp(time.Time{}))
}
