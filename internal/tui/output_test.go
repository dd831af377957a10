package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/errors"
)

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateFormat(""))
	require.NoError(t, ValidateFormat("text"))
	require.NoError(t, ValidateFormat("json"))
	assert.ErrorIs(t, ValidateFormat("yaml"), errors.ErrInvalidOutputFormat)
}

func TestNewOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	assert.True(t, NewOutput(&buf, FormatJSON).IsJSON())
	assert.False(t, NewOutput(&buf, FormatText).IsJSON())
	assert.False(t, NewOutput(&buf, "").IsJSON())
}

func TestTTYOutput_Messages(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	out := NewTTYOutput(&buf)
	out.Success("saved")
	out.Warning("careful")
	out.Info("hello")

	assert.Equal(t, "✓ saved\n⚠ careful\nℹ hello\n", buf.String())
}

func TestTTYOutput_ErrorShowsSuggestion(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	NewTTYOutput(&buf).Error(fmt.Errorf("case TC-1: %w", errors.ErrCaseNotFound))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "✗ No test case with that id exists. (case TC-1: test case not found)", lines[0])
	assert.Equal(t, "  ▸ Try: Run 'testmo case list' to see available ids.", lines[1])
}

func TestTTYOutput_Table(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	NewTTYOutput(&buf).Table([]string{"ID", "TITLE"}, [][]string{
		{"TC-1", "Login"},
		{"TC-22"},
	})

	assert.Equal(t, "ID     TITLE\nTC-1   Login\nTC-22\n", buf.String())
}

func TestJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out := NewJSONOutput(&buf)
	out.Success("saved")
	out.Error(fmt.Errorf("step 9: %w", errors.ErrStepNotFound))
	out.Table([]string{"ID", "TITLE"}, [][]string{{"TC-1", "Login"}, {"TC-2"}})
	require.NoError(t, out.JSON(map[string]int{"n": 1}))

	dec := json.NewDecoder(&buf)

	var msg map[string]string
	require.NoError(t, dec.Decode(&msg))
	assert.Equal(t, map[string]string{"type": "success", "message": "saved"}, msg)

	var errMsg map[string]string
	require.NoError(t, dec.Decode(&errMsg))
	assert.Equal(t, "error", errMsg["type"])
	assert.Equal(t, "No step with that number exists in the case.", errMsg["message"])
	assert.Equal(t, "step 9: test step not found", errMsg["details"])
	assert.NotEmpty(t, errMsg["suggestion"])

	var rows []map[string]string
	require.NoError(t, dec.Decode(&rows))
	assert.Equal(t, []map[string]string{
		{"ID": "TC-1", "TITLE": "Login"},
		{"ID": "TC-2", "TITLE": ""},
	}, rows)

	var raw map[string]int
	require.NoError(t, dec.Decode(&raw))
	assert.Equal(t, 1, raw["n"])
}

func TestJSONOutput_SpinnerIsNoop(t *testing.T) {
	t.Parallel()

	s := NewJSONOutput(&bytes.Buffer{}).Spinner(context.Background(), "working")
	s.Update("still working")
	s.Stop()
	assert.IsType(t, &NoopSpinner{}, s)
}

func TestSpinnerAdapter_NonTerminalIsSilent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSpinnerAdapter(context.Background(), &buf, "thinking")
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestActionable(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Actionable(nil))

	custom := NewActionableError("boom", "Try again").WithContext("ctx")
	assert.Same(t, custom, Actionable(fmt.Errorf("wrapped: %w", custom)))
	assert.Equal(t, "boom (ctx)", custom.Error())

	wrapped := fmt.Errorf("case TC-9: %w", errors.ErrCaseIsDraft)
	ae := Actionable(wrapped)
	assert.Equal(t, "Draft cases cannot be executed.", ae.Message)
	assert.ErrorIs(t, ae, errors.ErrCaseIsDraft)

	plain := fmt.Errorf("something odd")
	ae = Actionable(plain)
	assert.Equal(t, "something odd", ae.Message)
	assert.Empty(t, ae.Context, "no context when the message is the raw error")
}
