package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

var hydrateNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestHydrateCase(t *testing.T) {
	t.Parallel()

	raw, err := decode[rawCase](validCaseJSON)
	require.NoError(t, err)

	tc, err := hydrateCase(&raw, hydrateNow)
	require.NoError(t, err)

	assert.Equal(t, "US-1", tc.ID)
	assert.Equal(t, "US-1: Log in with valid credentials", tc.Title)
	assert.Equal(t, constants.PriorityHigh, tc.Priority)
	assert.Equal(t, constants.CaseTypeSmoke, tc.Type)
	assert.Equal(t, constants.EffortS, tc.EstimatedEffort)
	assert.Equal(t, []string{"Channel:Web", "Login"}, tc.Tags)
	assert.Equal(t, []string{"You have an account"}, tc.Preconditions)
	assert.Equal(t, domain.Meta{"CHANNEL": "Web", "WEBSITE": "CH"}, tc.Meta)
	assert.Equal(t, constants.CaseStatusNotStarted, tc.Status)
	assert.Equal(t, hydrateNow, tc.LastUpdated)

	require.Len(t, tc.Steps, 2)
	assert.Equal(t, "s1", tc.Steps[0].StepID)
	assert.Equal(t, 1, tc.Steps[0].Sequence)
	assert.Equal(t, "max / Secret1", tc.Steps[0].TestData)
	assert.Equal(t, "s2", tc.Steps[1].StepID)
	assert.Equal(t, 2, tc.Steps[1].Sequence)
	assert.Empty(t, tc.Steps[1].TestData)
	for _, s := range tc.Steps {
		assert.Equal(t, constants.StepStatusNotStarted, s.Status)
	}

	require.Len(t, tc.NegativeFlows, 1)
	assert.NotEmpty(t, tc.NegativeFlows[0].ID)
	require.Len(t, tc.NegativeFlows[0].Steps, 1)
	assert.NotEmpty(t, tc.NegativeFlows[0].Steps[0].StepID)
	require.NoError(t, tc.Validate())
}

func TestHydrateCase_Defaults(t *testing.T) {
	t.Parallel()

	raw := rawCase{
		CaseID:   "TC-TEST01",
		Title:    " Checkout ",
		Priority: "urgent",
		Type:     "Regression",
		Meta:     map[string]any{"COUNT": 3.0, "EMPTY": "", "NIL": nil},
		Steps: []rawStep{
			{StepID: "x", Sequence: 3, Description: "Pay", EstimatedDurationMin: 2},
			{StepID: "x", Sequence: 1, Description: "Open cart", EstimatedDurationMin: 1},
			{Sequence: 2, Description: "Enter address", Priority: "nope"},
		},
	}
	tc, err := hydrateCase(&raw, hydrateNow)
	require.NoError(t, err)

	assert.Equal(t, "TC-TEST01", tc.ID)
	assert.Equal(t, "Checkout", tc.Title)
	assert.Equal(t, constants.PriorityMedium, tc.Priority)
	assert.Equal(t, constants.CaseTypeRegression, tc.Type)
	assert.Equal(t, constants.EffortM, tc.EstimatedEffort)
	assert.Equal(t, domain.Meta{"COUNT": "3"}, tc.Meta)
	assert.Equal(t, []string{}, tc.Tags)
	assert.Equal(t, 3, tc.EstimatedDurationMin)

	require.Len(t, tc.Steps, 3)
	assert.Equal(t, []string{"Open cart", "Enter address", "Pay"},
		[]string{tc.Steps[0].Description, tc.Steps[1].Description, tc.Steps[2].Description})
	assert.Equal(t, "x", tc.Steps[0].StepID)
	assert.NotEqual(t, "x", tc.Steps[2].StepID)
	assert.NotEmpty(t, tc.Steps[1].StepID)
	assert.Empty(t, tc.Steps[1].Priority)
	require.NoError(t, tc.Validate())
}

func TestHydrateCase_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  rawCase
	}{
		{"missing title", rawCase{Steps: []rawStep{{Description: "a"}}}},
		{"no steps", rawCase{Title: "T"}},
		{"blank step", rawCase{Title: "T", Steps: []rawStep{{Description: " "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := hydrateCase(&tt.raw, hydrateNow)
			require.ErrorIs(t, err, testmoerrors.ErrAIMalformedResponse)
		})
	}
}

func TestHydrateAnalysis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{73, 73},
		{0.87, 87},
		{150, 100},
		{-5, 0},
		{0, 0},
	}
	for _, tt := range tests {
		a, err := hydrateAnalysis(&rawAnalysis{IsMatch: true, Confidence: tt.in, Reasoning: "looks right"})
		require.NoError(t, err)
		assert.InDelta(t, tt.want, a.Confidence, 1e-9, "input %v", tt.in)
		assert.True(t, a.IsMatch)
	}

	_, err := hydrateAnalysis(&rawAnalysis{Confidence: 50})
	require.ErrorIs(t, err, testmoerrors.ErrAIMalformedResponse)
}

func TestHydrateDefect(t *testing.T) {
	t.Parallel()

	r, err := hydrateDefect(&rawDefect{
		Title:            "Login fails",
		StepsToReproduce: flexList{"Open page", "Log in"},
		Severity:         "Blocker",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.SeverityMajor, r.Severity)
	assert.Equal(t, []string{"Open page", "Log in"}, r.StepsToReproduce)

	_, err = hydrateDefect(&rawDefect{})
	require.ErrorIs(t, err, testmoerrors.ErrAIMalformedResponse)
}
