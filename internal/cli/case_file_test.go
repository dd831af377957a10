package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/testutil"
)

func TestDecodeCaseFiles(t *testing.T) {
	t.Parallel()

	doc := `title: Checkout
type: smoke
effort: s
duration: 10
tags: [Cart, cart, Payments]
preconditions: [A product is in the cart]
steps:
  - action: Open the cart
    expected: Items are listed
  - action: Pay
    expected: Confirmation page
    test_data: card=4111
    priority: high
negative_flows:
  - description: Declined card
    steps:
      - action: Pay with a declined card
        expected: Payment error
---
title: Second
draft: true
steps:
  - action: Do it
    expected: Done
`
	cases, err := decodeCaseFiles([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cases, 2)

	tc := cases[0]
	assert.Equal(t, "Checkout", tc.Title)
	assert.Equal(t, constants.CaseTypeSmoke, tc.Type)
	assert.Equal(t, constants.EffortS, tc.EstimatedEffort)
	assert.Equal(t, constants.PriorityMedium, tc.Priority)
	assert.Equal(t, 10, tc.EstimatedDurationMin)
	assert.Equal(t, []string{"Cart", "Payments"}, tc.Tags)
	require.Len(t, tc.Steps, 2)
	assert.Equal(t, 2, tc.Steps[1].Sequence)
	assert.Equal(t, "card=4111", tc.Steps[1].TestData)
	assert.Equal(t, constants.PriorityHigh, tc.Steps[1].Priority)
	assert.Equal(t, constants.StepStatusNotStarted, tc.Steps[0].Status)
	assert.NotEqual(t, tc.Steps[0].StepID, tc.Steps[1].StepID)
	require.Len(t, tc.NegativeFlows, 1)
	assert.Equal(t, "Declined card", tc.NegativeFlows[0].Description)
	require.Len(t, tc.NegativeFlows[0].Steps, 1)
	assert.Equal(t, 1, tc.NegativeFlows[0].Steps[0].Sequence)

	assert.True(t, cases[1].Draft)
}

func TestDecodeCaseFilesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "", errors.ErrEmptyValue},
		{"missing title", "steps:\n  - action: x\n", errors.ErrEmptyValue},
		{"blank step action", "title: T\nsteps:\n  - expected: y\n", errors.ErrEmptyValue},
		{"unknown field", "title: T\ncolour: red\n", errors.ErrInvalidArgument},
		{"bad priority", "title: T\npriority: urgent\n", errors.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeCaseFiles([]byte(tt.doc))
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
		})
	}
}

func TestReadCaseFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "case.yaml", []byte("title: T\nsteps:\n  - action: a\n    expected: b\n"))
	cases, err := readCaseFiles(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	_, err = readCaseFiles(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
