// Package status implements the status engine: pure functions that roll step
// outcomes up into a case status and a completion percentage.
//
// The engine is total. Any combination it does not recognize maps to
// NotStarted, so a status can always be rendered.
package status

import (
	"math"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

// severityOrder lists the statuses that dominate a mixed step set, most severe first.
// A single failing step makes the whole case Failed regardless of other outcomes.
//
//nolint:gochecknoglobals // Read-only lookup table
var severityOrder = []struct {
	step constants.StepStatus
	cs   constants.CaseStatus
}{
	{constants.StepStatusFailed, constants.CaseStatusFailed},
	{constants.StepStatusBlocked, constants.CaseStatusBlocked},
}

// counts tallies steps per status.
type counts map[constants.StepStatus]int

func tally(steps []domain.TestStep) counts {
	c := make(counts, 5)
	for i := range steps {
		c[steps[i].Status]++
	}
	return c
}

// DeriveCaseStatus returns the case status implied by steps. Rules, first match wins:
//  1. no steps: NotStarted
//  2. every step NotStarted: NotStarted
//  3. every step Passed: Passed
//  4. any step Failed: Failed
//  5. any step Blocked: Blocked
//  6. any step InProgress or Passed: InProgress
//  7. otherwise: NotStarted
//
// The input is never modified.
func DeriveCaseStatus(steps []domain.TestStep) constants.CaseStatus {
	total := len(steps)
	if total == 0 {
		return constants.CaseStatusNotStarted
	}

	c := tally(steps)
	if c[constants.StepStatusNotStarted] == total {
		return constants.CaseStatusNotStarted
	}
	if c[constants.StepStatusPassed] == total {
		return constants.CaseStatusPassed
	}
	for _, rule := range severityOrder {
		if c[rule.step] > 0 {
			return rule.cs
		}
	}
	if c[constants.StepStatusInProgress] > 0 || c[constants.StepStatusPassed] > 0 {
		return constants.CaseStatusInProgress
	}
	return constants.CaseStatusNotStarted
}

// CalculateProgress returns the completion percentage of steps, counting
// InProgress steps as half done: round((passed + 0.5*inProgress) / total * 100).
// It returns 0 for an empty list.
func CalculateProgress(steps []domain.TestStep) int {
	if len(steps) == 0 {
		return 0
	}
	c := tally(steps)
	done := float64(c[constants.StepStatusPassed]) + 0.5*float64(c[constants.StepStatusInProgress])
	return int(math.Round(done / float64(len(steps)) * 100))
}

// Recompute overwrites tc.Status with the derived status unless tc is a draft.
// It reports whether the status changed.
func Recompute(tc *domain.TestCase) bool {
	if tc.Draft {
		return false
	}
	next := DeriveCaseStatus(tc.Steps)
	changed := tc.Status != next
	tc.Status = next
	return changed
}

// Summary is a snapshot of a case's execution state.
type Summary struct {
	Status   constants.CaseStatus         `json:"status"`
	Progress int                          `json:"progress"`
	Counts   map[constants.StepStatus]int `json:"counts"`
	Total    int                          `json:"total"`
}

// Summarize reports the effective status, progress and per-status counts of tc.
func Summarize(tc *domain.TestCase) Summary {
	c := tally(tc.Steps)
	out := Summary{
		Status:   tc.EffectiveStatus(),
		Progress: CalculateProgress(tc.Steps),
		Counts:   make(map[constants.StepStatus]int, len(c)),
		Total:    len(tc.Steps),
	}
	for k, v := range c {
		out.Counts[k] = v
	}
	return out
}
