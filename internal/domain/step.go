package domain

import (
	"fmt"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

// TestStep is one checkable action and expectation within a case.
// Steps are owned by exactly one case and never shared.
type TestStep struct {
	// StepID is unique within the owning case.
	StepID string `json:"stepId"`

	// Sequence is the 1-based, gapless execution order.
	Sequence int `json:"sequence"`

	Description    string `json:"description"`
	ExpectedResult string `json:"expectedResult"`
	TestData       string `json:"testData,omitempty"`

	// EstimatedDurationMin is the planned execution time in minutes.
	EstimatedDurationMin int                `json:"estimatedDurationMin"`
	Priority             constants.Priority `json:"priority,omitempty"`
	Dependencies         []string           `json:"dependencies,omitempty"`
	GeneratedExample     bool               `json:"generatedExample,omitempty"`

	// Notes carries the tester's observations; mandatory for Failed and Blocked.
	Notes  string               `json:"notes,omitempty"`
	Status constants.StepStatus `json:"status"`

	// ActualDurationMin is the measured execution time, if recorded.
	ActualDurationMin int    `json:"actualDuration,omitempty"`
	Comment           string `json:"comment,omitempty"`

	// Evidence is an opaque image reference, usually a data URL.
	Evidence string `json:"evidence,omitempty"`

	// EvidenceAnalysis is only present while Evidence is present.
	EvidenceAnalysis *EvidenceAnalysis `json:"evidenceAnalysis,omitempty"`
}

// EvidenceAnalysis is the AI assessment of evidence against the expected result.
type EvidenceAnalysis struct {
	IsMatch        bool     `json:"isMatch"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	DetectedIssues []string `json:"detectedIssues,omitempty"`
}

// ResetExecution clears every execution field: status, notes, evidence,
// analysis, actual duration and comment.
func (s *TestStep) ResetExecution() {
	s.Status = constants.StepStatusNotStarted
	s.Notes = ""
	s.Evidence = ""
	s.EvidenceAnalysis = nil
	s.ActualDurationMin = 0
	s.Comment = ""
}

// SetEvidence replaces the evidence reference. Any prior analysis is stale and dropped.
func (s *TestStep) SetEvidence(ref string) {
	s.Evidence = ref
	s.EvidenceAnalysis = nil
}

// Validate checks the step's own invariants.
func (s *TestStep) Validate() error {
	if !s.Status.IsValid() {
		return fmt.Errorf("step %d: %w: %q", s.Sequence, errors.ErrInvalidStatus, s.Status)
	}
	if s.EvidenceAnalysis != nil && s.Evidence == "" {
		return fmt.Errorf("step %d: %w", s.Sequence, errors.ErrEvidenceAnalysisWithoutEvidence)
	}
	return nil
}

// CloneSteps deep-copies a step slice.
func CloneSteps(steps []TestStep) []TestStep {
	if steps == nil {
		return nil
	}
	out := make([]TestStep, len(steps))
	for i := range steps {
		out[i] = steps[i]
		if steps[i].Dependencies != nil {
			out[i].Dependencies = append([]string(nil), steps[i].Dependencies...)
		}
		if steps[i].EvidenceAnalysis != nil {
			a := *steps[i].EvidenceAnalysis
			a.DetectedIssues = append([]string(nil), a.DetectedIssues...)
			out[i].EvidenceAnalysis = &a
		}
	}
	return out
}

// Renumber rewrites Sequence so the steps are numbered 1..n in slice order.
func Renumber(steps []TestStep) {
	for i := range steps {
		steps[i].Sequence = i + 1
	}
}
