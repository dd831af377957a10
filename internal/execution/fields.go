package execution

import (
	"fmt"
	"time"

	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
)

// StepEdit is a partial update of a step's free-form fields. Nil fields are left alone.
// Edits never change a step's status.
type StepEdit struct {
	Notes       *string
	TestData    *string
	DurationMin *int

	// Comment and ActualDurationMin record how the run went.
	Comment           *string
	ActualDurationMin *int
}

// IsZero reports whether the edit changes nothing.
func (e StepEdit) IsZero() bool {
	return e.Notes == nil && e.TestData == nil && e.DurationMin == nil &&
		e.Comment == nil && e.ActualDurationMin == nil
}

// EditStep applies e to the step.
func EditStep(tc *domain.TestCase, stepID string, e StepEdit, now time.Time) error {
	if e.DurationMin != nil && *e.DurationMin < 0 {
		return fmt.Errorf("step duration %w: %d", errors.ErrValueOutOfRange, *e.DurationMin)
	}
	if e.ActualDurationMin != nil && *e.ActualDurationMin < 0 {
		return fmt.Errorf("actual duration %w: %d", errors.ErrValueOutOfRange, *e.ActualDurationMin)
	}
	step, err := tc.StepByID(stepID)
	if err != nil {
		return err
	}
	if e.Notes != nil {
		step.Notes = *e.Notes
	}
	if e.TestData != nil {
		step.TestData = *e.TestData
	}
	if e.DurationMin != nil {
		step.EstimatedDurationMin = *e.DurationMin
	}
	if e.Comment != nil {
		step.Comment = *e.Comment
	}
	if e.ActualDurationMin != nil {
		step.ActualDurationMin = *e.ActualDurationMin
	}
	tc.LastUpdated = now
	return nil
}

// AttachEvidence replaces the step's evidence and clears any prior analysis.
func AttachEvidence(tc *domain.TestCase, stepID, ref string, now time.Time) error {
	if ref == "" {
		return fmt.Errorf("evidence %w", errors.ErrEmptyValue)
	}
	step, err := tc.StepByID(stepID)
	if err != nil {
		return err
	}
	step.SetEvidence(ref)
	tc.LastUpdated = now
	return nil
}

// RemoveEvidence drops the step's evidence and its analysis.
func RemoveEvidence(tc *domain.TestCase, stepID string, now time.Time) error {
	step, err := tc.StepByID(stepID)
	if err != nil {
		return err
	}
	step.SetEvidence("")
	tc.LastUpdated = now
	return nil
}

// SetAnalysis stores an evidence analysis. The step must carry evidence.
func SetAnalysis(tc *domain.TestCase, stepID string, a *domain.EvidenceAnalysis, now time.Time) error {
	step, err := tc.StepByID(stepID)
	if err != nil {
		return err
	}
	if step.Evidence == "" {
		return fmt.Errorf("step %s: %w", stepID, errors.ErrEvidenceAnalysisWithoutEvidence)
	}
	step.EvidenceAnalysis = a
	tc.LastUpdated = now
	return nil
}
