// Package execution implements step execution: the interception protocol that
// guards Failed and Blocked outcomes, step field and evidence edits, and the
// guided Runner session.
//
// Both the Runner and direct step editing go through Request and Resolve, so
// a step can never become Failed or Blocked without a note.
package execution

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/status"
)

// Outcome is a requested step status with its optional note and evidence.
type Outcome struct {
	Status   constants.StepStatus
	Note     string
	Evidence string
}

// needsInterception reports whether o must be routed through a Dialog first.
func (o Outcome) needsInterception() bool {
	return o.Status.RequiresNote() && strings.TrimSpace(o.Note) == ""
}

// Dialog collects the note and optional evidence for a deferred Failed or
// Blocked transition. Nothing is applied until Confirm succeeds.
type Dialog struct {
	stepID   string
	mode     constants.StepStatus
	note     string
	evidence string
}

// Open starts a dialog for moving stepID to mode, which must be Failed or Blocked.
func Open(stepID string, mode constants.StepStatus) (*Dialog, error) {
	if !mode.RequiresNote() {
		return nil, fmt.Errorf("%w: interception mode must be Failed or Blocked, got %q", errors.ErrInvalidStatus, mode)
	}
	if stepID == "" {
		return nil, fmt.Errorf("interception step id %w", errors.ErrEmptyValue)
	}
	return &Dialog{stepID: stepID, mode: mode}, nil
}

// StepID returns the step the deferred transition targets.
func (d *Dialog) StepID() string { return d.stepID }

// Mode returns the deferred status.
func (d *Dialog) Mode() constants.StepStatus { return d.mode }

// SetNote replaces the note text.
func (d *Dialog) SetNote(note string) { d.note = note }

// Note returns the note text as entered.
func (d *Dialog) Note() string { return d.note }

// AttachEvidence sets the single evidence reference.
func (d *Dialog) AttachEvidence(ref string) { d.evidence = ref }

// RemoveEvidence drops the evidence reference.
func (d *Dialog) RemoveEvidence() { d.evidence = "" }

// Evidence returns the attached evidence reference, if any.
func (d *Dialog) Evidence() string { return d.evidence }

// CanConfirm reports whether the note is non-empty after trimming.
func (d *Dialog) CanConfirm() bool {
	return strings.TrimSpace(d.note) != ""
}

// Confirm returns the outcome to replay. It fails with ErrNoteRequired while
// the note is blank, leaving the dialog open.
func (d *Dialog) Confirm() (Outcome, error) {
	if !d.CanConfirm() {
		return Outcome{}, fmt.Errorf("step %s: %w", d.stepID, errors.ErrNoteRequired)
	}
	return Outcome{Status: d.mode, Note: strings.TrimSpace(d.note), Evidence: d.evidence}, nil
}

// Request asks for stepID of tc to take outcome o. When o is Failed or Blocked
// without a note, tc is left untouched and a Dialog is returned; the caller
// completes it with Resolve. Otherwise the outcome is applied and the returned
// Dialog is nil.
func Request(tc *domain.TestCase, stepID string, o Outcome, actor string, now time.Time) (*Dialog, error) {
	if !o.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidStatus, o.Status)
	}
	if _, err := tc.StepByID(stepID); err != nil {
		return nil, err
	}
	if o.needsInterception() {
		d, err := Open(stepID, o.Status)
		if err != nil {
			return nil, err
		}
		d.AttachEvidence(o.Evidence)
		return d, nil
	}
	return nil, apply(tc, stepID, o, actor, now)
}

// Resolve confirms d and replays the deferred transition on tc.
func Resolve(tc *domain.TestCase, d *Dialog, actor string, now time.Time) error {
	if d == nil {
		return errors.ErrNoInterception
	}
	o, err := d.Confirm()
	if err != nil {
		return err
	}
	return apply(tc, d.stepID, o, actor, now)
}

// apply sets status, note and evidence on the step and recomputes the case status.
func apply(tc *domain.TestCase, stepID string, o Outcome, actor string, now time.Time) error {
	if o.needsInterception() {
		return fmt.Errorf("step %s: %w", stepID, errors.ErrNoteRequired)
	}
	step, err := tc.StepByID(stepID)
	if err != nil {
		return err
	}

	step.Status = o.Status
	if note := strings.TrimSpace(o.Note); note != "" {
		step.Notes = note
	}
	if o.Evidence != "" {
		step.SetEvidence(o.Evidence)
	}
	if actor != "" {
		tc.ExecutedBy = actor
	}
	tc.LastUpdated = now
	status.Recompute(tc)
	return nil
}
