package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/testmo/internal/clock"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/metrics"
)

// Committer persists the session's working copy after each mutation.
// An empty details string means no activity entry is written.
type Committer interface {
	Commit(ctx context.Context, actor string, tc *domain.TestCase, details string) error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock sets the time source used for LastUpdated.
func WithClock(c clock.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithCommitter sets where mutations are persisted.
func WithCommitter(c Committer) SessionOption {
	return func(s *Session) { s.committer = c }
}

// WithMetrics sets the recorder for applied step outcomes.
func WithMetrics(r metrics.Recorder) SessionOption {
	return func(s *Session) { s.metrics = r }
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// Session is a guided, one-step-at-a-time execution of a single case.
// It works on its own copy of the case and commits that copy after every
// change. A Session is not safe for concurrent use.
type Session struct {
	tc        domain.TestCase
	actor     string
	index     int
	dialog    *Dialog
	finished  bool
	celebrate bool
	closed    bool

	clock     clock.Clock
	committer Committer
	metrics   metrics.Recorder
	logger    zerolog.Logger
}

// NewSession opens a runner for tc. Drafts and cases without steps cannot run.
// The session starts at the first step that has not passed.
func NewSession(tc domain.TestCase, actor string, opts ...SessionOption) (*Session, error) {
	if tc.Draft {
		return nil, fmt.Errorf("case %s: %w", tc.ID, errors.ErrCaseIsDraft)
	}
	if len(tc.Steps) == 0 {
		return nil, fmt.Errorf("case %s: %w", tc.ID, errors.ErrNoSteps)
	}

	s := &Session{
		tc:      tc.Clone(),
		actor:   actor,
		clock:   clock.RealClock{},
		metrics: metrics.NoopRecorder{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tc.SortSteps()

	for i := range s.tc.Steps {
		if s.tc.Steps[i].Status != constants.StepStatusPassed {
			s.index = i
			break
		}
	}
	return s, nil
}

// Case returns a copy of the working case.
func (s *Session) Case() domain.TestCase { return s.tc.Clone() }

// Index returns the 0-based position of the current step.
func (s *Session) Index() int { return s.index }

// Total returns the number of steps.
func (s *Session) Total() int { return len(s.tc.Steps) }

// Current returns a copy of the current step.
func (s *Session) Current() domain.TestStep { return s.tc.Steps[s.index] }

// Finished reports whether the last step has received an outcome.
func (s *Session) Finished() bool { return s.finished }

// Celebrate reports whether the session finished with every step passed.
func (s *Session) Celebrate() bool { return s.celebrate }

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed }

// Dialog returns the open interception dialog, or nil.
func (s *Session) Dialog() *Dialog { return s.dialog }

// Mark applies o to the current step. A Failed or Blocked outcome without a
// note opens the interception dialog instead and changes nothing.
func (s *Session) Mark(ctx context.Context, o Outcome) error {
	if err := s.guardOutcome(); err != nil {
		return err
	}
	step := s.tc.Steps[s.index]
	d, err := Request(&s.tc, step.StepID, o, s.actor, s.clock.Now())
	if err != nil {
		return err
	}
	if d != nil {
		s.dialog = d
		s.logger.Debug().Str("case_id", s.tc.ID).Str("step_id", step.StepID).
			Str("mode", string(o.Status)).Msg("interception opened")
		return nil
	}
	return s.afterOutcome(ctx, o.Status)
}

// MarkOutcome is Mark without a note or evidence.
func (s *Session) MarkOutcome(ctx context.Context, st constants.StepStatus) error {
	return s.Mark(ctx, Outcome{Status: st})
}

// ConfirmInterception replays the deferred outcome with the dialog's note.
// While the note is blank it returns ErrNoteRequired and the dialog stays open.
func (s *Session) ConfirmInterception(ctx context.Context) error {
	if s.closed {
		return errors.ErrSessionClosed
	}
	if s.dialog == nil {
		return errors.ErrNoInterception
	}
	mode := s.dialog.Mode()
	if err := Resolve(&s.tc, s.dialog, s.actor, s.clock.Now()); err != nil {
		return err
	}
	s.dialog = nil
	return s.afterOutcome(ctx, mode)
}

// CancelInterception closes the dialog without changing anything.
func (s *Session) CancelInterception() {
	s.dialog = nil
}

// Navigate moves the cursor by delta, clamped to the step range.
func (s *Session) Navigate(delta int) error {
	if err := s.guardOutcome(); err != nil {
		return err
	}
	s.index = max(0, min(len(s.tc.Steps)-1, s.index+delta))
	return nil
}

// EditField applies e to the current step. Field edits stay allowed after the
// session finished.
func (s *Session) EditField(ctx context.Context, e StepEdit) error {
	if err := s.guardEdit(); err != nil {
		return err
	}
	if e.IsZero() {
		return nil
	}
	if err := EditStep(&s.tc, s.tc.Steps[s.index].StepID, e, s.clock.Now()); err != nil {
		return err
	}
	return s.commit(ctx, "")
}

// AttachEvidence sets the current step's evidence.
func (s *Session) AttachEvidence(ctx context.Context, ref string) error {
	if err := s.guardEdit(); err != nil {
		return err
	}
	if err := AttachEvidence(&s.tc, s.tc.Steps[s.index].StepID, ref, s.clock.Now()); err != nil {
		return err
	}
	return s.commit(ctx, "")
}

// RemoveEvidence drops the current step's evidence.
func (s *Session) RemoveEvidence(ctx context.Context) error {
	if err := s.guardEdit(); err != nil {
		return err
	}
	if err := RemoveEvidence(&s.tc, s.tc.Steps[s.index].StepID, s.clock.Now()); err != nil {
		return err
	}
	return s.commit(ctx, "")
}

// Close ends the session. Further calls fail with ErrSessionClosed.
func (s *Session) Close() {
	s.dialog = nil
	s.closed = true
}

func (s *Session) guardEdit() error {
	if s.closed {
		return errors.ErrSessionClosed
	}
	if s.dialog != nil {
		return errors.ErrInterceptionPending
	}
	return nil
}

func (s *Session) guardOutcome() error {
	if err := s.guardEdit(); err != nil {
		return err
	}
	if s.finished {
		return errors.ErrSessionFinished
	}
	return nil
}

// afterOutcome commits the applied outcome and moves the cursor. Passed and
// Blocked advance; Failed and InProgress stay. An outcome on the last step
// other than InProgress finishes the session.
func (s *Session) afterOutcome(ctx context.Context, st constants.StepStatus) error {
	step := s.tc.Steps[s.index]
	s.metrics.StepOutcome(st)

	last := s.index == len(s.tc.Steps)-1
	switch st {
	case constants.StepStatusPassed, constants.StepStatusBlocked:
		if last {
			s.finish()
		} else {
			s.index++
		}
	case constants.StepStatusFailed:
		if last {
			s.finish()
		}
	case constants.StepStatusInProgress, constants.StepStatusNotStarted:
	}

	return s.commit(ctx, fmt.Sprintf("Step %d updated to %s", step.Sequence, st))
}

func (s *Session) finish() {
	s.finished = true
	s.celebrate = s.tc.Status == constants.CaseStatusPassed
	s.logger.Info().Str("case_id", s.tc.ID).Str("status", string(s.tc.Status)).Msg("run finished")
}

func (s *Session) commit(ctx context.Context, details string) error {
	if s.committer == nil {
		return nil
	}
	tc := s.tc.Clone()
	return s.committer.Commit(ctx, s.actor, &tc, details)
}
