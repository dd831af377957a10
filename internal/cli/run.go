package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/ctxutil"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/execution"
	"github.com/mrz1836/testmo/internal/tui"
)

// runnerUI is the interaction surface of the guided runner.
type runnerUI interface {
	Show(view string)
	Action(index, total int) (tui.RunnerAction, error)
	Interception(d *execution.Dialog, step *domain.TestStep) (tui.InterceptionInput, error)
	EvidencePath() (string, error)
	Comment(step *domain.TestStep) (tui.StepCommentInput, error)
}

// terminalRunner drives the runner with huh prompts.
type terminalRunner struct {
	app *App
}

func (r terminalRunner) Show(view string) { _, _ = fmt.Fprintln(r.app.W, view) }

func (r terminalRunner) Action(index, total int) (tui.RunnerAction, error) {
	return tui.PromptRunnerAction(index, total)
}

func (r terminalRunner) Interception(d *execution.Dialog, step *domain.TestStep) (tui.InterceptionInput, error) {
	return tui.PromptInterception(d, step)
}

func (r terminalRunner) EvidencePath() (string, error) {
	return tui.Input("Evidence screenshot path (empty to skip)", "", nil)
}

func (r terminalRunner) Comment(step *domain.TestStep) (tui.StepCommentInput, error) {
	return tui.PromptStepComment(step)
}

// addRunCommand adds the guided runner.
func addRunCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "run <case-id>",
		Short: "Execute a test case step by step",
		Long: `Execute a test case step by step.

The runner starts at the first step that has not passed. Passed and blocked
results move to the next step; failed and in-progress results stay. Every
result is saved immediately, so quitting never loses work.

Failed and blocked results ask for a note before they are recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				if !tui.Interactive() {
					return errors.NewExitCode2Error(fmt.Errorf(
						"%w: the runner needs a terminal, use 'testmo step set' in scripts", errors.ErrUserInputRequired))
				}
				return runRunner(ctx, app, terminalRunner{app: app}, args[0])
			})
		},
	})
}

// runRunner drives one runner session until the case finishes or the user quits.
func runRunner(ctx context.Context, app *App, ui runnerUI, caseID string) error {
	actor, err := app.Actor()
	if err != nil {
		return err
	}
	tc, err := app.Cases.Get(caseID)
	if err != nil {
		return err
	}
	s, err := execution.NewSession(tc, actor,
		execution.WithCommitter(app.Cases),
		execution.WithMetrics(app.Metrics),
		execution.WithLogger(app.Logger),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	for !s.Finished() {
		if err := ctxutil.Canceled(ctx); err != nil {
			app.Out.Warning("Runner interrupted. Results so far are saved.")
			return err
		}
		ui.Show(tui.RunnerStepView(s))

		action, err := ui.Action(s.Index(), s.Total())
		if stderrors.Is(err, errors.ErrMenuCanceled) {
			action = tui.ActionQuit
		} else if err != nil {
			return err
		}

		switch action {
		case tui.ActionQuit:
			app.Out.Info("Runner closed. Results so far are saved.")
			return nil
		case tui.ActionNext:
			err = s.Navigate(1)
		case tui.ActionPrevious:
			err = s.Navigate(-1)
		case tui.ActionEvidence:
			err = runnerEvidence(ctx, app, ui, s)
		case tui.ActionComment:
			err = runnerComment(ctx, ui, s)
		case tui.ActionPass, tui.ActionFail, tui.ActionBlock, tui.ActionInProgress:
			err = runnerOutcome(ctx, app, ui, s, action)
		default:
			err = fmt.Errorf("%w: runner action %q", errors.ErrInvalidArgument, action)
		}
		if err != nil {
			return err
		}
	}

	final := s.Case()
	if app.Out.IsJSON() {
		return app.Out.JSON(final)
	}
	if s.Celebrate() {
		app.Out.Success(fmt.Sprintf("All %d steps passed. %s is done.", s.Total(), final.ID))
		return nil
	}
	app.Out.Info(fmt.Sprintf("Run finished: %s is %s.", final.ID, tui.Label(final.EffectiveStatus())))
	return nil
}

func runnerOutcome(ctx context.Context, app *App, ui runnerUI, s *execution.Session, action tui.RunnerAction) error {
	st, _ := action.Status()
	if err := s.MarkOutcome(ctx, st); err != nil {
		return err
	}
	d := s.Dialog()
	if d == nil {
		return nil
	}

	step := s.Current()
	in, err := ui.Interception(d, &step)
	if stderrors.Is(err, errors.ErrMenuCanceled) {
		s.CancelInterception()
		app.Out.Warning(fmt.Sprintf("Step %d left unchanged.", step.Sequence))
		return nil
	}
	if err != nil {
		s.CancelInterception()
		return err
	}
	d.SetNote(in.Note)
	if in.EvidencePath != "" {
		ref, err := readEvidence(app, in.EvidencePath)
		if err != nil {
			s.CancelInterception()
			return err
		}
		d.AttachEvidence(ref)
	}
	if err := s.ConfirmInterception(ctx); err != nil {
		s.CancelInterception()
		return err
	}
	return nil
}

func runnerEvidence(ctx context.Context, app *App, ui runnerUI, s *execution.Session) error {
	path, err := ui.EvidencePath()
	if err != nil || path == "" {
		if stderrors.Is(err, errors.ErrMenuCanceled) {
			return nil
		}
		return err
	}
	ref, err := readEvidence(app, path)
	if err != nil {
		app.Out.Error(err)
		return nil
	}
	return s.AttachEvidence(ctx, ref)
}

func runnerComment(ctx context.Context, ui runnerUI, s *execution.Session) error {
	step := s.Current()
	in, err := ui.Comment(&step)
	if stderrors.Is(err, errors.ErrMenuCanceled) {
		return nil
	}
	if err != nil {
		return err
	}

	var e execution.StepEdit
	if in.Comment != step.Comment {
		e.Comment = &in.Comment
	}
	if v := strings.TrimSpace(in.ActualDurationMin); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: actual duration %q", errors.ErrInvalidArgument, v)
		}
		e.ActualDurationMin = &n
	}
	return s.EditField(ctx, e)
}
