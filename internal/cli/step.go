package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/evidence"
	"github.com/mrz1836/testmo/internal/execution"
	"github.com/mrz1836/testmo/internal/tui"
)

// addStepCommand adds the step command group for single-step updates
// outside the guided runner.
func addStepCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Record results and details on individual steps",
		Long: `Record results and details on individual steps.

Steps are addressed by number (1, 2, ...) or by step id.`,
	}
	cmd.AddCommand(
		newStepSetCmd(flags),
		newStepEditCmd(flags),
		newStepAttachCmd(flags),
		newStepDetachCmd(flags),
		newStepAnalyzeCmd(flags),
	)
	root.AddCommand(cmd)
}

type stepSetOptions struct {
	note     string
	evidence string
}

func newStepSetCmd(flags *GlobalFlags) *cobra.Command {
	opts := &stepSetOptions{}
	cmd := &cobra.Command{
		Use:   "set <case-id> <step> <status>",
		Short: "Set the status of a step",
		Long: `Set the status of a step.

Failed and blocked results need a note. Without --note the note is asked for
on a terminal; otherwise the command fails and the step is left unchanged.

Examples:
  testmo step set TC-ABC123 1 pass
  testmo step set TC-ABC123 2 fail --note "500 on submit" --evidence shot.png`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				return runStepSet(ctx, app, args[0], args[1], args[2], opts, promptInterception)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.note, "note", "n", "", "observation recorded with the result")
	cmd.Flags().StringVarP(&opts.evidence, "evidence", "e", "", "screenshot to attach")
	return cmd
}

// interceptionPrompter collects the note a Failed or Blocked result needs.
type interceptionPrompter func(d *execution.Dialog, step *domain.TestStep) (tui.InterceptionInput, error)

// promptInterception asks on the terminal, or fails when there is none.
func promptInterception(d *execution.Dialog, step *domain.TestStep) (tui.InterceptionInput, error) {
	if !tui.Interactive() {
		return tui.InterceptionInput{}, errors.NewExitCode2Error(
			fmt.Errorf("step %d marked %s: %w", step.Sequence, d.Mode(), errors.ErrNoteRequired))
	}
	return tui.PromptInterception(d, step)
}

func runStepSet(ctx context.Context, app *App, caseID, stepRef, status string, opts *stepSetOptions, prompt interceptionPrompter) error {
	actor, err := app.Actor()
	if err != nil {
		return err
	}
	st, err := parseStepStatus(status)
	if err != nil {
		return err
	}
	tc, err := app.Cases.Get(caseID)
	if err != nil {
		return err
	}
	step, err := resolveStep(&tc, stepRef)
	if err != nil {
		return err
	}

	outcome := execution.Outcome{Status: st, Note: opts.note}
	if opts.evidence != "" {
		if outcome.Evidence, err = readEvidence(app, opts.evidence); err != nil {
			return err
		}
	}

	d, err := app.Cases.SetStepStatus(ctx, actor, tc.ID, step.StepID, outcome)
	if err != nil {
		return err
	}
	if d != nil {
		in, err := prompt(d, step)
		if err != nil {
			return err
		}
		d.SetNote(in.Note)
		if outcome.Evidence != "" {
			d.AttachEvidence(outcome.Evidence)
		}
		if in.EvidencePath != "" {
			ref, err := readEvidence(app, in.EvidencePath)
			if err != nil {
				return err
			}
			d.AttachEvidence(ref)
		}
		if err := app.Cases.ResolveStepStatus(ctx, actor, tc.ID, d); err != nil {
			return err
		}
	}

	updated, err := app.Cases.Get(tc.ID)
	if err != nil {
		return err
	}
	if app.Out.IsJSON() {
		return app.Out.JSON(updated)
	}
	app.Out.Success(fmt.Sprintf("%s step %d %s  (case %s)",
		updated.ID, step.Sequence, tui.Label(st), tui.Label(updated.EffectiveStatus())))
	return nil
}

func readEvidence(app *App, path string) (string, error) {
	return evidence.ReadFile(path, app.Config.Evidence.MaxBytes, evidence.ImageTypes)
}

type stepEditOptions struct {
	notes    string
	testData string
	comment  string
	duration int
	actual   int
}

func newStepEditCmd(flags *GlobalFlags) *cobra.Command {
	opts := &stepEditOptions{}
	cmd := &cobra.Command{
		Use:   "edit <case-id> <step>",
		Short: "Change notes, test data, durations or the comment of a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				if _, err := app.Actor(); err != nil {
					return err
				}
				e := opts.edit(cmd)
				if e.IsZero() {
					return errors.NewExitCode2Error(fmt.Errorf("%w: nothing to change, pass at least one field flag", errors.ErrInvalidArgument))
				}
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				step, err := resolveStep(&tc, args[1])
				if err != nil {
					return err
				}
				updated, err := app.Cases.EditStep(ctx, tc.ID, step.StepID, e)
				if err != nil {
					return err
				}
				return reportCases(app, []domain.TestCase{updated}, fmt.Sprintf("Step %d edited on", step.Sequence))
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.notes, "notes", "", "observed notes")
	f.StringVar(&opts.testData, "test-data", "", "test data")
	f.StringVar(&opts.comment, "comment", "", "free-form comment")
	f.IntVar(&opts.duration, "duration", 0, "estimated duration in minutes")
	f.IntVar(&opts.actual, "actual", 0, "actual duration in minutes")
	return cmd
}

// edit builds a StepEdit from the flags the user actually set, so an
// explicit empty value clears a field.
func (o *stepEditOptions) edit(cmd *cobra.Command) execution.StepEdit {
	var e execution.StepEdit
	f := cmd.Flags()
	if f.Changed("notes") {
		e.Notes = &o.notes
	}
	if f.Changed("test-data") {
		e.TestData = &o.testData
	}
	if f.Changed("comment") {
		e.Comment = &o.comment
	}
	if f.Changed("duration") {
		e.DurationMin = &o.duration
	}
	if f.Changed("actual") {
		e.ActualDurationMin = &o.actual
	}
	return e
}

func newStepAttachCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <case-id> <step> <image>",
		Short: "Attach a screenshot as evidence, replacing any previous one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				if _, err := app.Actor(); err != nil {
					return err
				}
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				step, err := resolveStep(&tc, args[1])
				if err != nil {
					return err
				}
				ref, err := readEvidence(app, args[2])
				if err != nil {
					return err
				}
				updated, err := app.Cases.AttachEvidence(ctx, tc.ID, step.StepID, ref)
				if err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(updated)
				}
				app.Out.Success(fmt.Sprintf("Attached %s to step %d of %s", tui.EvidenceSummary(ref), step.Sequence, tc.ID))
				return nil
			})
		},
	}
}

func newStepDetachCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <case-id> <step>",
		Short: "Remove the evidence of a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				if _, err := app.Actor(); err != nil {
					return err
				}
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				step, err := resolveStep(&tc, args[1])
				if err != nil {
					return err
				}
				updated, err := app.Cases.RemoveEvidence(ctx, tc.ID, step.StepID)
				if err != nil {
					return err
				}
				return reportCases(app, []domain.TestCase{updated}, fmt.Sprintf("Evidence removed from step %d of", step.Sequence))
			})
		},
	}
}

func newStepAnalyzeCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <case-id> <step>",
		Short: "Ask the AI whether the step evidence shows the expected result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				if _, err := app.Actor(); err != nil {
					return err
				}
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				step, err := resolveStep(&tc, args[1])
				if err != nil {
					return err
				}
				if step.Evidence == "" {
					return fmt.Errorf("step %d: %w", step.Sequence, errors.ErrEvidenceAnalysisWithoutEvidence)
				}
				settings, err := app.Settings(ctx)
				if err != nil {
					return err
				}
				analysis, err := spin(ctx, app, "Analyzing evidence", func(ctx context.Context) (*domain.EvidenceAnalysis, error) {
					return app.AI().AnalyzeEvidence(ctx, step.ExpectedResult, step.Evidence, settings)
				})
				if err != nil {
					return err
				}
				if _, err := app.Cases.SetAnalysis(ctx, tc.ID, step.StepID, analysis); err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(analysis)
				}
				verdict := "does not match"
				if analysis.IsMatch {
					verdict = "matches"
				}
				app.Out.Info(fmt.Sprintf("Evidence %s the expected result (confidence %.0f%%)", verdict, analysis.Confidence))
				if analysis.Reasoning != "" {
					_, err = fmt.Fprintln(app.W, analysis.Reasoning)
				}
				return err
			})
		},
	}
}
