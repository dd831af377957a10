package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/ai"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/evidence"
	"github.com/mrz1836/testmo/internal/tui"
)

// addAICommands adds generate, refine, variants and defect.
func addAICommands(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(
		newGenerateCmd(flags),
		newRefineCmd(flags),
		newVariantsCmd(flags),
		newDefectCmd(flags),
	)
}

type generateOptions struct {
	context   string
	file      string
	media     string
	role      string
	priority  string
	withFlows bool
}

func newGenerateCmd(flags *GlobalFlags) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a draft test case with AI",
		Long: `Generate a draft test case from a description, a document or a screenshot.

Generated cases land in the backlog as drafts. Review them with
'testmo case list --status draft' and move them over with 'testmo case activate'.

Examples:
  testmo generate --context "Password reset by e-mail link"
  testmo generate --file story.md --role "store manager" --priority high
  testmo generate --media checkout.png --with-flows`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				return runGenerate(ctx, app, opts)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.context, "context", "c", "", "feature description")
	f.StringVarP(&opts.file, "file", "f", "", "text file with the feature description")
	f.StringVarP(&opts.media, "media", "m", "", "screenshot or PDF to generate from")
	f.StringVar(&opts.role, "role", "", "user role the case is written for")
	f.StringVar(&opts.priority, "priority", "", "priority hint (high, medium, low)")
	f.BoolVar(&opts.withFlows, "with-flows", false, "also store each negative flow as its own draft")
	cmd.MarkFlagsMutuallyExclusive("context", "file")
	return cmd
}

func runGenerate(ctx context.Context, app *App, opts *generateOptions) error {
	actor, err := app.Actor()
	if err != nil {
		return err
	}
	prio, err := parsePriority(opts.priority)
	if err != nil {
		return err
	}

	in := ai.GenerateInput{Context: opts.context, Role: opts.role, Priority: prio}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file) //nolint:gosec // user supplied description
		if err != nil {
			return fmt.Errorf("failed to read context file: %w", err)
		}
		in.Context = string(data)
	}
	if opts.media != "" {
		ref, err := evidence.ReadFile(opts.media, app.Config.Evidence.MaxBytes, evidence.MediaTypes)
		if err != nil {
			return err
		}
		mime, data, err := evidence.Decode(ref)
		if err != nil {
			return err
		}
		in.Media = &ai.MediaInput{MIMEType: mime, Data: data}
	}
	if strings.TrimSpace(in.Context) == "" && in.Media == nil {
		return errors.NewExitCode2Error(fmt.Errorf("%w: pass --context, --file or --media", errors.ErrUserInputRequired))
	}
	if in.Settings, err = app.Settings(ctx); err != nil {
		return err
	}

	tc, err := spin(ctx, app, "Generating test case", func(ctx context.Context) (domain.TestCase, error) {
		return app.AI().Generate(ctx, in)
	})
	if err != nil {
		return err
	}
	saved, err := app.Cases.SaveGenerated(ctx, actor, tc, opts.withFlows)
	if err != nil {
		return err
	}
	if app.Out.IsJSON() {
		return app.Out.JSON(saved)
	}
	for i := range saved {
		app.Out.Success(fmt.Sprintf("Drafted %s  %s (%d steps)", saved[i].ID, saved[i].Title, len(saved[i].Steps)))
	}
	app.Out.Info("Drafts wait in the backlog. Activate them with 'testmo case activate <id>'.")
	return nil
}

func newRefineCmd(flags *GlobalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "refine <case-id>",
		Short: "Rewrite a case for clarity and completeness with AI",
		Long: `Rewrite a case for clarity and completeness with AI.

The id, assignee and draft flag are kept. Step results are cleared because
the step content changes, so the case status is derived again: an active
case returns to Not Started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				current, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				settings, err := app.Settings(ctx)
				if err != nil {
					return err
				}
				refined, err := spin(ctx, app, "Refining "+current.ID, func(ctx context.Context) (domain.TestCase, error) {
					return app.AI().Refine(ctx, current, settings)
				})
				if err != nil {
					return err
				}
				if !dryRun {
					if refined, err = app.Cases.ApplyRefinement(ctx, actor, refined); err != nil {
						return err
					}
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(refined)
				}
				_, err = fmt.Fprint(app.W, tui.RenderMarkdown(tui.CaseMarkdown(&refined), app.Theme()))
				if err == nil && dryRun {
					app.Out.Info("Dry run: nothing was saved.")
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the refined case without saving it")
	return cmd
}

func newVariantsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "variants <case-id>",
		Short: "Derive negative and edge-case variants with AI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				parent, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				settings, err := app.Settings(ctx)
				if err != nil {
					return err
				}
				variants, err := spin(ctx, app, "Deriving variants of "+parent.ID, func(ctx context.Context) ([]domain.TestCase, error) {
					return app.AI().Variants(ctx, parent, settings)
				})
				if err != nil {
					return err
				}
				saved, err := app.Cases.AddVariants(ctx, actor, parent.ID, variants)
				if err != nil {
					return err
				}
				return reportCases(app, saved, "Drafted variant")
			})
		},
	}
}

func newDefectCmd(flags *GlobalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "defect <case-id> <step>",
		Short: "Draft a defect report for a failed step with AI",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				step, err := resolveStep(&tc, args[1])
				if err != nil {
					return err
				}
				if step.Status != constants.StepStatusFailed {
					app.Out.Warning(fmt.Sprintf("Step %d is %s, not failed.", step.Sequence, tui.Label(step.Status)))
				}
				report, err := spin(ctx, app, "Drafting defect report", func(ctx context.Context) (domain.DefectReport, error) {
					return app.AI().DefectReport(ctx, &tc, step)
				})
				if err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(report)
				}
				md := tui.DefectMarkdown(&report)
				if out != "" {
					if err := os.WriteFile(out, []byte(md), 0o600); err != nil {
						return fmt.Errorf("failed to write defect report: %w", err)
					}
					app.Out.Success("Defect report written to " + out)
					return nil
				}
				_, err = fmt.Fprint(app.W, tui.RenderMarkdown(md, app.Theme()))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the markdown report to a file")
	return cmd
}
