package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/collection"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/tui"
)

// addCaseCommand adds the case command group.
func addCaseCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:     "case",
		Aliases: []string{"cases"},
		Short:   "Create, inspect and organize test cases",
	}
	cmd.AddCommand(
		newCaseListCmd(flags),
		newCaseShowCmd(flags),
		newCaseCreateCmd(flags),
		newCaseEditCmd(flags),
		newCaseBulkEditCmd(flags),
		newCaseDeleteCmd(flags),
		newCaseDuplicateCmd(flags),
		newCaseResetCmd(flags),
		newCaseAssignCmd(flags),
		newCaseActivateCmd(flags),
		newCasePromoteFlowCmd(flags),
	)
	root.AddCommand(cmd)
}

type caseListOptions struct {
	status   string
	priority string
	tag      string
	assignee string
	mine     bool
	search   string
	limit    int
}

func newCaseListCmd(flags *GlobalFlags) *cobra.Command {
	opts := &caseListOptions{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List test cases",
		Long: `List test cases, newest first.

Examples:
  testmo case list --status failed
  testmo case list --status draft        # the backlog
  testmo case list --mine --priority high
  testmo case list --search checkout -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				return runCaseList(app, opts)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.status, "status", "", "effective status (draft, notstarted, inprogress, passed, failed, blocked)")
	f.StringVar(&opts.priority, "priority", "", "priority (high, medium, low)")
	f.StringVar(&opts.tag, "tag", "", "tag to match")
	f.StringVar(&opts.assignee, "assignee", "", "assigned username")
	f.BoolVar(&opts.mine, "mine", false, "only cases assigned to the logged-in user")
	f.StringVarP(&opts.search, "search", "s", "", "text to find in id, title or tags")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of cases")
	cmd.MarkFlagsMutuallyExclusive("mine", "assignee")
	return cmd
}

func runCaseList(app *App, opts *caseListOptions) error {
	st, err := parseCaseStatus(opts.status)
	if err != nil {
		return err
	}
	prio, err := parsePriority(opts.priority)
	if err != nil {
		return err
	}
	filter := collection.Filter{
		Status:     st,
		Priority:   prio,
		Tag:        opts.tag,
		AssignedTo: opts.assignee,
		Query:      opts.search,
		Limit:      opts.limit,
	}
	if opts.mine {
		if filter.AssignedTo, err = app.Actor(); err != nil {
			return err
		}
	}

	cases := app.Cases.List(filter)
	if app.Out.IsJSON() {
		return app.Out.JSON(cases)
	}
	if len(cases) == 0 {
		app.Out.Info("No test cases match. Create one with 'testmo case create' or 'testmo generate'.")
		return nil
	}
	app.Out.Table(tui.CaseHeaders, tui.CaseRows(cases))
	return nil
}

func newCaseShowCmd(flags *GlobalFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a test case with its steps and results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(tc)
				}
				md := tui.CaseMarkdown(&tc)
				if raw {
					_, err = fmt.Fprint(app.W, md)
					return err
				}
				_, err = fmt.Fprint(app.W, tui.RenderMarkdown(md, app.Theme()))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

func newCaseCreateCmd(flags *GlobalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create test cases from a YAML file or interactively",
		Long: `Create test cases. With --file, every YAML document in the file becomes a case:

  title: Login with valid credentials
  priority: High
  type: functional
  tags: [Auth]
  meta: {CHANNEL: Web}
  preconditions: [A registered user exists]
  steps:
    - action: Open the login page
      expected: The login form is shown
    - action: Submit valid credentials
      expected: The dashboard opens
      test_data: user=demo
  negative_flows:
    - description: Wrong password
      steps:
        - action: Submit a wrong password
          expected: An error is shown

Without --file the case is collected with prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				var cases []domain.TestCase
				if file != "" {
					if cases, err = readCaseFiles(file); err != nil {
						return err
					}
				} else {
					tc, err := tui.PromptNewCase()
					if err != nil {
						return err
					}
					cases = []domain.TestCase{tc}
				}
				saved, err := app.Cases.Save(ctx, actor, cases...)
				if err != nil {
					return err
				}
				return reportCases(app, saved, "Created")
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML case definition file")
	return cmd
}

type caseEditOptions struct {
	title         string
	summary       string
	priority      string
	caseType      string
	effort        string
	duration      int
	addTags       []string
	removeTags    []string
	meta          []string
	preconditions []string
}

func (o *caseEditOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.title, "title", "", "new title")
	f.StringVar(&o.summary, "summary", "", "new summary")
	f.StringVar(&o.priority, "priority", "", "priority (high, medium, low)")
	f.StringVar(&o.caseType, "type", "", "type (functional, regression, smoke, exploratory)")
	f.StringVar(&o.effort, "effort", "", "estimated effort (XS, S, M, L, XL)")
	f.IntVar(&o.duration, "duration", -1, "estimated duration in minutes")
	f.StringSliceVar(&o.addTags, "tag", nil, "tags to add")
	f.StringSliceVar(&o.removeTags, "untag", nil, "tags to remove")
	f.StringArrayVar(&o.meta, "meta", nil, "dimension KEY=VALUE; an empty value removes the key")
	f.StringArrayVar(&o.preconditions, "precondition", nil, "replace preconditions")
}

// apply changes tc in place and reports a short description of what changed.
func (o *caseEditOptions) apply(tc *domain.TestCase) (string, error) {
	var changed []string
	if o.title != "" {
		tc.Title = strings.TrimSpace(o.title)
		changed = append(changed, "title")
	}
	if o.summary != "" {
		tc.Summary = o.summary
		changed = append(changed, "summary")
	}
	if o.priority != "" {
		p, err := parsePriority(o.priority)
		if err != nil {
			return "", err
		}
		tc.Priority = p
		changed = append(changed, "priority")
	}
	if o.caseType != "" {
		t, err := parseCaseType(o.caseType)
		if err != nil {
			return "", err
		}
		tc.Type = t
		changed = append(changed, "type")
	}
	if o.effort != "" {
		e, err := parseEffort(o.effort)
		if err != nil {
			return "", err
		}
		tc.EstimatedEffort = e
		changed = append(changed, "effort")
	}
	if o.duration >= 0 {
		tc.EstimatedDurationMin = o.duration
		changed = append(changed, "duration")
	}
	if tags := splitTags(o.addTags); len(tags) > 0 {
		tc.AddTags(tags...)
		changed = append(changed, "tags")
	}
	if tags := splitTags(o.removeTags); len(tags) > 0 {
		kept := tc.Tags[:0:0]
		for _, t := range tc.Tags {
			remove := false
			for _, r := range tags {
				remove = remove || strings.EqualFold(t, r)
			}
			if !remove {
				kept = append(kept, t)
			}
		}
		tc.Tags = kept
		changed = append(changed, "tags")
	}
	if len(o.meta) > 0 {
		m, err := parseMeta(o.meta)
		if err != nil {
			return "", err
		}
		if tc.Meta == nil {
			tc.Meta = domain.Meta{}
		}
		for k, v := range m {
			if v == "" {
				delete(tc.Meta, k)
			} else {
				tc.Meta[k] = v
			}
		}
		changed = append(changed, "meta")
	}
	if len(o.preconditions) > 0 {
		tc.Preconditions = o.preconditions
		changed = append(changed, "preconditions")
	}
	if len(changed) == 0 {
		return "", errors.NewExitCode2Error(fmt.Errorf("%w: nothing to change, pass at least one field flag", errors.ErrInvalidArgument))
	}
	return "Edited " + strings.Join(dedupe(changed), ", "), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func newCaseEditCmd(flags *GlobalFlags) *cobra.Command {
	opts := &caseEditOptions{}
	cmd := &cobra.Command{
		Use:   "edit <case-id>",
		Short: "Change fields of a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				tc, err := app.Cases.Get(args[0])
				if err != nil {
					return err
				}
				details, err := opts.apply(&tc)
				if err != nil {
					return err
				}
				saved, err := app.Cases.Update(ctx, tc)
				if err != nil {
					return err
				}
				app.Journal.Record(ctx, actor, constants.ActionUpdate, saved.ID, details)
				return reportCases(app, []domain.TestCase{saved}, "Updated")
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newCaseBulkEditCmd(flags *GlobalFlags) *cobra.Command {
	opts := &caseEditOptions{}
	cmd := &cobra.Command{
		Use:   "bulk-edit <case-id>...",
		Short: "Apply the same field changes to several cases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				cases := make([]domain.TestCase, 0, len(args))
				for _, id := range args {
					tc, err := app.Cases.Get(id)
					if err != nil {
						return err
					}
					if _, err := opts.apply(&tc); err != nil {
						return err
					}
					cases = append(cases, tc)
				}
				if err := app.Cases.BulkUpdate(ctx, actor, cases); err != nil {
					return err
				}
				app.Out.Success(fmt.Sprintf("Updated %d cases", len(cases)))
				return nil
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newCaseDeleteCmd(flags *GlobalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <case-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete test cases",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				ok, err := confirmDestructive(yes, fmt.Sprintf("Delete %s?", strings.Join(args, ", ")))
				if err != nil || !ok {
					return err
				}
				if err := app.Cases.Delete(ctx, actor, args...); err != nil {
					return err
				}
				app.Out.Success(fmt.Sprintf("Deleted %d case(s)", len(args)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirmDestructive asks before a destructive change unless yes is set.
// Without a terminal the caller must pass --yes.
func confirmDestructive(yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	if !tui.Interactive() {
		return false, errors.NewExitCode2Error(fmt.Errorf("%w: pass --yes to confirm", errors.ErrUserInputRequired))
	}
	return tui.Confirm(question, false)
}

// singleCaseCmd builds a command that runs one Manager operation on one case.
func singleCaseCmd(flags *GlobalFlags, use, short, verb string,
	op func(ctx context.Context, app *App, actor, id string) (domain.TestCase, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				tc, err := op(ctx, app, actor, args[0])
				if err != nil {
					return err
				}
				return reportCases(app, []domain.TestCase{tc}, verb)
			})
		},
	}
}

func newCaseDuplicateCmd(flags *GlobalFlags) *cobra.Command {
	return singleCaseCmd(flags, "duplicate <case-id>", "Copy a case under a new id with results cleared", "Duplicated as",
		func(ctx context.Context, app *App, actor, id string) (domain.TestCase, error) {
			return app.Cases.Duplicate(ctx, actor, id)
		})
}

func newCaseResetCmd(flags *GlobalFlags) *cobra.Command {
	return singleCaseCmd(flags, "reset <case-id>", "Clear all step results for a regression re-run", "Reset",
		func(ctx context.Context, app *App, actor, id string) (domain.TestCase, error) {
			return app.Cases.Reset(ctx, actor, id)
		})
}

func newCaseAssignCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <case-id> <username>",
		Short: "Assign a case to a tester",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				u, err := app.Users.Get(args[1])
				if err != nil {
					return err
				}
				tc, err := app.Cases.Assign(ctx, actor, args[0], u.Username)
				if err != nil {
					return err
				}
				return reportCases(app, []domain.TestCase{tc}, "Assigned")
			})
		},
	}
}

func newCaseActivateCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <case-id>...",
		Short: "Move backlog drafts into the active collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				activated, err := app.Cases.Activate(ctx, actor, args...)
				if err != nil {
					return err
				}
				return reportCases(app, activated, "Activated")
			})
		},
	}
}

func newCasePromoteFlowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "promote-flow <case-id> <flow-id>",
		Short: "Create an active case from one negative flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App) error {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				tc, err := app.Cases.PromoteFlow(ctx, actor, args[0], args[1])
				if err != nil {
					return err
				}
				return reportCases(app, []domain.TestCase{tc}, "Promoted to")
			})
		},
	}
}

// reportCases prints the affected cases: JSON as-is, text as one line each.
func reportCases(app *App, cases []domain.TestCase, verb string) error {
	if app.Out.IsJSON() {
		return app.Out.JSON(cases)
	}
	for i := range cases {
		app.Out.Success(fmt.Sprintf("%s %s  %s", verb, cases[i].ID, cases[i].Title))
	}
	return nil
}
