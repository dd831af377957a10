package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/testmo/internal/dashboard"
	"github.com/mrz1836/testmo/internal/tui"
)

// addActivityCommand adds the activity journal view.
func addActivityCommand(root *cobra.Command, flags *GlobalFlags) {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show who changed what, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				entries := app.Journal.Entries()
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				if app.Out.IsJSON() {
					return app.Out.JSON(entries)
				}
				if len(entries) == 0 {
					app.Out.Info("No activity yet.")
					return nil
				}
				app.Out.Table(tui.ActivityHeaders, tui.ActivityRows(entries, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show, 0 for all")
	root.AddCommand(cmd)
}

// addDashboardCommand adds the statistics overview.
func addDashboardCommand(root *cobra.Command, flags *GlobalFlags) {
	var drill string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show pass rate, status breakdown, hotspots and trend",
		Long: `Show pass rate, status breakdown, defect hotspots and the 7-day trend.

With --drill the cases behind one card are listed instead:
total, passed, failed (includes blocked) or drafts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, app *App) error {
				cases := app.Cases.Cases()
				if drill != "" {
					card, err := matchEnum("card", drill, []dashboard.DrillDown{
						dashboard.DrillTotal, dashboard.DrillPassed, dashboard.DrillFailed, dashboard.DrillDrafts,
					})
					if err != nil {
						return err
					}
					picked := dashboard.Cases(cases, card)
					if app.Out.IsJSON() {
						return app.Out.JSON(picked)
					}
					app.Out.Table(tui.CaseHeaders, tui.CaseRows(picked))
					return nil
				}

				stats := dashboard.Compute(cases)
				if app.Out.IsJSON() {
					return app.Out.JSON(stats)
				}
				_, err := fmt.Fprint(app.W, tui.DashboardView(&stats))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&drill, "drill", "", "list the cases of one card (total, passed, failed, drafts)")
	root.AddCommand(cmd)
}
