// Package cli provides the command-line interface for testmo.
package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalLogger stores the logger built in PersistentPreRunE.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the logger built by the root command. Before the root
// command has run it returns a logger that discards everything.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// newRootCmd creates the root command with every subcommand attached.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "testmo",
		Short: "TestMo - manual test case management from the terminal",
		Long: `TestMo manages manual test cases: write or generate them, run them step by
step, record failures with notes and screenshot evidence, and export results.

Features:
  • Guided runner with mandatory notes for failed and blocked steps
  • AI generation, refinement, variants, CSV import and defect reports
  • Backlog drafts, negative flows and regression resets
  • Dashboard, activity journal and CSV export`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			flags.Output = v.GetString("output")
			flags.Verbose = v.GetBool("verbose")
			flags.Quiet = v.GetBool("quiet")

			if err := tui.ValidateFormat(flags.Output); err != nil {
				return errors.NewExitCode2Error(err)
			}

			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	addCaseCommand(cmd, flags)
	addStepCommand(cmd, flags)
	addRunCommand(cmd, flags)
	addAICommands(cmd, flags)
	addExportCommand(cmd, flags)
	addImportCommand(cmd, flags)
	addAccountCommands(cmd, flags)
	addUsersCommand(cmd, flags)
	addSettingsCommand(cmd, flags)
	addActivityCommand(cmd, flags)
	addDashboardCommand(cmd, flags)
	addThemeCommand(cmd, flags)
	addConfigCommand(cmd, flags)
	addCompletionCommand(cmd)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command and returns the process exit code.
// Errors are printed through the selected output format.
func Execute(ctx context.Context, info BuildInfo) int {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	err := cmd.ExecuteContext(ctx)
	defer CloseLogFile()

	if err != nil {
		out := tui.NewOutput(cmd.ErrOrStderr(), flags.Output)
		if flags.Output == OutputJSON {
			out = tui.NewOutput(cmd.OutOrStdout(), flags.Output)
		}
		out.Error(err)
	}
	return ExitCodeForError(err)
}
