package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/testmo/internal/config"
	"github.com/mrz1836/testmo/internal/errors"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = "text"
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = "json"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool

	// Backend overrides storage.backend.
	Backend string
	// DataDir overrides storage.dir.
	DataDir string
	// Theme overrides ui.theme for this invocation.
	Theme string
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	pf.StringVar(&flags.Backend, "backend", "", "storage backend (file|sqlite|redis|memory)")
	pf.StringVar(&flags.DataDir, "data-dir", "", "directory of the file backend")
	pf.StringVar(&flags.Theme, "theme", "", "color theme for this run (light|dark)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper so TESTMO_OUTPUT, TESTMO_VERBOSE
// and TESTMO_QUIET work like the flags.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}
	v.SetEnvPrefix("TESTMO")
	v.AutomaticEnv()
	return nil
}

// overrides converts the storage and ui flags into a config overlay.
func (f *GlobalFlags) overrides() *config.Config {
	o := &config.Config{}
	o.Storage.Backend = f.Backend
	o.Storage.Dir = f.DataDir
	o.UI.Theme = f.Theme
	return o
}

// ExitCodeForError maps an error to a process exit code: 0 for nil, 2 for
// invalid input and validation failures, 1 otherwise.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.IsExitCode2Error(err) ||
		errors.IsValidation(err) ||
		stderrors.Is(err, errors.ErrInvalidOutputFormat) {
		return ExitInvalidInput
	}
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}
	return ExitError
}

// isInvalidInputError catches cobra's flag and argument errors.
func isInvalidInputError(errMsg string) bool {
	patterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts ",
		"requires at least",
	}
	for _, p := range patterns {
		if strings.Contains(errMsg, p) {
			return true
		}
	}
	return false
}
