package cli

import (
	"github.com/spf13/cobra"
)

// addCompletionCommand replaces cobra's default completion command with one
// that documents how to load each shell's script.
func addCompletionCommand(root *cobra.Command) {
	root.CompletionOptions.DisableDefaultCmd = true

	cmd := &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Generate shell completions",
		Long: `Generate a shell completion script for testmo.

Load completions in the current session:
  bash:        source <(testmo completion bash)
  zsh:         source <(testmo completion zsh)
  fish:        testmo completion fish | source
  powershell:  testmo completion powershell | Out-String | Invoke-Expression

To load them permanently, write the script to your shell's completion directory.`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}
	root.AddCommand(cmd)
}
