package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/filtersync/internal/config"
	"github.com/hupe1980/filtersync/internal/filter"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for filtersync.

To load completions:

Bash:
  $ source <(filtersync completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ filtersync completion bash > /etc/bash_completion.d/filtersync

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ filtersync completion zsh > "${fpath[1]}/_filtersync"

Fish:
  $ filtersync completion fish > ~/.config/fish/completions/filtersync.fish

PowerShell:
  PS> filtersync completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> filtersync completion powershell > filtersync.ps1
  # and source this file from your PowerShell profile.
`,
		// Override parent PersistentPreRunE; completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

// registerProfileCompletion completes --profile with the built-in profile
// names and those of the auto-discovered config file.
func registerProfileCompletion(root *cobra.Command) {
	_ = root.RegisterFlagCompletionFunc("profile", func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := filter.BuiltinProfileNames()

		if cfg, err := config.Load(cmd, ""); err == nil {
			for name := range cfg.Profiles {
				names = append(names, name)
			}
		}

		return names, cobra.ShellCompDirectiveNoFileComp
	})
}
