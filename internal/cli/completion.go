package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for tracewire. Once loaded, subcommands
and flags (for example "tracewire render --formats") complete with Tab.

Bash:
  $ source <(tracewire completion bash)

  # Or install it permanently:
  $ tracewire completion bash > /etc/bash_completion.d/tracewire

Zsh:
  # compinit must be enabled; if it is not, run once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ tracewire completion zsh > "${fpath[1]}/_tracewire"
  # then start a new shell.

Fish:
  $ tracewire completion fish > ~/.config/fish/completions/tracewire.fish

PowerShell:
  PS> tracewire completion powershell > tracewire.ps1
  # and source tracewire.ps1 from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
