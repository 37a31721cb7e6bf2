package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for nano.

Bash:

  $ source <(nano completion bash)

Zsh:

  $ nano completion zsh > "${fpath[1]}/_nano"

Fish:

  $ nano completion fish > ~/.config/fish/completions/nano.fish

PowerShell:

  PS> nano completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		Annotations:           map[string]string{skipSetup: "true"},
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeKinds offers kind names for the positional arguments listed in positions
func completeKinds(positions ...int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		for _, p := range positions {
			if p == len(args) {
				return kindsWithPrefix(toComplete), cobra.ShellCompDirectiveNoFileComp
			}
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeIncludes completes the last element of a comma separated kind list
func completeIncludes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	head, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		head, last = toComplete[:i+1], toComplete[i+1:]
	}
	names := kindsWithPrefix(last)
	for i := range names {
		names[i] = head + names[i]
	}
	return names, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func kindsWithPrefix(prefix string) []string {
	var names []string
	for _, k := range kind.All() {
		if strings.HasPrefix(k.Plural(), prefix) {
			names = append(names, k.Plural())
		}
	}
	return names
}
