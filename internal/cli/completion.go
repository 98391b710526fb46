package cli

import (
	"context"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mindweave.

Besides subcommands and flags, the scripts complete map names from the
configured store (mindweave show <TAB>) and node IDs for commands that
take them (mindweave rm roadmap <TAB>, mindweave path roadmap <TAB>).

Bash:
  $ source <(mindweave completion bash)
  $ mindweave completion bash > /etc/bash_completion.d/mindweave

Zsh:
  $ mindweave completion zsh > "${fpath[1]}/_mindweave"

Fish:
  $ mindweave completion fish > ~/.config/fish/completions/mindweave.fish

PowerShell:
  PS> mindweave completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(stdout, true)
			case "zsh":
				return root.GenZshCompletion(stdout)
			case "fish":
				return root.GenFishCompletion(stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeMap completes the leading <map> argument from the store.
func (c *CLI) completeMap(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return c.mapNames(completionContext(cmd), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeMapThenNodes completes <map>, then up to nodeArgs node IDs from
// that map, described by their text.
func (c *CLI) completeMapThenNodes(nodeArgs int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		ctx := completionContext(cmd)
		switch {
		case len(args) == 0:
			return c.mapNames(ctx, toComplete), cobra.ShellCompDirectiveNoFileComp
		case len(args) <= nodeArgs:
			return c.nodeIDs(ctx, args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

func (c *CLI) mapNames(ctx context.Context, prefix string) []cobra.Completion {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil
	}
	defer st.Close()
	names, err := st.List(ctx)
	if err != nil {
		return nil
	}
	var out []cobra.Completion
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

func (c *CLI) nodeIDs(ctx context.Context, name, prefix string) []cobra.Completion {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil
	}
	defer st.Close()
	doc, err := st.Get(ctx, name)
	if err != nil {
		return nil
	}
	var out []cobra.Completion
	for id, n := range doc.Nodes {
		if strings.HasPrefix(id, prefix) {
			out = append(out, cobra.CompletionWithDesc(id, n.Text))
		}
	}
	slices.Sort(out)
	return out
}

func completionContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
