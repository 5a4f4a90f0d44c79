package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/zipsign/internal/constants"
)

// archiveExtensions are offered when completing archive arguments.
//
//nolint:gochecknoglobals // completion table
var archiveExtensions = []string{"zip", "jar", "apk"}

// AddCompletionCommand replaces cobra's default completion command with
// one generator subcommand per shell.
func AddCompletionCommand(root *cobra.Command) {
	root.CompletionOptions.DisableDefaultCmd = true

	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completions",
		Long: `Generate a shell completion script for zipsign.

  source <(zipsign completion bash)
  source <(zipsign completion zsh)
  zipsign completion fish | source
  zipsign completion powershell | Out-String | Invoke-Expression`,
	}

	generators := map[string]func(*cobra.Command) error{
		"bash": func(c *cobra.Command) error { return c.Root().GenBashCompletionV2(c.OutOrStdout(), true) },
		"zsh":  func(c *cobra.Command) error { return c.Root().GenZshCompletion(c.OutOrStdout()) },
		"fish": func(c *cobra.Command) error { return c.Root().GenFishCompletion(c.OutOrStdout(), true) },
		"powershell": func(c *cobra.Command) error {
			return c.Root().GenPowerShellCompletionWithDesc(c.OutOrStdout())
		},
	}
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		gen := generators[shell]
		cmd.AddCommand(&cobra.Command{
			Use:                   shell,
			Short:                 "Generate the " + shell + " completion script",
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(c *cobra.Command, _ []string) error {
				return gen(c)
			},
		})
	}

	root.AddCommand(cmd)
}

// completeArchives completes up to maxArgs archive paths.
func completeArchives(maxArgs int) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return archiveExtensions, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeKeyModes offers the auto modes and every stored key name.
func completeKeyModes(cmd *cobra.Command, _ []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	candidates := []string{constants.KeyModeAuto, constants.KeyModeAutoTestkey, constants.KeyModeAutoNone}
	if store, err := openKeyStore(ctx); err == nil {
		if names, err := store.Names(ctx); err == nil {
			candidates = append(candidates, names...)
		}
	}

	out := make([]cobra.Completion, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, toComplete) {
			out = append(out, c)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
