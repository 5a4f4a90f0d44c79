package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/zipsign/internal/config"
	"github.com/mrz1836/zipsign/internal/tui"
)

// AddConfigCommand adds the config command group to root.
func AddConfigCommand(root *cobra.Command, gf *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect zipsign configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the effective configuration after merging, highest first:
ZIPSIGN_* environment variables, .zipsign/config.yaml in the current
directory, ~/.zipsign/config.yaml and the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), gf.Output)
		},
	})

	root.AddCommand(cmd)
}

func runConfigShow(ctx context.Context, w io.Writer, format string) error {
	cfg, err := config.Load(GetLogger().WithContext(ctx))
	if err != nil {
		return err
	}

	if format == OutputJSON {
		return tui.NewJSONOutput(w).JSON(cfg)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
