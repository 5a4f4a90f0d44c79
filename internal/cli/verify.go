package cli

import (
	"context"
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/mrz1836/zipsign/internal/config"
	"github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/keystore"
	"github.com/mrz1836/zipsign/internal/tui"
	"github.com/mrz1836/zipsign/internal/zipsigner"
)

// verifyResult is the JSON document written by verify.
type verifyResult struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	KeyName string `json:"keyName,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddVerifyCommand adds the verify command to root.
func AddVerifyCommand(root *cobra.Command, gf *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify the signature of a signed archive",
		Long: `Check that an archive carries a valid zipsign signature from a known key
and that no entry was added, removed or changed after signing.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeArchives(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runVerify(cmd.Context(), args[0], tui.NewOutput(cmd.OutOrStdout(), gf.Output), gf.Output)
			if stderrors.Is(err, errors.ErrOutcomeReported) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}
	root.AddCommand(cmd)
}

func runVerify(ctx context.Context, path string, out tui.Output, format string) error {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	keyDir, err := config.KeyDir(cfg)
	if err != nil {
		return err
	}
	store := keystore.New(keyDir, keystore.WithLogger(logger))

	keyName, verr := zipsigner.Verify(ctx, path, store)
	if verr != nil {
		logger.Debug().Err(verr).Str("file", path).Msg("verification failed")
		if format != OutputJSON {
			out.Error(verr)
			return stderrors.Join(verr, errors.ErrOutcomeReported)
		}
		if err := out.JSON(verifyResult{File: path, Error: errors.Describe(verr)}); err != nil {
			return err
		}
		return stderrors.Join(verr, errors.ErrOutcomeReported)
	}

	logger.Info().Str("file", path).Str("key_name", keyName).Msg("signature verified")
	if format == OutputJSON {
		return out.JSON(verifyResult{File: path, Valid: true, KeyName: keyName})
	}
	out.Success("valid signature by key " + keyName)
	return nil
}
