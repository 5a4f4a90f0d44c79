// Package cli provides the command-line interface for zipsign.
package cli

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/tui"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
	// ExitCanceled matches the shell convention for SIGINT (128+2).
	ExitCanceled = 130
)

// Values of --output.
const (
	OutputText = tui.FormatText
	OutputJSON = tui.FormatJSON
)

// GlobalFlags are the persistent flags of the root command.
type GlobalFlags struct {
	Output  string
	Verbose bool
	// Quiet drops progress lines and logs below warn.
	Quiet bool
}

// AddGlobalFlags registers the persistent flags on cmd.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", OutputText, "result format: text or json")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "log at debug level")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "only print the result")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(ValidOutputFormats(), cobra.ShellCompDirectiveNoFileComp))
}

// BindGlobalFlags binds the persistent flags to v, so ZIPSIGN_OUTPUT,
// ZIPSIGN_VERBOSE and ZIPSIGN_QUIET set them when the flag is absent.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, pf.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	return nil
}

// ValidOutputFormats lists the accepted --output values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat reports whether format is an accepted --output value.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// ExitCodeForError maps an error returned by a command to the process
// exit code: 130 for a canceled interaction, 2 for invalid input (bad
// flags, missing start parameters, unanswerable prompts) and 1 otherwise.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if stderrors.Is(err, errors.ErrSigningCanceled) {
		return ExitCanceled
	}

	if errors.IsExitCode2Error(err) ||
		stderrors.Is(err, errors.ErrInvalidOutputFormat) ||
		stderrors.Is(err, errors.ErrNonInteractiveMode) {
		return ExitInvalidInput
	}

	// Cobra flag parsing errors are plain strings.
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}

	return ExitError
}

// usagePatterns identify cobra and pflag usage errors, which carry no type.
//
//nolint:gochecknoglobals // lookup table
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"required flag",
	"unknown command",
	"accepts at most",
	"accepts between",
	"accepts 1 arg",
}

func isInvalidInputError(msg string) bool {
	return slices.ContainsFunc(usagePatterns, func(p string) bool {
		return strings.Contains(msg, p)
	})
}
