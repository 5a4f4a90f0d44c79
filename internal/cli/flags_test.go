package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/zipsign/internal/errors"
)

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
	assert.Equal(t, []string{"text", "json"}, ValidOutputFormats())
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "generic", err: stderrors.New("boom"), want: ExitError}, //nolint:err113 // test error
		{name: "signing failed", err: fmt.Errorf("%w: FormatError: bad zip", errors.ErrSigningFailed), want: ExitError},
		{name: "canceled", err: fmt.Errorf("%w: %w", errors.ErrSigningCanceled, errors.ErrOutcomeReported), want: ExitCanceled},
		{name: "exit code 2 wrapper", err: errors.NewExitCode2Error(stderrors.New("bad")), want: ExitInvalidInput}, //nolint:err113 // test error
		{name: "invalid output format", err: fmt.Errorf("%w: xml", errors.ErrInvalidOutputFormat), want: ExitInvalidInput},
		{name: "non interactive", err: fmt.Errorf("out.zip: %w", errors.ErrNonInteractiveMode), want: ExitInvalidInput},
		{name: "unknown flag", err: stderrors.New("unknown flag: --nope"), want: ExitInvalidInput},         //nolint:err113 // test error
		{name: "too many args", err: stderrors.New("accepts at most 2 arg(s), received 3"), want: ExitInvalidInput}, //nolint:err113 // test error
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestBindGlobalFlags(t *testing.T) {
	t.Setenv("ZIPSIGN_VERBOSE", "true")

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	v := viper.New()
	require.NoError(t, BindGlobalFlags(v, cmd))

	assert.True(t, v.GetBool("verbose"))
	assert.Equal(t, OutputText, v.GetString("output"))
}
