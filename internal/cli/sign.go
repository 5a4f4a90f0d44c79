package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/mrz1836/zipsign/internal/config"
	"github.com/mrz1836/zipsign/internal/constants"
	"github.com/mrz1836/zipsign/internal/controller"
	"github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/keystore"
	"github.com/mrz1836/zipsign/internal/metrics"
	"github.com/mrz1836/zipsign/internal/signal"
	"github.com/mrz1836/zipsign/internal/signing"
	"github.com/mrz1836/zipsign/internal/tui"
	"github.com/mrz1836/zipsign/internal/zipsigner"
)

// SignFlags holds flags of the sign command.
type SignFlags struct {
	InputFile         string
	OutputFile        string
	KeyMode           string
	ShowProgressItems bool
	Force             bool
	UI                string

	// showItemsSet records whether --show-progress-items was given, so the
	// configured default applies otherwise.
	showItemsSet bool
}

// signEnv holds what the sign command takes from the process. Tests swap
// it out.
type signEnv struct {
	out         io.Writer
	errOut      io.Writer
	prompter    tui.Prompter
	interactive func() bool
	exit        func(code int)
}

func defaultSignEnv(cmd *cobra.Command) *signEnv {
	return &signEnv{
		out:         cmd.OutOrStdout(),
		errOut:      cmd.ErrOrStderr(),
		prompter:    tui.HuhPrompter{},
		interactive: isInteractive,
		exit:        os.Exit,
	}
}

// isInteractive reports whether both stdin and stdout are terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && //nolint:gosec // G115: file descriptors fit in int
		term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// AddSignCommand adds the sign command to root.
func AddSignCommand(root *cobra.Command, gf *GlobalFlags) {
	root.AddCommand(newSignCmd(gf))
}

func newSignCmd(gf *GlobalFlags) *cobra.Command {
	flags := &SignFlags{}

	cmd := &cobra.Command{
		Use:   "sign [input] [output]",
		Short: "Sign a zip archive",
		Long: `Sign a zip, jar or apk archive with a named key.

The input and output may be given as arguments or with --input-file and
--output-file. The key mode is a key name, or one of:
  auto          use the key that signed the input, fail if unknown
  auto-testkey  use the key that signed the input, else testkey
  auto-none     use the key that signed the input, else copy unsigned

Press c or esc to cancel a running signature.

Examples:
  zipsign sign app.zip app-signed.zip
  zipsign sign --key-mode release app.zip app-signed.zip
  zipsign sign --ui plain -o json app.zip app-signed.zip`,
		Args:              cobra.MaximumNArgs(2),
		ValidArgsFunction: completeArchives(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.showItemsSet = cmd.Flags().Changed("show-progress-items")
			err := runSign(cmd.Context(), flags, args, gf, defaultSignEnv(cmd))
			if stderrors.Is(err, errors.ErrOutcomeReported) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}

	cmd.Flags().StringVar(&flags.InputFile, "input-file", "", "archive to sign")
	cmd.Flags().StringVar(&flags.OutputFile, "output-file", "", "where to write the signed archive")
	cmd.Flags().StringVar(&flags.KeyMode, "key-mode", "", "key name or auto, auto-testkey, auto-none (default from config)")
	cmd.Flags().BoolVar(&flags.ShowProgressItems, "show-progress-items", constants.DefaultShowProgressItems, "show the entry being processed")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite the output without asking")
	cmd.Flags().StringVar(&flags.UI, "ui", "", "presentation: auto, tui or plain (default from config)")

	_ = cmd.MarkFlagFilename("input-file", archiveExtensions...)
	_ = cmd.MarkFlagFilename("output-file", archiveExtensions...)
	_ = cmd.RegisterFlagCompletionFunc("key-mode", completeKeyModes)
	_ = cmd.RegisterFlagCompletionFunc("ui", cobra.FixedCompletions(
		[]cobra.Completion{constants.UIModeAuto, constants.UIModeTUI, constants.UIModePlain}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// signExtras builds the string-keyed start parameters. Positional
// arguments win over the flags.
func signExtras(flags *SignFlags, args []string) map[string]string {
	extras := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			extras[key] = value
		}
	}

	set(constants.ParamInputFile, flags.InputFile)
	set(constants.ParamOutputFile, flags.OutputFile)
	if len(args) > 0 {
		set(constants.ParamInputFile, args[0])
	}
	if len(args) > 1 {
		set(constants.ParamOutputFile, args[1])
	}
	set(constants.ParamKeyMode, flags.KeyMode)
	if flags.showItemsSet {
		extras[constants.ParamShowProgressItems] = fmt.Sprint(flags.ShowProgressItems)
	}
	return extras
}

func runSign(ctx context.Context, flags *SignFlags, args []string, gf *GlobalFlags, env *signEnv) error {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)

	cfg, err := config.LoadWithOverrides(ctx, &config.Config{UI: config.UIConfig{Mode: flags.UI}})
	if err != nil {
		if flags.UI != "" && stderrors.Is(err, errors.ErrConfigInvalidUI) {
			return errors.NewExitCode2Error(err)
		}
		return err
	}

	params := signing.ParseParams(signExtras(flags, args), signing.Defaults{
		KeyMode:           cfg.Signing.DefaultKeyMode,
		ShowProgressItems: cfg.Progress.ShowItems,
	})

	if err := confirmOverwrite(params, flags.Force, gf.Output, env); err != nil {
		return err
	}

	keyDir, err := config.KeyDir(cfg)
	if err != nil {
		return err
	}
	store := keystore.New(keyDir,
		keystore.WithAutoCreate(cfg.Signing.AutoCreateKeys),
		keystore.WithLogger(logger),
	)

	rec := metrics.New()
	worker := signing.NewWorker(params, zipsigner.Factory(store, logger),
		signing.WithThrottle(signing.ThrottleConfig{
			Interval:        cfg.Progress.ThrottleInterval,
			CompletePercent: cfg.Progress.CompletePercent,
		}),
		signing.WithQueueSize(cfg.Progress.QueueSize),
		signing.WithLogger(logger),
		signing.WithMetrics(rec),
	)
	ilog := logger.With().Str("interaction_id", worker.ID()).Logger()

	var ctl *controller.Controller
	if useTUI(cfg.UI.Mode, gf.Output, env) {
		ctl, err = runSignTUI(ctx, worker, params, rec, ilog, env)
	} else {
		var obs controller.Observer
		if !gf.Quiet {
			obs = tui.NewPlainObserver(env.errOut)
		}
		ctl, err = runSignHeadless(ctx, worker, obs, rec, ilog, env)
	}
	if err != nil {
		return err
	}

	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		ilog.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics")
	}

	if err := tui.NewOutput(env.out, gf.Output).SignResult(ctl.Result()); err != nil {
		return err
	}
	return outcomeError(ctl)
}

// useTUI picks the presentation. JSON output never gets the interactive
// view unless it is forced.
func useTUI(mode, format string, env *signEnv) bool {
	switch mode {
	case constants.UIModeTUI:
		return true
	case constants.UIModePlain:
		return false
	default:
		return format != OutputJSON && env.interactive()
	}
}

// confirmOverwrite asks before replacing an existing output archive.
func confirmOverwrite(params signing.Params, force bool, format string, env *signEnv) error {
	if force || params.OutputFile == "" {
		return nil
	}
	if _, err := os.Stat(params.OutputFile); err != nil {
		return nil //nolint:nilerr // a missing output is the normal case
	}

	if format == OutputJSON || !env.interactive() {
		return errors.NewExitCode2Error(
			fmt.Errorf("%s: %w: %w", params.OutputFile, errors.ErrOutputExists, errors.ErrNonInteractiveMode))
	}

	ok, err := env.prompter.ConfirmOverwrite(params.OutputFile)
	switch {
	case stderrors.Is(err, errors.ErrMenuCanceled):
		return fmt.Errorf("%w: %w", errors.ErrSigningCanceled, err)
	case err != nil:
		return err
	case !ok:
		return fmt.Errorf("%s: %w", params.OutputFile, errors.ErrOutputExists)
	}
	return nil
}

// runSignHeadless drives the worker with Controller.Run. SIGINT and SIGTERM
// become one cancel request; a second signal exits at once.
func runSignHeadless(ctx context.Context, worker *signing.Worker, obs controller.Observer,
	rec *metrics.Recorder, logger zerolog.Logger, env *signEnv,
) (*controller.Controller, error) {
	h := signal.NewHandler(ctx)
	defer h.Stop()

	opts := []controller.Option{controller.WithLogger(logger), controller.WithMetrics(rec)}
	if obs != nil {
		opts = append(opts, controller.WithObserver(obs))
	}
	ctl := controller.New(worker, opts...)

	go forceExitOnSecondSignal(h, worker, logger, env)

	g, gctx := errgroup.WithContext(h.Context())
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		ctl.Run(gctx, worker.Messages())
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ctl, nil
}

// runSignTUI shows the Bubble Tea view while the worker runs.
func runSignTUI(ctx context.Context, worker *signing.Worker, params signing.Params,
	rec *metrics.Recorder, logger zerolog.Logger, env *signEnv,
) (*controller.Controller, error) {
	h := signal.NewHandler(ctx)
	defer h.Stop()

	ctl := controller.New(worker, controller.WithLogger(logger), controller.WithMetrics(rec))
	model := tui.NewSignModel(ctl, params.InputFile, params.OutputFile)
	pump := tui.NewPump(worker.Messages())
	// ctrl+c arrives as a key in raw mode; SIGTERM comes through h.
	p := tea.NewProgram(model, tea.WithOutput(env.errOut), tea.WithoutSignalHandler())
	viewDone := make(chan struct{})

	go forceExitOnSecondSignal(h, worker, logger, env)

	g, gctx := errgroup.WithContext(h.Context())
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-h.Interrupted():
			p.Send(tui.CancelRequestMsg{})
		case <-worker.Done():
		}
		return nil
	})
	g.Go(func() error {
		pump.Run(p.Send, viewDone)
		return nil
	})
	g.Go(func() error {
		if _, err := p.Run(); err != nil {
			logger.Warn().Err(err).Msg("terminal UI stopped, canceling")
			ctl.RequestCancel()
		}
		close(viewDone)
		// Finish with whatever the view did not apply so the worker can exit.
		ctl.Run(context.Background(), pump.Rest())
		for range pump.Rest() {
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ctl, nil
}

func forceExitOnSecondSignal(h *signal.Handler, worker *signing.Worker, logger zerolog.Logger, env *signEnv) {
	select {
	case <-h.Forced():
		logger.Warn().Msg("second interrupt, exiting without waiting for the worker")
		env.exit(ExitCanceled)
	case <-worker.Done():
	}
}

// outcomeError maps the reported outcome to the command error.
func outcomeError(ctl *controller.Controller) error {
	r := ctl.Result()
	switch r.Code {
	case controller.ResultOK:
		return nil
	case controller.ResultCanceled:
		return fmt.Errorf("%w: %w", errors.ErrSigningCanceled, errors.ErrOutcomeReported)
	}

	err := fmt.Errorf("%w: %s: %w", errors.ErrSigningFailed, r.ErrorMessage, errors.ErrOutcomeReported)
	if f, ok := ctl.Failure(); ok && f.ErrorKind == errors.ArgumentErrorKind {
		return errors.NewExitCode2Error(err)
	}
	return err
}
