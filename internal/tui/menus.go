package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// Terminal layout constants.
const (
	// TerminalEdgeMargin is kept free between prompt content and the edge.
	TerminalEdgeMargin = 4

	// MinMenuWidth is the narrowest a prompt is rendered.
	MinMenuWidth = 40
)

// ErrMenuCanceled is returned when the user aborts a prompt with Esc or
// ctrl+c, or when no terminal is attached.
var ErrMenuCanceled = zserrors.ErrMenuCanceled //nolint:gochecknoglobals // alias of a sentinel

// stdinIsTerminal is replaced in tests.
//
//nolint:gochecknoglobals // test seam
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// MenuConfig holds prompt settings.
type MenuConfig struct {
	// Width caps the prompt width. Zero adapts to the terminal.
	Width int
	// Accessible runs huh in screen reader mode.
	Accessible bool
	// ShowKeyHints shows the huh help line.
	ShowKeyHints bool
}

// NewMenuConfig returns defaults. ACCESSIBLE in the environment turns on
// accessible mode.
func NewMenuConfig() *MenuConfig {
	_, accessible := os.LookupEnv("ACCESSIBLE")
	return &MenuConfig{
		Width:        DefaultBoxWidth,
		Accessible:   accessible,
		ShowKeyHints: true,
	}
}

// adaptWidth fits maxWidth to the terminal, keeping a margin.
func adaptWidth(maxWidth int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // G115: file descriptors fit in int
	if err != nil || width <= 0 {
		if maxWidth <= 0 {
			return DefaultBoxWidth
		}
		return maxWidth
	}
	return fitWidth(maxWidth, width)
}

func fitWidth(maxWidth, termWidth int) int {
	available := termWidth - TerminalEdgeMargin
	if maxWidth > 0 && maxWidth < available {
		return maxWidth
	}
	if available < MinMenuWidth {
		return MinMenuWidth
	}
	return available
}

// runForm runs a single-field form with the zipsign theme.
func runForm(field huh.Field, cfg *MenuConfig, errorContext string) error {
	// Never block on a prompt without a terminal.
	if !stdinIsTerminal() {
		return ErrMenuCanceled
	}

	CheckNoColor()

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(Theme()).
		WithWidth(adaptWidth(cfg.Width)).
		WithAccessible(cfg.Accessible).
		WithShowHelp(cfg.ShowKeyHints)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrMenuCanceled
		}
		return fmt.Errorf("%s: %w", errorContext, err)
	}
	return nil
}

// Theme maps the palette onto a huh base theme.
func Theme() *huh.Theme {
	CheckNoColor()

	t := huh.ThemeBase()
	t.Focused.Base = t.Focused.Base.BorderForeground(ColorPrimary)
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(ColorPrimary)
	t.Blurred.Base = t.Blurred.Base.BorderForeground(ColorMuted)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorMuted)
	t.Help.Ellipsis = t.Help.Ellipsis.Foreground(ColorMuted)
	return t
}

// Confirm asks a yes/no question and returns the answer.
func Confirm(message, description string, defaultYes bool, cfg *MenuConfig) (bool, error) {
	if cfg == nil {
		cfg = NewMenuConfig()
	}
	confirmed := defaultYes

	field := huh.NewConfirm().
		Title(message).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	if err := runForm(field, cfg, "confirm prompt failed"); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Prompter asks the user before destructive steps.
type Prompter interface {
	ConfirmOverwrite(path string) (bool, error)
}

// HuhPrompter prompts on the terminal with huh.
type HuhPrompter struct {
	Config *MenuConfig
}

// ConfirmOverwrite asks whether an existing output archive may be replaced.
// It defaults to No.
func (p HuhPrompter) ConfirmOverwrite(path string) (bool, error) {
	return Confirm(
		"Overwrite "+path+"?",
		"The output archive already exists and will be replaced.",
		false,
		p.Config,
	)
}
