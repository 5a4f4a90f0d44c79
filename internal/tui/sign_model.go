package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/zipsign/internal/controller"
	"github.com/mrz1836/zipsign/internal/signing"
)

// Layout of the sign view.
const (
	minBarWidth = 20
	maxBarWidth = 60
	// barChrome is the space next to the bar taken by the spinner and percent.
	barChrome = 8
)

// workerMsg carries one message from the worker channel into the event loop.
// ok is false once the channel is closed. ack is closed after the message
// has been applied.
type workerMsg struct {
	msg signing.Message
	ok  bool
	ack chan struct{}
}

// CancelRequestMsg asks the model to relay a cancel request. The CLI sends
// it with tea.Program.Send when SIGTERM arrives while the view is up.
type CancelRequestMsg struct{}

// SignModel is the Bubble Tea model shown while an archive is signed.
// A Pump feeds it the worker messages; it applies them to a Controller and
// quits once the controller reports an outcome. Pressing c, esc or ctrl+c relays a cancel
// request; the view keeps running until the worker answers it.
type SignModel struct {
	ctl     *controller.Controller
	bar     *ProgressBar
	spinner spinner.Model
	styles  *OutputStyles

	input, output string
	width         int
}

// NewSignModel creates the model for ctl, the controller wrapping the worker.
func NewSignModel(ctl *controller.Controller, input, output string) *SignModel {
	CheckNoColor()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return &SignModel{
		ctl:     ctl,
		bar:     NewProgressBar(maxBarWidth - barChrome),
		spinner: sp,
		styles:  NewOutputStyles(),
		input:   input,
		output:  output,
		width:   DefaultBoxWidth,
	}
}

// Init starts the spinner.
func (m *SignModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles key presses, resizes and worker messages.
func (m *SignModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "c", "esc", "ctrl+c":
			m.ctl.RequestCancel()
		}
		return m, nil

	case CancelRequestMsg:
		m.ctl.RequestCancel()
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil

	case spinner.TickMsg:
		if m.ctl.Done() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case workerMsg:
		if !msg.ok {
			m.ctl.Close()
		} else {
			m.ctl.Apply(msg.msg)
		}
		if msg.ack != nil {
			close(msg.ack)
		}
		if m.ctl.Done() {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// View renders the progress bar, the current label and any notices.
func (m *SignModel) View() string {
	var b strings.Builder

	b.WriteString(StyleBold.Render("Signing " + TruncateLabel(m.input, m.width-len("Signing "))))
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("  → " + TruncateLabel(m.output, m.width-4)))
	b.WriteString("\n\n")

	indicator := m.spinner.View()
	if m.ctl.Done() {
		indicator = m.outcomeIcon()
	}
	b.WriteString(indicator + " " + m.bar.Render(m.ctl.Percent()) + " " + FormatPercent(m.ctl.Percent()))
	b.WriteString("\n")

	if label := m.ctl.Label(); label != "" {
		b.WriteString("  " + TruncateLabel(label, m.width-2))
		b.WriteString("\n")
	}
	for _, notice := range m.ctl.Notices() {
		b.WriteString(m.styles.Dim.Render("  " + TruncateLabel(notice, m.width-2)))
		b.WriteString("\n")
	}

	switch {
	case m.ctl.Done():
	case m.ctl.CancelRequested():
		b.WriteString("\n" + m.styles.Warning.Render("Canceling…"))
		b.WriteString("\n")
	default:
		b.WriteString("\n" + m.styles.Dim.Render("Press c or esc to cancel"))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the outcome once the program has exited.
func (m *SignModel) Result() controller.Result {
	return m.ctl.Result()
}

// Done reports whether the worker delivered its outcome.
func (m *SignModel) Done() bool {
	return m.ctl.Done()
}

func (m *SignModel) resize(width int) {
	if width <= 0 {
		return
	}
	m.width = min(width, DefaultBoxWidth)
	m.bar.SetWidth(max(minBarWidth, min(maxBarWidth, m.width)-barChrome))
}

func (m *SignModel) outcomeIcon() string {
	switch m.ctl.Result().Code {
	case controller.ResultOK:
		return m.styles.Success.Render("✓")
	case controller.ResultCanceled:
		return m.styles.Warning.Render("⚠")
	default:
		return m.styles.Error.Render("✗")
	}
}
