// Package tui provides the Bubbletea-based terminal user interface for
// mindshell.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/mindshell/internal/app"
	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/registry"
	"github.com/tessro/mindshell/internal/runner"
)

// State is what the TUI is currently doing with the bot.
type State int

const (
	StateIdle State = iota
	StateSettingUp
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSettingUp:
		return "setting up"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

func (s State) busy() bool {
	return s == StateSettingUp || s == StateStarting || s == StateStopping
}

// Controller is the part of the application the TUI drives.
type Controller interface {
	Setup(ctx context.Context) error
	Start(ctx context.Context, args ...string) (*runner.Handle, error)
	StopAll(ctx context.Context) error
	Prune() []registry.PID
	Tracked() []registry.PID
}

// Model is the main Bubbletea model for the mindshell TUI.
type Model struct {
	// Window dimensions
	width  int
	height int

	ready bool

	ctrl Controller

	state    State
	botPID   registry.PID
	botStart time.Time
	status   string
	quitting bool
	tracked  []registry.PID

	// Components
	header  Header
	output  OutputView
	helpBar HelpBar
	spinner spinner.Model

	keys KeyBindings
}

// New creates a TUI model driving ctrl.
func New(ctrl Controller) Model {
	return Model{
		ctrl:    ctrl,
		header:  NewHeader(),
		output:  NewOutputView(),
		helpBar: NewHelpBar(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(statusSpinnerStyle),
		),
		keys: DefaultKeyBindings(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	m.header.SetState(m.state, m.botPID)
	if m.state == StateRunning {
		m.header.SetUptime(time.Since(m.botStart))
	}
	m.header.SetTracked(m.tracked)
	m.helpBar.SetState(m.state)

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		m.header.View(),
		m.output.View(),
		m.statusLine(),
		m.helpBar.View(),
	)
}

func (m Model) statusLine() string {
	text := m.status
	if text == "" {
		text = m.state.String()
	}
	if m.state.busy() {
		return statusStyle.Width(m.width).Render(m.spinner.View() + " " + text)
	}
	return statusStyle.Width(m.width).Render(text)
}

// Run starts the TUI over a, forwarding every bus event into the program.
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())

	unsubscribe := a.Bus().Subscribe(func(msg event.Message) {
		p.Send(busMsg(msg))
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.WatchSettings(ctx); err != nil {
		// The working directory does not exist until the first setup.
		slog.Debug("tui.Run: settings watch unavailable", "error", err)
	}

	slog.Debug("tui.Run: running program")
	_, err := p.Run()
	slog.Debug("tui.Run: program exited", "error", err)
	return err
}
