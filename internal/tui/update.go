package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/mindshell/internal/event"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.header.SetWidth(msg.Width)
		m.helpBar.SetWidth(msg.Width)
		// Header, status line and help bar take one row each.
		m.output.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case busMsg:
		m.output.Append(event.Message(msg))
		if msg.Topic == event.TopicSetupStatus {
			m.status = msg.Line
		}
		return m, nil

	case setupDoneMsg:
		if m.state == StateSettingUp {
			m.state = StateIdle
		}
		if msg.Err != nil {
			m.status = "Setup failed"
			m.helpBar.SetError(oneLine(msg.Err))
		}
		return m, nil

	case startedMsg:
		if msg.Err != nil {
			if m.state == StateStarting {
				m.state = StateIdle
			}
			m.status = "Start failed"
			m.helpBar.SetError(oneLine(msg.Err))
			return m, nil
		}
		if m.state == StateStopping {
			// A stop raced the launch; the sweep already covers this PID.
			return m, nil
		}
		m.state = StateRunning
		m.botPID = msg.PID
		m.botStart = msg.Started
		m.status = "Bot running"
		return m, nil

	case stoppedMsg:
		m.state = StateIdle
		m.botPID = 0
		m.status = "Stopped"
		m.tracked = m.ctrl.Tracked()
		if msg.Err != nil {
			m.helpBar.SetError(oneLine(msg.Err))
		}
		if msg.Quit {
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.ctrl.Prune()
		m.tracked = m.ctrl.Tracked()
		if m.state == StateRunning && !slices.Contains(m.tracked, m.botPID) {
			m.state = StateIdle
			m.botPID = 0
			m.status = "Bot exited"
		}
		return m, m.tickCmd()

	case spinner.TickMsg:
		if !m.state.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.helpBar.ClearError()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.quitting {
			return m, tea.Quit
		}
		m.quitting = true
		if len(m.ctrl.Tracked()) == 0 {
			return m, tea.Quit
		}
		m.state = StateStopping
		m.status = "Stopping tracked processes before quitting..."
		return m, tea.Batch(m.stopCmd(true), m.spinner.Tick)

	case key.Matches(msg, m.keys.Setup):
		if m.state != StateIdle {
			return m, nil
		}
		m.state = StateSettingUp
		m.status = "Starting setup..."
		return m, tea.Batch(m.setupCmd(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Start):
		if m.state != StateIdle {
			return m, nil
		}
		m.state = StateStarting
		m.status = "Starting..."
		return m, tea.Batch(m.startCmd(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Stop):
		if m.state == StateStopping {
			return m, nil
		}
		wasBusy := m.state.busy()
		m.state = StateStopping
		m.status = "Stopping..."
		if wasBusy {
			return m, m.stopCmd(false)
		}
		return m, tea.Batch(m.stopCmd(false), m.spinner.Tick)

	case key.Matches(msg, m.keys.Clear):
		m.output.Clear()

	case key.Matches(msg, m.keys.Up):
		m.output.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.output.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.output.ScrollToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.output.ScrollToBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.output.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.output.PageDown()
	}

	return m, nil
}

// oneLine flattens a joined error for the single-row help bar.
func oneLine(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
