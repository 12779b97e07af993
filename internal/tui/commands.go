package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// tickInterval is how often exited processes are pruned and the tracked
// PIDs refreshed.
const tickInterval = 500 * time.Millisecond

// stopTimeout bounds one terminate sweep.
const stopTimeout = 30 * time.Second

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) setupCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return setupDoneMsg{Err: ctrl.Setup(context.Background())}
	}
}

func (m Model) startCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		h, err := ctrl.Start(context.Background())
		if err != nil {
			return startedMsg{Err: err}
		}
		return startedMsg{PID: h.PID(), Started: h.Started()}
	}
}

func (m Model) stopCmd(quit bool) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return stoppedMsg{Err: ctrl.StopAll(ctx), Quit: quit}
	}
}
