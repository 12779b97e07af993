package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/mindshell/internal/registry"
)

// Header displays the branding, the bot state and the tracked PIDs.
type Header struct {
	width int

	state   State
	botPID  registry.PID
	uptime  time.Duration
	tracked []registry.PID
}

// NewHeader creates a new header component.
func NewHeader() Header {
	return Header{}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetState updates the bot state and its PID (zero when not running).
func (h *Header) SetState(state State, botPID registry.PID) {
	h.state = state
	h.botPID = botPID
}

// SetUptime updates how long the bot has been running.
func (h *Header) SetUptime(d time.Duration) {
	h.uptime = d
}

// SetTracked updates the tracked PIDs.
func (h *Header) SetTracked(pids []registry.PID) {
	h.tracked = pids
}

// View renders the header.
func (h Header) View() string {
	brand := headerBrandStyle.Render("⛏ mindshell")

	var state string
	if h.state == StateRunning && h.botPID != 0 {
		state = headerRunningStyle.Render(fmt.Sprintf(" ● running (pid %d, up %s)", h.botPID, formatUptime(h.uptime)))
	} else {
		state = headerStatsStyle.Render(h.state.String())
	}

	stats := headerStatsStyle.Render(trackedLabel(h.tracked))

	spacerWidth := h.width - lipgloss.Width(brand) - lipgloss.Width(state) - lipgloss.Width(stats)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Top, brand, state, spacer, stats)
	return headerContainerStyle.Width(h.width).Render(content)
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}

func trackedLabel(pids []registry.PID) string {
	if len(pids) == 0 {
		return "no tracked processes"
	}
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = pid.String()
	}
	return "tracked: " + strings.Join(parts, ", ")
}
