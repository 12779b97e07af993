package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// HelpBar displays the keyboard shortcuts valid in the current state.
type HelpBar struct {
	width int
	keys  KeyBindings

	state State

	// Error display
	errorMsg string
}

// NewHelpBar creates a new help bar component.
func NewHelpBar() HelpBar {
	return HelpBar{
		keys: DefaultKeyBindings(),
	}
}

// SetWidth updates the help bar width.
func (h *HelpBar) SetWidth(width int) {
	h.width = width
}

// SetState updates which shortcuts are offered.
func (h *HelpBar) SetState(state State) {
	h.state = state
}

// SetError sets the error message to display.
func (h *HelpBar) SetError(msg string) {
	h.errorMsg = msg
}

// ClearError clears the error message.
func (h *HelpBar) ClearError() {
	h.errorMsg = ""
}

// View renders the help bar.
func (h HelpBar) View() string {
	if h.errorMsg != "" {
		return errorBarStyle.Width(h.width).Render("Error: " + h.errorMsg)
	}

	var bindings []key.Binding
	switch h.state {
	case StateIdle:
		bindings = []key.Binding{h.keys.Start, h.keys.Setup, h.keys.Clear, h.keys.PageUp, h.keys.Quit}
	case StateRunning:
		bindings = []key.Binding{h.keys.Stop, h.keys.Clear, h.keys.PageUp, h.keys.Quit}
	default:
		bindings = []key.Binding{h.keys.Stop, h.keys.PageUp, h.keys.Quit}
	}

	return statusStyle.Width(h.width).Render(formatHelp(bindings))
}

// formatHelp formats a list of key bindings as help text.
func formatHelp(bindings []key.Binding) string {
	var parts []string
	for _, b := range bindings {
		help := b.Help()
		parts = append(parts, help.Key+": "+help.Desc)
	}
	return strings.Join(parts, "  ")
}
