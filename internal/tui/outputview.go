package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tessro/mindshell/internal/event"
)

// maxLines caps the output kept in memory.
const maxLines = 10000

// OutputView displays the scrollable, topic-coloured output of setup and the
// bot.
type OutputView struct {
	width    int
	height   int
	viewport viewport.Model
	lines    []event.Message
	ready    bool
}

// NewOutputView creates a new output view component.
func NewOutputView() OutputView {
	return OutputView{}
}

// SetSize updates the component dimensions.
func (v *OutputView) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	v.width = width
	v.height = height

	if !v.ready {
		v.viewport = viewport.New(width, height)
		v.ready = true
	} else {
		v.viewport.Width = width
		v.viewport.Height = height
	}

	v.updateContent()
}

// Append adds one line of output.
func (v *OutputView) Append(msg event.Message) {
	atBottom := !v.ready || v.viewport.AtBottom()

	v.lines = append(v.lines, msg)
	if len(v.lines) > maxLines {
		v.lines = v.lines[len(v.lines)-maxLines:]
	}

	v.updateContent()

	// Follow new output unless the user has scrolled up.
	if atBottom {
		v.viewport.GotoBottom()
	}
}

// Clear removes all output.
func (v *OutputView) Clear() {
	v.lines = nil
	v.updateContent()
}

// Len returns the number of lines held.
func (v *OutputView) Len() int {
	return len(v.lines)
}

// ScrollUp scrolls the viewport up.
func (v *OutputView) ScrollUp(lines int) {
	v.viewport.LineUp(lines)
}

// ScrollDown scrolls the viewport down.
func (v *OutputView) ScrollDown(lines int) {
	v.viewport.LineDown(lines)
}

// ScrollToTop scrolls to the top.
func (v *OutputView) ScrollToTop() {
	v.viewport.GotoTop()
}

// ScrollToBottom scrolls to the bottom.
func (v *OutputView) ScrollToBottom() {
	v.viewport.GotoBottom()
}

// PageUp scrolls up by one page.
func (v *OutputView) PageUp() {
	v.viewport.ViewUp()
}

// PageDown scrolls down by one page.
func (v *OutputView) PageDown() {
	v.viewport.ViewDown()
}

func (v *OutputView) updateContent() {
	if !v.ready {
		return
	}
	rendered := make([]string, len(v.lines))
	for i, msg := range v.lines {
		rendered[i] = renderLine(msg, v.width)
	}
	v.viewport.SetContent(strings.Join(rendered, "\n"))
}

// renderLine wraps a line to width and colours it by topic.
func renderLine(msg event.Message, width int) string {
	line := msg.Line
	if msg.Topic == event.TopicSetupStatus {
		line = "» " + line
	}
	if width > 0 {
		line = wordwrap.String(line, width)
	}

	switch msg.Topic {
	case event.TopicSetupStatus:
		return outputStatusStyle.Render(line)
	case event.TopicInstallStatus:
		return outputInstallStyle.Render(line)
	case event.TopicInstallError:
		return outputInstallErrorStyle.Render(line)
	case event.TopicNodeError:
		return outputNodeErrorStyle.Render(line)
	case event.TopicSettingsChanged:
		return outputSettingsStyle.Render("settings changed: " + line)
	default:
		return line
	}
}

// View renders the output view.
func (v OutputView) View() string {
	if len(v.lines) == 0 {
		return outputEmptyStyle.Width(v.width).Height(v.height).
			Render("Press enter to set up and start the bot, or s to run setup only.")
	}
	return v.viewport.View()
}
