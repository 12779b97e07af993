package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/mindshell/internal/event"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// topicPrinter writes every message as "[topic] line". Bus subscribers run
// on forwarder goroutines, so writes are serialized.
func topicPrinter(w io.Writer) func(event.Message) {
	var mu sync.Mutex
	return func(m event.Message) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "[%s] %s\n", m.Topic, m.Line)
	}
}

// streamPrinter writes child output verbatim, stdout topics to out and
// stderr topics to errOut, with setup progress on errOut.
func streamPrinter(out, errOut io.Writer) func(event.Message) {
	var mu sync.Mutex
	return func(m event.Message) {
		mu.Lock()
		defer mu.Unlock()
		switch m.Topic {
		case event.TopicNodeOutput, event.TopicInstallStatus:
			_, _ = fmt.Fprintln(out, m.Line)
		case event.TopicNodeError, event.TopicInstallError:
			_, _ = fmt.Fprintln(errOut, m.Line)
		case event.TopicSetupStatus:
			_, _ = fmt.Fprintln(errOut, statusStyle.Render("» "+m.Line))
		}
	}
}

// tail keeps the last n lines it is given.
type tail struct {
	mu    sync.Mutex
	n     int
	lines []string
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
