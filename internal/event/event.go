// Package event carries setup progress and child process output from the
// core to whatever presents it.
package event

import "sync"

// Topics emitted by the core.
const (
	TopicSetupStatus   = "setup-status"
	TopicInstallStatus = "install-status"
	TopicInstallError  = "install-error"
	TopicNodeOutput    = "node-output"
	TopicNodeError     = "node-error"

	// TopicSettingsChanged is emitted when settings.json is rewritten on disk.
	TopicSettingsChanged = "settings-changed"
)

// Message is a single line published on a topic.
type Message struct {
	Topic string
	Line  string
}

// Sink receives lines on named topics. Emit is fire-and-forget; the core
// never inspects a result. A Sink that blocks stalls the caller.
type Sink interface {
	Emit(topic, line string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(topic, line string)

// Emit calls f(topic, line).
func (f SinkFunc) Emit(topic, line string) {
	f(topic, line)
}

// Discard is a Sink that drops everything.
var Discard Sink = SinkFunc(func(string, string) {})

// Recorder is a Sink that keeps every message in arrival order.
type Recorder struct {
	mu sync.Mutex
	// +checklocks:mu
	messages []Message
}

// Emit appends the message.
func (r *Recorder) Emit(topic, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Topic: topic, Line: line})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Lines returns the recorded lines for one topic, in order.
func (r *Recorder) Lines(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lines []string
	for _, m := range r.messages {
		if m.Topic == topic {
			lines = append(lines, m.Line)
		}
	}
	return lines
}
