package tui

import (
	"time"

	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/registry"
)

// busMsg carries one event from the application bus.
type busMsg event.Message

// setupDoneMsg is the result of a setup-only run.
type setupDoneMsg struct {
	Err error
}

// startedMsg is the result of setup followed by launch.
type startedMsg struct {
	PID     registry.PID
	Started time.Time
	Err     error
}

// stoppedMsg is the result of a terminate sweep.
type stoppedMsg struct {
	Err error
	// Quit is set when the sweep ran because the user is quitting.
	Quit bool
}

// tickMsg is sent on regular intervals to refresh the tracked PIDs.
type tickMsg time.Time
