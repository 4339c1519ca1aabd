package tui

import (
	"time"

	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/model"
)

// StatusMsg delivers a connection state or snapshot change to the TUI.
type StatusMsg struct{ Update engine.Update }

// ConfigMsg delivers a freshly fetched device configuration.
type ConfigMsg struct{ Config model.ConfigMap }

// ToggleResultMsg reports the outcome of a config toggle.
type ToggleResultMsg struct {
	Key string
	Err error
}

// ConfigErrorMsg signals a failed manual config refetch.
type ConfigErrorMsg struct{ Err error }

// TickMsg refreshes time-dependent parts of the view.
type TickMsg time.Time
