// Package channel implements the push side of the device connection: a
// WebSocket carrying named JSON events, kept open with automatic reconnects.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
)

// Events consumed from the device. Connect and disconnect are synthesised
// locally when the socket opens or drops.
const (
	EventConnect       = "connect"
	EventDisconnect    = "disconnect"
	EventConfigUpdated = "config_updated"
	EventStatusUpdate  = "pi_status_update"
)

// Events emitted to the device.
const (
	EventGetStatus    = "get_pi_status"
	EventToggleConfig = "toggle_config"
)

// Event is one frame on the wire: {"event": "<name>", "data": <payload>}.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent encodes payload as the event's data. A nil payload leaves Data empty.
func NewEvent(name string, payload any) (Event, error) {
	ev := Event{Name: name}
	if payload == nil {
		return ev, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	ev.Data = data
	return ev, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no payload", e.Name)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}

// Channel is a persistent, self-reconnecting push connection.
type Channel interface {
	// Run maintains the connection until ctx is cancelled.
	Run(ctx context.Context) error
	// Events delivers device events, including synthesised connect/disconnect.
	Events() <-chan Event
	// Emit sends a fire-and-forget event. It fails when the channel is not connected.
	Emit(name string, payload any) error
	Connected() bool
}
