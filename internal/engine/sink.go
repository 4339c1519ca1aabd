package engine

import (
	"github.com/dm/pidash/internal/alert"
	"github.com/dm/pidash/internal/model"
)

// Update is a state-change notification from the Syncer.
type Update struct {
	State       model.ConnState
	Snapshot    model.StatusSnapshot
	HasSnapshot bool
	Flags       alert.Flags
	Seq         uint64
}

// Sink receives state-change notifications. Both methods are called from the
// goroutine that made the change and should return quickly.
type Sink interface {
	StatusChanged(Update)
	ConfigChanged(model.ConfigMap)
}

// Indicator colours.
const (
	ColorGreen = "green"
	ColorRed   = "red"
	ColorGray  = "gray"
)

// Indicator is the text and colour of a status badge.
type Indicator struct {
	Text  string
	Color string
}

// ConnectionIndicator maps a connection state to its badge. It depends on
// nothing but the state.
func ConnectionIndicator(s model.ConnState) Indicator {
	switch s {
	case model.StateConnected:
		return Indicator{Text: "Connected", Color: ColorGreen}
	case model.StateDisconnected:
		return Indicator{Text: "Disconnected", Color: ColorRed}
	default:
		return Indicator{Text: "Connecting...", Color: ColorGray}
	}
}

// DeviceIndicator describes whether the device itself answered, independent of
// which channel carried the answer.
func DeviceIndicator(u Update) Indicator {
	switch {
	case !u.HasSnapshot:
		return Indicator{Text: "Waiting for device...", Color: ColorGray}
	case u.Snapshot.DeviceActive():
		return Indicator{Text: "Active and connected", Color: ColorGreen}
	default:
		return Indicator{Text: "Inactive / Disconnected", Color: ColorRed}
	}
}
