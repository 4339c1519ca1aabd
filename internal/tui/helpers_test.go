package tui

import (
	"strings"
	"time"

	"github.com/dm/pidash/internal/alert"
	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/model"
)

// stripANSI removes CSI escape sequences (ESC '[' params final) for plain-text
// content assertions.
func stripANSI(s string) string {
	var out strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\x1b' {
			out.WriteRune(rs[i])
			continue
		}
		if i+1 < len(rs) && rs[i+1] == '[' {
			i += 2
			for i < len(rs) && (rs[i] < 0x40 || rs[i] > 0x7E) {
				i++
			}
		}
	}
	return out.String()
}

// scenarioUpdate is the dashboard example: humidity 55 and disk usage flagged only.
func scenarioUpdate(seq uint64) engine.Update {
	snap := model.StatusSnapshot{
		CPUTemp:       model.TextField("75F"),
		BatteryLow:    model.TextField("OK"),
		Humidity:      model.NumberField(55),
		DiskSpaceUsed: model.TextField("0000001000000010"),
		Source:        model.SourcePush,
		FetchedAt:     time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local),
	}
	return engine.Update{
		State:       model.StateConnected,
		Snapshot:    snap,
		HasSnapshot: true,
		Flags:       alert.DefaultRules().Evaluate(snap),
		Seq:         seq,
	}
}

func deviceConfig() model.ConfigMap {
	return model.ConfigMap{
		{Key: model.ProtectedConfigKey, Value: false},
		{Key: "CONFIG_POWER_SAVE_MODE", Value: true},
		{Key: "CONFIG_SOCKETIO_PING_TIMEOUT", Value: 5},
		{Key: "CONFIG_INDUCE_STREAM_MALFUNCTION", Value: false},
	}
}
