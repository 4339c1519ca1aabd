// Package alert decides which status fields the dashboard highlights.
package alert

import (
	"strconv"

	"github.com/dm/pidash/internal/model"
)

// HumidityLimit is the highest humidity reading that is not flagged.
const HumidityLimit = 40

// Predicate reports whether a known field value should be highlighted.
type Predicate func(model.Field) bool

// RuleSet maps a snapshot field name to its alert predicate.
type RuleSet map[string]Predicate

// Flags holds the evaluated alert state per field name. Fields without a rule
// or without a known value are absent (false).
type Flags map[string]bool

// Flagged reports whether the named field is in alert.
func (f Flags) Flagged(name string) bool {
	return f[name]
}

// DefaultRules returns the dashboard's highlight policy.
func DefaultRules() RuleSet {
	return RuleSet{
		model.FieldBatteryLow:    BatteryLow,
		model.FieldHumidity:      HumidityAbove(HumidityLimit),
		model.FieldCPUTemp:       TempFirstDigitAtLeast(8),
		model.FieldDiskSpaceUsed: CharAtAny('1', 6, 15),
	}
}

// Evaluate applies every rule to the snapshot. Unknown values are never flagged.
func (rs RuleSet) Evaluate(s model.StatusSnapshot) Flags {
	flags := make(Flags, len(rs))
	for name, pred := range rs {
		v, ok := s.Field(name)
		if !ok || !v.Known || pred == nil {
			continue
		}
		if pred(v) {
			flags[name] = true
		}
	}
	return flags
}

// BatteryLow flags the literal value "Low".
func BatteryLow(v model.Field) bool {
	return v.Text == "Low"
}

// HumidityAbove flags numeric values strictly greater than limit.
func HumidityAbove(limit float64) Predicate {
	return func(v model.Field) bool {
		return v.IsNum && v.Num > limit
	}
}

// TempFirstDigitAtLeast flags text values whose first character is a digit >= min.
// Only the first character is inspected, so "9.5" and "85C" both read as 9 and 8.
// A temperature sent as a bare JSON number has no characters to inspect and is
// never flagged.
func TempFirstDigitAtLeast(min int) Predicate {
	return func(v model.Field) bool {
		if v.FromNumber || v.Text == "" {
			return false
		}
		d, err := strconv.Atoi(v.Text[:1])
		if err != nil {
			return false
		}
		return d >= min
	}
}

// CharAtAny flags values having ch at any of the given byte positions.
// Positions past the end of the value are ignored.
func CharAtAny(ch byte, positions ...int) Predicate {
	return func(v model.Field) bool {
		for _, p := range positions {
			if p >= 0 && p < len(v.Text) && v.Text[p] == ch {
				return true
			}
		}
		return false
	}
}
