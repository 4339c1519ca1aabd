package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/pidash/internal/alert"
)

// severity represents the alert level for a status field.
type severity int

const (
	severityNormal   severity = iota
	severityCritical          // red
)

// fieldSeverity returns Critical when the rule set flagged the field.
func fieldSeverity(flags alert.Flags, name string) severity {
	if flags.Flagged(name) {
		return severityCritical
	}
	return severityNormal
}

// severityToStyle maps a severity level to the appropriate lipgloss style.
func severityToStyle(s severity) lipgloss.Style {
	if s == severityCritical {
		return StyleRed
	}
	return lipgloss.NewStyle()
}

// severityFg returns the card foreground colour for a severity.
func severityFg(s severity) lipgloss.Color {
	if s == severityCritical {
		return colorRed
	}
	return colorWhite
}
