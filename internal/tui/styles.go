package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/pidash/internal/engine"
)

// Color constants.
var (
	colorGreen = lipgloss.Color("#10b981")
	colorRed   = lipgloss.Color("#ef4444")
	colorGray  = lipgloss.Color("#6b7280")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorCyan  = lipgloss.Color("#06b6d4")
	colorWhite = lipgloss.Color("#f8fafc")
	colorDark  = lipgloss.Color("#1e293b")
	colorAlt   = lipgloss.Color("#0f172a")
)

// Indicator styles, bold foreground.
var (
	StyleStatusGreen   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleStatusRed     = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	StyleStatusUnknown = lipgloss.NewStyle().Foreground(colorGray)
)

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleOverviewCard is the card for one status field.
var StyleOverviewCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

// StyleSelected highlights the config entry under the cursor.
var StyleSelected = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite).
	Background(colorBlue)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
	StyleGreen = lipgloss.NewStyle().Foreground(colorGreen)
	StyleRed   = lipgloss.NewStyle().Foreground(colorRed)
)

// IndicatorStyle returns the bold foreground style for an indicator colour.
func IndicatorStyle(ind engine.Indicator) lipgloss.Style {
	switch ind.Color {
	case engine.ColorGreen:
		return StyleStatusGreen
	case engine.ColorRed:
		return StyleStatusRed
	default:
		return StyleStatusUnknown
	}
}

// renderIndicator renders "● Text" in the indicator's colour.
func renderIndicator(ind engine.Indicator) string {
	return IndicatorStyle(ind).Render("● " + ind.Text)
}
