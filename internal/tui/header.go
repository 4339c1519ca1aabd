package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/format"
)

// renderHeader renders the top header bar with device URL, connection state, and timing info.
//
// Layout:
//   left:   "pidash  <device URL>"
//   center: colored "● Connected" / "● Disconnected" / "● Connecting..." indicator
//   right:  "Last: HH:MM:SS  Poll: Ns"
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	left := "pidash  " + app.deviceURL
	center := renderIndicator(engine.ConnectionIndicator(app.update.State))
	right := StyleDim.Render("Last: " + format.FormatClock(app.lastUpdated) + "  Poll: " + format.FormatInterval(app.pollInterval))

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	// Drop the URL before squeezing the indicator on very narrow terminals.
	if leftVW+centerVW+rightVW > innerWidth {
		left = format.Truncate(left, max(innerWidth-centerVW-rightVW, 0))
		leftVW = lipgloss.Width(left)
	}

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}
