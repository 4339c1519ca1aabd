package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/format"
	"github.com/dm/pidash/internal/model"
)

// renderOverview renders the device status line and one card per status field.
// Wide terminals (>= 80 cols): all 7 cards in a single horizontal row.
// Narrow terminals (< 80 cols): cards stacked in rows of 2 (4 rows: 2+2+2+1).
// Before the first snapshot only the device status line is shown.
func renderOverview(app *App) string {
	device := "Device: " + renderIndicator(engine.DeviceIndicator(app.update))
	if !app.update.HasSnapshot {
		return device
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	narrowMode := width < 80

	var cardWidth int
	if narrowMode {
		cardWidth = (width - 4) / 2
		if cardWidth < 10 {
			cardWidth = 10
		}
	} else {
		cardWidth = (width - 14) / 7
		if cardWidth < 8 {
			cardWidth = 8
		}
	}

	// Mini bar inner width: card width minus padding (1 char each side).
	barWidth := cardWidth - 4
	if barWidth < 4 {
		barWidth = 4
	}

	snap := app.update.Snapshot
	var cards []string
	for _, f := range snap.Fields() {
		sev := fieldSeverity(app.update.Flags, f.Name)
		val := format.Truncate(f.Value.String(), cardWidth-2)
		if sev == severityCritical {
			val += "!"
		}
		body := val
		if f.Name == model.FieldHumidity && f.Value.IsNum {
			body += "\n" + renderMiniBar(f.Value.Num, barWidth)
		}
		cards = append(cards, StyleOverviewCard.
			Foreground(severityFg(sev)).
			Bold(sev == severityCritical).
			Width(cardWidth).
			Render(body+"\n"+f.Label))
	}

	var grid string
	if narrowMode {
		var rows []string
		for i := 0; i < len(cards); i += 2 {
			end := min(i+2, len(cards))
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
		}
		grid = lipgloss.JoinVertical(lipgloss.Left, rows...)
	} else {
		grid = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, device, grid)
}

// renderMiniBar renders a mini progress bar using Unicode block characters.
// Fills proportionally using "█" (U+2588) for filled and "░" (U+2591) for empty cells.
func renderMiniBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
