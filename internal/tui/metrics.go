package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/pidash/internal/format"
	"github.com/dm/pidash/internal/model"
)

// renderMetricCard renders a single metric card with title, value, and sparkline.
//
// Layout (3 rows inside a rounded border):
//
//	╭──────────────────╮
//	│ Title            │   ← titleStyle (dim; red when the field is flagged)
//	│ 55.3°C           │   ← bold, metric color
//	│ ▁▂▃▅▇█▇▅▃▂       │   ← colored sparkline
//	╰──────────────────╯
func renderMetricCard(title, value string, sparkValues []float64, cardWidth int, color lipgloss.Color, titleStyle lipgloss.Style) string {
	const minCardWidth = 8
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	// Inner width = card width minus border (2) and padding (2), less the
	// padding lipgloss counts inside Width().
	innerWidth := cardWidth - 6
	if innerWidth < 1 {
		innerWidth = 1
	}

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		valueStyle.Render(value),
		RenderSparkline(sparkValues, innerWidth, color),
	))
}

// renderMetricsRow renders the CPU temperature and humidity trend cards.
// Wide terminals (>= 40 cols): side by side. Narrow terminals: stacked.
// Returns empty string until a snapshot has arrived.
func renderMetricsRow(app *App) string {
	if !app.update.HasSnapshot {
		return ""
	}
	snap := app.update.Snapshot

	tempVal := model.Unknown
	if snap.CPUTemp.Known {
		if c, ok := model.LeadingNumber(snap.CPUTemp.Text); ok {
			tempVal = format.FormatTemperature(c)
		} else {
			tempVal = snap.CPUTemp.Text
		}
	}
	humVal := model.Unknown
	if snap.Humidity.Known {
		humVal = snap.Humidity.Text
		if snap.Humidity.IsNum {
			humVal = format.FormatPercent(snap.Humidity.Num)
		}
	}

	tempTitle := severityTitleStyle(fieldSeverity(app.update.Flags, model.FieldCPUTemp))
	humTitle := severityTitleStyle(fieldSeverity(app.update.Flags, model.FieldHumidity))

	label := StyleDim.Render("Trends")

	if app.width > 0 && app.width < 40 {
		cardWidth := app.width + 2
		if cardWidth < 8 {
			return ""
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleDim.MaxWidth(app.width).Render("Trends"),
			renderMetricCard("CPU Temp", tempVal, app.history.Values(model.FieldCPUTemp), cardWidth, colorCyan, tempTitle),
			renderMetricCard("Humidity", humVal, app.history.Values(model.FieldHumidity), cardWidth, colorBlue, humTitle),
		)
	}

	// Each card renders at (cardWidth-2) chars wide, so two cards fill
	// app.width when cardWidth = (app.width+4)/2.
	cardWidth := (app.width + 4) / 2
	if cardWidth < 20 {
		cardWidth = 20
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		renderMetricCard("CPU Temp", tempVal, app.history.Values(model.FieldCPUTemp), cardWidth, colorCyan, tempTitle),
		renderMetricCard("Humidity", humVal, app.history.Values(model.FieldHumidity), cardWidth, colorBlue, humTitle),
	)
	return lipgloss.JoinVertical(lipgloss.Left, label, row)
}

// severityTitleStyle keeps the dim title for normal fields and turns flagged ones red.
func severityTitleStyle(s severity) lipgloss.Style {
	if s == severityNormal {
		return StyleDim
	}
	return severityToStyle(s).Bold(true)
}
