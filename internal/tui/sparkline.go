package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks is the 8-level block character set for sparklines.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline converts a slice of float64 values into a block sparkline
// string of exactly `width` characters, scaled between the window's minimum
// and maximum so small swings in a high reading (e.g. 54–57 °C) stay visible.
//
// Rules:
//   - Empty values → return width spaces
//   - Flat series → return all '▁' (floor level)
//   - Values longer than width → use last width values
//   - Fewer values than width → left-pad with spaces
func RenderSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}

	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}

	// Take last `width` values if the slice is longer.
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo

	style := lipgloss.NewStyle().Foreground(color)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))

	for _, v := range values {
		var idx int
		if span > 0 {
			idx = int((v - lo) / span * 7)
		}
		idx = max(0, min(idx, 7))
		sb.WriteRune(sparkBlocks[idx])
	}

	return style.Render(sb.String())
}
