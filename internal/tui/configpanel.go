package tui

import (
	"strings"

	"github.com/dm/pidash/internal/format"
	"github.com/dm/pidash/internal/model"
)

// toggleKeys lists the keys that get a toggle control, in display order.
func toggleKeys(m model.ConfigMap) []string {
	var out []string
	for _, e := range m {
		if e.Toggleable() {
			out = append(out, e.Key)
		}
	}
	return out
}

// toggleControl renders the on/off control for a toggleable entry, or blanks.
func toggleControl(e model.ConfigEntry) string {
	if !e.Toggleable() {
		return "     "
	}
	if on, _ := e.Value.(bool); on {
		return "[on ]"
	}
	return "[off]"
}

// renderConfigPanel lists every configuration entry as "KEY: value". Only
// toggleable entries carry a control and can be selected.
func renderConfigPanel(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	lines := []string{StyleDim.Render("Configuration")}

	if len(app.settings) == 0 {
		if app.lastError != nil {
			lines = append(lines, StyleError.Render("  "+format.Truncate(app.lastError.Error(), width-2)))
		} else {
			lines = append(lines, StyleDim.Render("  Loading configuration..."))
		}
		return strings.Join(lines, "\n")
	}

	selected := app.selectedKey()
	for _, e := range app.settings {
		cursor := "  "
		if e.Key == selected {
			cursor = "› "
		}
		control := toggleControl(e)
		if e.Key == app.pending {
			control = "[...]"
		}
		text := format.Truncate(e.String(), max(width-len(cursor)-6, 8))
		line := cursor + control + " " + text
		switch {
		case e.Key == selected:
			line = StyleSelected.Render(line)
		case !e.Toggleable():
			line = StyleDim.Render(line)
		}
		lines = append(lines, line)
	}

	switch {
	case app.lastError != nil:
		lines = append(lines, StyleError.Render(format.Truncate(app.lastError.Error(), width)))
	case app.notice != "":
		lines = append(lines, StyleGreen.Render(app.notice))
	}
	return strings.Join(lines, "\n")
}
