package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/pidash/internal/apperror"
	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/model"
)

// commandTimeout bounds toggles and manual config reloads started from the UI.
// A push toggle waits up to its own acknowledgement timeout inside this.
const commandTimeout = 10 * time.Second

// StatusSource is the part of the status sync client the dashboard drives.
type StatusSource interface {
	Refresh()
}

// ConfigService is the part of the config controller the dashboard drives.
type ConfigService interface {
	GetConfig(ctx context.Context) (model.ConfigMap, error)
	ToggleConfig(ctx context.Context, key string) error
	CheckToggle(key string) error
}

// App is the root Bubble Tea model for pidash. It holds no connection logic:
// the engine pushes StatusMsg and ConfigMsg through a Sink.
type App struct {
	status       StatusSource
	config       ConfigService
	deviceURL    string
	pollInterval time.Duration

	// Status
	update      engine.Update
	lastSeq     uint64
	history     *model.TelemetryHistory
	lastUpdated time.Time

	// Configuration
	settings  model.ConfigMap
	cursor    int    // index into toggleKeys(settings)
	pending   string // key whose toggle is in flight
	lastError error
	notice    string

	// Layout
	width, height int

	// UI state
	showHelp bool
}

// NewApp creates a new App. status and config may be nil in tests.
func NewApp(status StatusSource, config ConfigService, deviceURL string, interval time.Duration) *App {
	return &App{
		status:       status,
		config:       config,
		deviceURL:    deviceURL,
		pollInterval: interval,
		history:      model.NewTelemetryHistory(0),
		update:       engine.Update{State: model.StateConnecting},
	}
}

// Init implements tea.Model. Data arrives from the engine; the view only
// needs a clock.
func (app *App) Init() tea.Cmd {
	return tickCmd(time.Second)
}

// Update implements tea.Model. It is the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case StatusMsg:
		app.applyStatus(msg.Update)

	case ConfigMsg:
		app.settings = msg.Config
		app.clampCursor()
		if errors.Is(app.lastError, apperror.ConfigFetchFailed) {
			app.lastError = nil
		}

	case ConfigErrorMsg:
		app.lastError = msg.Err
		app.notice = ""

	case ToggleResultMsg:
		if msg.Key == app.pending {
			app.pending = ""
		}
		if msg.Err != nil {
			app.lastError = fmt.Errorf("toggle %s: %w", msg.Key, msg.Err)
			app.notice = ""
		} else {
			app.lastError = nil
			app.notice = "Toggled " + msg.Key
		}

	case TickMsg:
		return app, tickCmd(time.Second)

	case tea.KeyMsg:
		return app, app.handleKey(msg)
	}

	return app, nil
}

func (app *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Refresh):
		if app.status != nil {
			app.status.Refresh()
		}
	case key.Matches(msg, keys.ReloadConfig):
		if app.config != nil {
			return reloadConfigCmd(app.config)
		}
	case key.Matches(msg, keys.Up):
		app.cursor--
		app.clampCursor()
	case key.Matches(msg, keys.Down):
		app.cursor++
		app.clampCursor()
	case key.Matches(msg, keys.Toggle):
		return app.toggleSelected()
	case key.Matches(msg, keys.Help):
		app.showHelp = !app.showHelp
	}
	return nil
}

// applyStatus records an engine update. History grows only when the device
// itself answered with a new snapshot; state-only changes keep Seq.
func (app *App) applyStatus(u engine.Update) {
	app.update = u
	if !u.HasSnapshot || u.Seq == app.lastSeq {
		return
	}
	app.lastSeq = u.Seq
	if !u.Snapshot.DeviceActive() {
		return
	}
	app.lastUpdated = u.Snapshot.FetchedAt
	if p, ok := model.PointFromSnapshot(u.Snapshot); ok {
		app.history.Push(p)
	}
}

func (app *App) toggleSelected() tea.Cmd {
	k := app.selectedKey()
	if k == "" || app.config == nil || app.pending != "" {
		return nil
	}
	if err := app.config.CheckToggle(k); err != nil {
		app.lastError = err
		app.notice = ""
		return nil
	}
	app.pending = k
	app.lastError = nil
	app.notice = "Toggling " + k + "..."
	return toggleCmd(app.config, k)
}

// selectedKey returns the toggleable key under the cursor, or "".
func (app *App) selectedKey() string {
	ks := toggleKeys(app.settings)
	if len(ks) == 0 {
		return ""
	}
	return ks[app.cursor]
}

func (app *App) clampCursor() {
	n := len(toggleKeys(app.settings))
	switch {
	case n == 0:
		app.cursor = 0
	case app.cursor < 0:
		app.cursor = 0
	case app.cursor >= n:
		app.cursor = n - 1
	}
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	parts := []string{renderHeader(app)}
	if o := renderOverview(app); o != "" {
		parts = append(parts, o)
	}
	if m := renderMetricsRow(app); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, renderConfigPanel(app), renderFooter(app))

	return strings.Join(parts, "\n")
}

// tickCmd schedules the next clock tick after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// toggleCmd toggles key and reports the outcome. The refreshed configuration
// reaches the App separately as a ConfigMsg.
func toggleCmd(c ConfigService, k string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return ToggleResultMsg{Key: k, Err: c.ToggleConfig(ctx, k)}
	}
}

// reloadConfigCmd refetches the configuration.
func reloadConfigCmd(c ConfigService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		m, err := c.GetConfig(ctx)
		if err != nil {
			return ConfigErrorMsg{Err: err}
		}
		return ConfigMsg{Config: m}
	}
}
