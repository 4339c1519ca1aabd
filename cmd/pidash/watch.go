package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dm/pidash/internal/config"
	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/format"
	"github.com/dm/pidash/internal/logger"
	"github.com/dm/pidash/internal/model"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "watch [device-url]",
		Short:   "Print status changes as plain lines",
		Long:    "Run the status sync without the dashboard and print one line per state or snapshot change.",
		Example: "  pidash watch --log-level debug http://raspberrypi.local:5000",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, log, cmd.OutOrStdout())
		},
	}
}

// runWatch runs the sync core with a line-oriented sink until ctx ends.
func runWatch(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) error {
	d, err := newDashboard(cfg, log, newLineSink(out))
	if err != nil {
		return err
	}
	if err := d.client.Ping(ctx); err != nil {
		log.LogWarning(err, "device did not answer, continuing", "device", cfg.DeviceURL)
	}
	log.LogInfo("watching device", "device", cfg.DeviceURL, "interval", format.FormatInterval(cfg.Interval), "push", !cfg.DisablePush)
	return d.syncer.Run(ctx)
}

// lineSink implements engine.Sink by printing one line per notification.
type lineSink struct {
	mu  sync.Mutex
	out io.Writer
}

func newLineSink(out io.Writer) *lineSink {
	if out == nil {
		out = os.Stdout
	}
	return &lineSink{out: out}
}

func (s *lineSink) StatusChanged(u engine.Update) {
	s.println(formatUpdate(u))
}

func (s *lineSink) ConfigChanged(m model.ConfigMap) {
	s.println(formatConfig(m))
}

func (s *lineSink) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, line)
}

// formatUpdate renders an update as
// "[Connected] device=Active and connected cpu_temp=55.3°C ... alerts=humidity".
func formatUpdate(u engine.Update) string {
	var b strings.Builder
	b.WriteString("[" + engine.ConnectionIndicator(u.State).Text + "]")
	b.WriteString(" device=" + engine.DeviceIndicator(u).Text)
	if !u.HasSnapshot {
		return b.String()
	}

	var alerts []string
	for _, f := range u.Snapshot.Fields() {
		b.WriteString(" " + f.Name + "=" + f.Value.String())
		if u.Flags.Flagged(f.Name) {
			alerts = append(alerts, f.Name)
		}
	}
	if len(alerts) > 0 {
		b.WriteString(" alerts=" + strings.Join(alerts, ","))
	}
	return b.String()
}

// formatConfig renders the configuration on one line: "config: KEY: value, ...".
func formatConfig(m model.ConfigMap) string {
	parts := make([]string, len(m))
	for i, e := range m {
		parts[i] = e.String()
	}
	return "config: " + strings.Join(parts, ", ")
}
