package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/pidash/internal/channel"
	"github.com/dm/pidash/internal/client"
	"github.com/dm/pidash/internal/config"
	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/logger"
	"github.com/dm/pidash/internal/tui"
)

const requestTimeout = 10 * time.Second

// dashboard is the wired sync core shared by the TUI and watch modes.
type dashboard struct {
	client *client.DefaultClient
	syncer *engine.Syncer
	config *engine.ConfigController
}

func newClient(cfg *config.Config) (*client.DefaultClient, error) {
	return client.NewDefaultClient(client.ClientConfig{
		BaseURL:            cfg.DeviceURL,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		RequestTimeout:     requestTimeout,
	})
}

func newDashboard(cfg *config.Config, log *logger.Logger, sink engine.Sink) (*dashboard, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	var ch channel.Channel
	if !cfg.DisablePush {
		ch = channel.NewWebSocket(channel.Options{
			URL:                cfg.WebSocketURL(),
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}, log)
	}

	ctl := engine.NewConfigController(c, ch, sink, log, cfg.AckTimeout)
	s := engine.NewSyncer(c, ch, ctl, sink, log, engine.Options{
		Interval:    cfg.Interval,
		PullTimeout: cfg.PullTimeout,
	})
	return &dashboard{client: c, syncer: s, config: ctl}, nil
}

// runTUI runs the interactive dashboard until the user quits or ctx ends.
func runTUI(ctx context.Context, cfg *config.Config) error {
	// The dashboard owns the terminal, so logs go to a file.
	log, err := logger.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	sink := tui.NewSink()
	d, err := newDashboard(cfg, log, sink)
	if err != nil {
		return err
	}

	app := tui.NewApp(d.syncer, d.config, cfg.DeviceURL, cfg.Interval)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.Attach(p)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- d.syncer.Run(runCtx)
	}()

	log.LogInfo("dashboard started", "device", cfg.DeviceURL, "push", !cfg.DisablePush)
	_, err = p.Run()
	cancel()
	if syncErr := <-done; syncErr != nil {
		log.LogError(syncErr, "status sync stopped")
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
