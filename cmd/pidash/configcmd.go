package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dm/pidash/internal/config"
	"github.com/dm/pidash/internal/engine"
	"github.com/dm/pidash/internal/logger"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the device configuration",
	}

	getCmd := &cobra.Command{
		Use:     "get [device-url]",
		Short:   "Print the device configuration",
		Example: "  pidash config get http://raspberrypi.local:5000",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			return runConfigGet(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	toggleCmd := &cobra.Command{
		Use:     "toggle <KEY> [device-url]",
		Short:   "Flip a boolean configuration flag",
		Long:    "Flip a boolean configuration flag and print the refreshed configuration. CONFIG_LOCAL_MODE cannot be changed remotely.",
		Example: "  pidash config toggle CONFIG_POWER_SAVE_MODE http://raspberrypi.local:5000",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args[1:])
			if err != nil {
				return err
			}
			return runConfigToggle(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}

	configCmd.AddCommand(getCmd, toggleCmd)
	return configCmd
}

// newOneShotController returns a controller that talks HTTP only; a one-shot
// command has no event loop to receive push acknowledgements.
func newOneShotController(cfg *config.Config) (*engine.ConfigController, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return engine.NewConfigController(c, nil, nil, logger.Discard(), cfg.AckTimeout), nil
}

func runConfigGet(ctx context.Context, cfg *config.Config, out io.Writer) error {
	ctl, err := newOneShotController(cfg)
	if err != nil {
		return err
	}
	if _, err := ctl.GetConfig(ctx); err != nil {
		return err
	}
	printConfig(out, ctl)
	return nil
}

func runConfigToggle(ctx context.Context, cfg *config.Config, key string, out io.Writer) error {
	ctl, err := newOneShotController(cfg)
	if err != nil {
		return err
	}
	if _, err := ctl.GetConfig(ctx); err != nil {
		return err
	}
	if err := ctl.ToggleConfig(ctx, key); err != nil {
		return fmt.Errorf("toggle %s: %w", key, err)
	}
	printConfig(out, ctl)
	return nil
}

// printConfig prints one "KEY: value" line per entry, marking the entries
// that can be toggled.
func printConfig(out io.Writer, ctl *engine.ConfigController) {
	for _, e := range ctl.Current() {
		marker := " "
		if e.Toggleable() {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, e.String())
	}
}
