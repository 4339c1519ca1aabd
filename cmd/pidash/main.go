package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dm/pidash/internal/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pidash [flags] <device-url>",
		Short: "Live status dashboard for a Raspberry Pi recorder",
		Long: `pidash keeps a live connection to a recorder device, shows its telemetry
(CPU temperature, power, uptime, disk, humidity, recording state) and lets you
toggle its boolean configuration flags.

The device URL may also be given as PIDASH_URL, directly or in a .env file.`,
		Example: "  pidash http://raspberrypi.local:5000\n" +
			"  pidash --no-push --interval 5s http://10.0.0.12:5000\n" +
			"  pidash watch http://raspberrypi.local:5000\n" +
			"  pidash config toggle CONFIG_POWER_SAVE_MODE http://raspberrypi.local:5000",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	pFlags := rootCmd.PersistentFlags()
	pFlags.Duration("interval", config.DefaultInterval, "status request interval")
	pFlags.Duration("pull-timeout", config.DefaultPullTimeout, "timeout for HTTP status requests")
	pFlags.String("ws-path", config.DefaultWSPath, "path of the push channel on the device")
	pFlags.Bool("no-push", false, "never open the push channel; poll over HTTP only")
	pFlags.String("log-file", config.DefaultLogFile, "log file used while the dashboard owns the terminal")
	pFlags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pFlags.Bool("insecure", false, "skip TLS certificate verification")

	tuiCmd := &cobra.Command{
		Use:   "tui [device-url]",
		Short: "Interactive dashboard (default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  rootCmd.RunE,
	}

	rootCmd.AddCommand(tuiCmd, newWatchCmd(), newConfigCmd())
	return rootCmd
}

// loadConfig merges .env, environment and flags, in increasing precedence.
// The optional positional argument is the device URL.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.DeviceURL = args[0]
	}

	fs := cmd.Flags()
	if fs.Changed("interval") {
		cfg.Interval, _ = fs.GetDuration("interval")
	}
	if fs.Changed("pull-timeout") {
		cfg.PullTimeout, _ = fs.GetDuration("pull-timeout")
	}
	if fs.Changed("ws-path") {
		cfg.WSPath, _ = fs.GetString("ws-path")
	}
	if fs.Changed("no-push") {
		cfg.DisablePush, _ = fs.GetBool("no-push")
	}
	if fs.Changed("log-file") {
		cfg.LogFile, _ = fs.GetString("log-file")
	}
	if fs.Changed("log-level") {
		cfg.LogLevel, _ = fs.GetString("log-level")
	}
	if fs.Changed("insecure") {
		cfg.InsecureSkipVerify, _ = fs.GetBool("insecure")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
