package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/storage-intel/internal/daemon"
)

var daemonLogFile string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the long-lived rescan loop",
	Long: `Performs a full scan, sleeps for the configured interval and repeats.
SIGINT or SIGTERM lets the in-flight scan finish, then stops the loop
cleanly with a daemon_stopped event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		logLevel := "info"
		if rt.cfg.Verbose {
			logLevel = "debug"
		}
		logger, err := daemon.NewLogger(daemonLogFile, logLevel)
		if err != nil {
			return err
		}
		defer logger.Close()

		var notifier *daemon.Notifier
		if rt.cfg.Notifications.Enabled {
			notifier = daemon.NewNotifier(&rt.cfg.Notifications, logger)
		}

		interval := time.Duration(rt.cfg.DaemonIntervalSeconds) * time.Second
		d := daemon.New(interval, rt.emitter, logger, notifier, func(ctx context.Context) (int64, error) {
			return executeScan(ctx, rt)
		})
		return d.Run(cmd.Context())
	},
}

func init() {
	daemonCmd.Flags().StringVar(&daemonLogFile, "log-file", "", "daemon log file (default stderr)")
}
