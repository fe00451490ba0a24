// Package daemon runs the long-lived rescan loop: one full scan per cycle,
// then a signal-responsive sleep until the next. The in-flight scan always
// completes before a shutdown signal is honored.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/storage-intel/internal/events"
)

// DefaultInterval is the rescan cadence when no override is configured.
const DefaultInterval = 3600 * time.Second

// ScanFunc performs one full scan cycle and reports the bytes it found.
type ScanFunc func(ctx context.Context) (totalBytes int64, err error)

// Daemon is the foreground rescan loop.
type Daemon struct {
	interval time.Duration
	emitter  *events.Emitter
	logger   *Logger
	notifier *Notifier
	runScan  ScanFunc

	// signals is the channel the loop watches; replaced in tests.
	signals chan os.Signal
}

// New creates a Daemon. A nil notifier disables notifications.
func New(interval time.Duration, em *events.Emitter, logger *Logger, notifier *Notifier, runScan ScanFunc) *Daemon {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Daemon{
		interval: interval,
		emitter:  em,
		logger:   logger,
		notifier: notifier,
		runScan:  runScan,
		signals:  make(chan os.Signal, 1),
	}
}

// Run executes the loop until SIGINT or SIGTERM arrives. Each cycle scans,
// then sleeps in one-second steps so shutdown stays responsive.
func (d *Daemon) Run(ctx context.Context) error {
	signal.Notify(d.signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(d.signals)

	d.emitter.Emit(map[string]any{
		"event":            events.EventDaemonStarted,
		"interval_seconds": int(d.interval.Seconds()),
	})
	d.logger.Info("Daemon started, rescanning every %s", d.interval)

	if d.notifier != nil {
		d.notifier.SendStartupNotification()
	}

	stopped := false
	for !stopped {
		start := time.Now()
		total, err := d.runScan(ctx)
		if err != nil {
			d.logger.Error("Scan cycle failed: %v", err)
			if d.notifier != nil {
				d.notifier.SendScanNotification(0, time.Since(start), err)
			}
		} else {
			d.logger.Info("Scan cycle complete: %s reclaimable in %s",
				humanize.IBytes(uint64(total)), time.Since(start).Round(time.Second))
			if d.notifier != nil {
				d.notifier.SendScanNotification(total, time.Since(start), nil)
			}
		}

		stopped = d.sleep(ctx)
	}

	d.emitter.Emit(map[string]any{"event": events.EventDaemonStopped})
	d.logger.Info("Daemon stopped")
	if d.notifier != nil {
		d.notifier.SendShutdownNotification()
	}
	return nil
}

// sleep waits out the rescan interval in one-second steps. Returns true
// when a shutdown signal or context cancellation arrived.
func (d *Daemon) sleep(ctx context.Context) bool {
	deadline := time.Now().Add(d.interval)
	for time.Now().Before(deadline) {
		select {
		case sig := <-d.signals:
			d.logger.Info("Received shutdown signal: %v", sig)
			return true
		case <-ctx.Done():
			return true
		case <-time.After(time.Second):
		}
	}
	return false
}

// Stop requests a shutdown as if a signal had arrived.
func (d *Daemon) Stop() {
	select {
	case d.signals <- syscall.SIGTERM:
	default:
	}
}
