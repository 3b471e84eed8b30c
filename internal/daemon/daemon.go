package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/username/persiandate/internal/metrics"
	"github.com/username/persiandate/pkg/dateutil"
	"github.com/username/persiandate/pkg/persiandate"
	"go.uber.org/zap"
)

// Settings configures the daemon
type Settings struct {
	OutputFile  string
	MetricsFile string // empty disables the textfile export
	Format      persiandate.Format
	ZeroPad     bool
	DailyHour   int // Hour to run the daily update (0-23)
	DailyMinute int // Minute to run the daily update (0-59)
	SystemTray  bool
}

// Daemon writes today's Persian date to a file once per day
type Daemon struct {
	settings  Settings
	metrics   *metrics.Metrics
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	trayApp   *TrayApp
	now       func() time.Time
	tick      time.Duration // Schedule check interval
	lastRun   time.Time     // Time of the last successful run
	lastValue string        // Persian date written by the last run
	mu        sync.Mutex    // Serialises runs
}

// NewScheduledDaemon creates a new daemon instance with daily schedule
func NewScheduledDaemon(settings Settings, m *metrics.Metrics, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		settings: settings,
		metrics:  m,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
		tick:     time.Minute,
	}
}

// Start starts the daemon and blocks until it is stopped
func (d *Daemon) Start() error {
	// Initialize system tray if enabled (Windows only)
	if d.settings.SystemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			return d.startWithoutTray()
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		d.trayApp.Run()
		return nil
	}

	d.logger.Info("Running without system tray")
	return d.startWithoutTray()
}

func (d *Daemon) startWithoutTray() error {
	d.runScheduledLogic()
	return nil
}

// runScheduledLogic runs the daily schedule (called from tray or standalone)
func (d *Daemon) runScheduledLogic() {
	d.logger.Info("Daemon scheduled logic started",
		zap.Int("daily_hour", d.settings.DailyHour),
		zap.Int("daily_minute", d.settings.DailyMinute),
		zap.String("output_file", d.settings.OutputFile))

	// Today's value is written immediately so the file is never stale after
	// a restart
	if _, err := d.RunOnce(); err != nil {
		d.logger.Error("Initial update failed", zap.Error(err))
		d.notify("Update Failed", fmt.Sprintf("Error: %v", err))
	}

	nextRun := d.calculateNextRun()
	d.logger.Info("Next update scheduled",
		zap.Time("next_run", nextRun),
		zap.Duration("wait_duration", nextRun.Sub(d.now())))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			return

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			d.Stop()
			return

		case <-ticker.C:
			now := d.now()
			if now.Before(nextRun) {
				continue
			}

			d.logger.Info("Starting scheduled update", zap.Time("time", now))
			if _, err := d.RunOnce(); err != nil {
				d.logger.Error("Update failed", zap.Error(err))
				d.notify("Update Failed", fmt.Sprintf("Error: %v", err))
				continue
			}

			nextRun = d.calculateNextRun()
			d.logger.Info("Next update scheduled",
				zap.Time("next_run", nextRun),
				zap.Duration("wait_duration", nextRun.Sub(now)))
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// calculateNextRun returns the next scheduled run time (local time)
func (d *Daemon) calculateNextRun() time.Time {
	return dateutil.NextOccurrence(d.now(), d.settings.DailyHour, d.settings.DailyMinute)
}

// RunOnce converts today's date and writes it to the output file. Repeated
// calls on the same local day are no-ops returning the stored value
func (d *Daemon) RunOnce() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.lastRun.IsZero() && dateutil.IsSameDay(d.lastRun, now) {
		d.logger.Debug("Already updated today, skipping",
			zap.Time("last_run", d.lastRun))
		return d.lastValue, nil
	}

	today, err := persiandate.DateOf(now)
	if err != nil {
		d.metrics.ObserveError()
		return "", err
	}

	value := persiandate.FromDate(today,
		persiandate.WithFormat(d.settings.Format),
		persiandate.WithZeroPad(d.settings.ZeroPad))

	if err := writeFileAtomic(d.settings.OutputFile, []byte(value+"\n")); err != nil {
		d.metrics.ObserveError()
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	d.metrics.ObserveConversion(d.settings.Format)
	d.metrics.ObserveRun(now)
	if d.settings.MetricsFile != "" && d.metrics != nil {
		if err := d.metrics.WriteTextfile(d.settings.MetricsFile); err != nil {
			d.logger.Warn("Failed to export metrics", zap.Error(err))
		}
	}

	d.lastRun = now
	d.lastValue = value

	d.logger.Info("Persian date updated",
		zap.String("gregorian", today.String()),
		zap.String("persian", value),
		zap.String("file", d.settings.OutputFile))

	if d.trayApp != nil {
		d.trayApp.SetDate(value)
	}

	return value, nil
}

// RefreshNow forces an update even if one already ran today (tray menu)
func (d *Daemon) RefreshNow() {
	d.logger.Info("Manual refresh triggered")

	d.mu.Lock()
	d.lastRun = time.Time{}
	d.mu.Unlock()

	value, err := d.RunOnce()
	if err != nil {
		d.logger.Error("Manual refresh failed", zap.Error(err))
		d.notify("Update Failed", fmt.Sprintf("Error: %v", err))
		return
	}
	d.notify("Persian Date", value)
}

// Status returns the last written value and the Gregorian day it belongs to.
// Both are empty before the first successful run
func (d *Daemon) Status() (gregorian, persian string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastRun.IsZero() {
		return "", ""
	}
	return d.lastRun.Format("2006-01-02"), d.lastValue
}

func (d *Daemon) notify(title, message string) {
	if d.trayApp != nil {
		d.trayApp.ShowNotification(title, message)
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
