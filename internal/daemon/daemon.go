package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mintwatch/internal/config"
	"mintwatch/internal/logging"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/notifications"
	"mintwatch/internal/pipeline"
	"mintwatch/internal/watcher"
)

// Daemon coordinates the background pipeline and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *mintlog.Store
	pipeline *pipeline.Controller
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	watchMu     sync.Mutex
	watcher     *watcher.Watcher
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool            `json:"running"`
	WatcherActive bool            `json:"watcher_active"`
	Inbox         string          `json:"inbox"`
	Network       string          `json:"network"`
	Stats         pipeline.Stats  `json:"stats"`
	Uptime        time.Duration   `json:"uptime"`
	InFlight      int             `json:"in_flight"`
	PendingTimers int             `json:"pending_timers"`
	Remembered    int             `json:"remembered"`
	Tasks         []pipeline.Task `json:"tasks,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	DatabasePath  string          `json:"database_path"`
	LockFilePath  string          `json:"lock_file_path"`
	LogPath       string          `json:"log_path,omitempty"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *mintlog.Store, logger *slog.Logger, ctrl *pipeline.Controller, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || ctrl == nil {
		return nil, errors.New("daemon requires config, store, and pipeline controller")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	lockPath := cfg.DaemonLockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		pipeline: ctrl,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// SetLogPath records the active log file so Status can report it.
func (d *Daemon) SetLogPath(path string) {
	d.logPath = path
}

// Start acquires the daemon lock, rebuilds the completion ledger and starts
// watching the inbox.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mintwatch daemon instance is already running")
	}

	remembered, err := d.pipeline.Ledger().Rebuild(d.cfg.Paths.InboxDir)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("rebuild completion ledger: %w", err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running.Store(true)
	if err := d.StartWatcher(); err != nil {
		d.running.Store(false)
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}

	d.logger.Info("mintwatch daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("inbox", d.cfg.Paths.InboxDir),
		logging.String("network", d.cfg.Network.Cluster),
		logging.Int("already_minted", remembered),
	)
	if err := d.notifier.NotifyDaemonStarted(ctx, d.cfg.Paths.InboxDir, d.pipeline.PendingTimers()); err != nil {
		logging.WarnWithContext(d.logger, "startup notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ntfy topic configuration"),
			logging.String(logging.FieldImpact, "no startup push notification"),
		)
	}
	return nil
}

// StartWatcher begins delivering inbox events to the pipeline.
func (d *Daemon) StartWatcher() error {
	if !d.running.Load() {
		return errors.New("daemon not running")
	}
	d.watchMu.Lock()
	defer d.watchMu.Unlock()
	if d.watcher != nil {
		return errors.New("watcher already running")
	}

	w := watcher.New(d.cfg.Paths.InboxDir, d.logger)
	watchCtx, cancel := context.WithCancel(d.ctx)
	events, err := w.Start(watchCtx)
	if err != nil {
		cancel()
		return err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.pipeline.Run(watchCtx, events)
	}()

	d.watcher = w
	d.watchCancel = cancel
	d.watchDone = done
	return nil
}

// StopWatcher stops event delivery and clears pending debounce timers.
// In-flight folders keep running. It reports whether a watcher was active.
func (d *Daemon) StopWatcher() bool {
	d.watchMu.Lock()
	w, cancel, done := d.watcher, d.watchCancel, d.watchDone
	d.watcher, d.watchCancel, d.watchDone = nil, nil, nil
	d.watchMu.Unlock()
	if w == nil {
		return false
	}

	w.Stop()
	cancel()
	<-done
	cleared := d.pipeline.CancelPending()
	d.logger.Info("watcher stopped",
		logging.String(logging.FieldEventType, "watcher_stopped"),
		logging.Int("cleared_timers", cleared),
		logging.Int("in_flight", d.pipeline.InFlight()),
	)
	return true
}

// WatcherActive reports whether inbox events are being delivered.
func (d *Daemon) WatcherActive() bool {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()
	return d.watcher != nil
}

// Stop stops the watcher and releases the daemon lock. In-flight folders are
// not cancelled.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.StopWatcher()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start fails"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("mintwatch daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon, waits for in-flight folders and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	d.pipeline.Stop()
	d.pipeline.Wait()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListMinted returns the most recent minted assets, oldest first.
func (d *Daemon) ListMinted(ctx context.Context, limit int) ([]*mintlog.Record, error) {
	return d.store.List(ctx, limit)
}

// CountMinted returns the number of assets in the mint log.
func (d *Daemon) CountMinted(ctx context.Context) (int, error) {
	return d.store.Count(ctx)
}

// ListFailures returns the most recent failures, newest first.
func (d *Daemon) ListFailures(ctx context.Context, limit int) ([]*mintlog.Failure, error) {
	return d.store.ListFailures(ctx, limit)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	stats := d.pipeline.Stats()
	status := Status{
		Running:       d.running.Load(),
		WatcherActive: d.WatcherActive(),
		Inbox:         d.cfg.Paths.InboxDir,
		Network:       d.cfg.Network.Cluster,
		Stats:         stats,
		Uptime:        stats.Uptime(time.Now()).Round(time.Second),
		InFlight:      d.pipeline.InFlight(),
		PendingTimers: d.pipeline.PendingTimers(),
		Remembered:    d.pipeline.Ledger().Len(),
		Tasks:         d.pipeline.Tasks(),
		DatabasePath:  d.store.Path(),
		LockFilePath:  d.lockPath,
		LogPath:       d.logPath,
	}
	if err := d.pipeline.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
