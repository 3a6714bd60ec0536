package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mintwatch/internal/config"
	"mintwatch/internal/daemon"
	"mintwatch/internal/ipc"
	"mintwatch/internal/logging"
	"mintwatch/internal/mint"
	"mintwatch/internal/mintlog"
	"mintwatch/internal/notifications"
	"mintwatch/internal/pipeline"
	"mintwatch/internal/preflight"
	"mintwatch/internal/storage"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the mintwatch daemon runtime loop and blocks until SIGINT or
// SIGTERM. In-flight folders finish before it returns.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("mintwatch-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update mintwatch.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "mintwatch-*.log", Exclude: []string{logPath}},
	)
	pidPath := cfg.DaemonPIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	for _, result := range preflight.RunAll(signalCtx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `mintwatch preflight` for details"),
			logging.String(logging.FieldImpact, "folders may fail until this is fixed"),
		)
	}

	store, err := mintlog.Open(cfg)
	if err != nil {
		logger.Error("open mint log", logging.Error(err))
		return err
	}

	uploader, err := storage.New(cfg, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create storage backend: %w", err)
	}

	notifier := notifications.NewService(cfg)
	ctrl := pipeline.New(cfg, pipeline.Dependencies{
		Uploader: uploader,
		Minter:   mint.NewHTTPMinter(cfg),
		Store:    store,
		Notifier: notifier,
	}, logger)

	d, err := daemon.New(cfg, store, logger, ctrl, notifier)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	d.SetLogPath(logPath)
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	status := d.Status(context.Background())
	logger.Info("mintwatch daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"),
		logging.Int("in_flight", status.InFlight),
		logging.Int("total_minted", status.Stats.TotalMinted),
		logging.Int("total_processed", status.Stats.TotalProcessed),
		logging.Int("errors", status.Stats.Errors),
	)
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "mintwatch.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("inbox", cfg.Paths.InboxDir),
		logging.String("processed", cfg.Paths.ProcessedDir),
		logging.String("network", cfg.Network.Cluster),
		logging.Bool("mainnet", cfg.IsMainnet()),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.Bool("storage_verify", cfg.Storage.Verify),
		logging.Bool("storage_token_present", strings.TrimSpace(cfg.Storage.GatewayToken) != ""),
		logging.String("minter_endpoint", cfg.Minter.Endpoint),
		logging.Bool("minter_key_present", strings.TrimSpace(cfg.Minter.APIKey) != ""),
		logging.Duration("debounce", cfg.DebounceWindow()),
		logging.Int("upload_attempts", cfg.Pipeline.UploadAttempts),
		logging.Bool("notifications", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
