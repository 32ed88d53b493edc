package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"clipstudio/internal/config"
	"clipstudio/internal/daemon"
	"clipstudio/internal/ipc"
	"clipstudio/internal/logging"
)

// ErrAlreadyRunning is returned when another daemon answers on the socket.
var ErrAlreadyRunning = errors.New("clipstudio daemon already running")

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	LogFormat  string
	SocketPath string
}

// Run starts the clipstudio daemon and blocks until a signal arrives or a
// client requests shutdown.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := strings.TrimSpace(opts.LogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	if client, err := ipc.Dial(socketPath); err == nil {
		_ = client.Close()
		return ErrAlreadyRunning
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rotateLog(cfg.DaemonLogPath()); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to rotate daemon log: %v\n", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logConfigSnapshot(logger, cfg)
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "clipstudio-*.log", Exclude: []string{cfg.DaemonLogPath()}},
	)

	rt, err := NewRuntime(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build runtime", logging.Error(err))
		return err
	}
	defer rt.Close()
	pruneDrafts(signalCtx, rt, cfg, logger)

	d, err := daemon.New(cfg, rt.Store, rt.Controller, rt.Notifier, logger, daemon.WithCompiler(rt.Compiler))
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("clipstudio daemon shutting down")
	return nil
}

// PIDPath returns the pid file written while the daemon runs.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "clipstudio.pid")
}

func pruneDrafts(ctx context.Context, rt *Runtime, cfg *config.Config, logger *slog.Logger) {
	if cfg.Logging.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays)
	removed, err := rt.Store.PruneDrafts(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(logger, "draft pruning failed", "draft_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check library database access"),
			logging.String(logging.FieldImpact, "old session drafts remain in the library"),
		)
		return
	}
	if removed > 0 {
		logger.Info("pruned old drafts",
			logging.String(logging.FieldEventType, "draft_pruned"),
			logging.Int64("removed", removed),
		)
	}
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
		logging.String("generation_url", cfg.Generation.BaseURL),
		logging.Bool("generation_token_present", strings.TrimSpace(cfg.Generation.APIToken) != ""),
		logging.String("stitch_url", cfg.Stitch.BaseURL),
		logging.Bool("stitch_token_present", strings.TrimSpace(cfg.Stitch.APIToken) != ""),
		logging.Duration("poll_interval", cfg.PollInterval()),
		logging.String("library_driver", cfg.Library.Driver),
		logging.String("handoff_mode", cfg.Handoff.Mode),
		logging.Bool("archive_enabled", cfg.Archive.Enabled),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.API.Bind),
	)
}

// rotateLog moves a previous run's log aside as clipstudio-<timestamp>.log so
// retention can prune it.
func rotateLog(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	stamp := info.ModTime().UTC().Format("20060102T150405.000Z")
	rotated := filepath.Join(filepath.Dir(path), fmt.Sprintf("clipstudio-%s.log", stamp))
	return os.Rename(path, rotated)
}
