package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"clipstudio/internal/api"
	"clipstudio/internal/config"
	"clipstudio/internal/library"
	"clipstudio/internal/logging"
	"clipstudio/internal/notifications"
	"clipstudio/internal/preflight"
	"clipstudio/internal/studio"
)

// Daemon owns the studio controller and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *library.Store
	controller *studio.Controller
	notifier   notifications.Service
	sessions   *api.SessionService
	videos     *api.LibraryService

	lockPath string
	lock     *flock.Flock
	apiSrv   *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	compiler api.Compiler
}

// WithCompiler enables library compilation through compiler.
func WithCompiler(compiler api.Compiler) Option {
	return func(o *options) {
		o.compiler = compiler
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, controller *studio.Controller, notifier notifications.Service, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || controller == nil {
		return nil, errors.New("daemon requires config, library store, and studio controller")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		controller: controller,
		notifier:   notifier,
		sessions:   api.NewSessionService(controller),
		videos:     api.NewLibraryService(store, o.compiler),
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
		shutdown:   make(chan struct{}),
	}
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Start acquires the daemon lock, restores the last draft, and starts the
// HTTP API when configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipstudio daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	restored, err := d.controller.Restore(d.ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "draft restore failed", "draft_restore_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the drafts table or start a new session"),
			logging.String(logging.FieldImpact, "previous clips are not available in the current session"),
		)
	} else if restored {
		snap := d.controller.Snapshot()
		d.logger.Info("session restored",
			logging.String(logging.FieldEventType, "session_restored"),
			logging.String(logging.FieldSessionID, snap.SessionID),
			logging.Int("clips", len(snap.Clips)),
			logging.String("phase", string(snap.Phase)),
		)
	}

	if err := d.apiSrv.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("clipstudio daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the HTTP API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.apiSrv.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("clipstudio daemon stopped")
}

// Close stops the daemon, cancels in-flight studio work, and closes the library.
func (d *Daemon) Close() error {
	d.Stop()
	if err := d.controller.Close(); err != nil {
		return err
	}
	return d.store.Close()
}

// RequestShutdown asks the hosting process to exit. It is safe to call more
// than once.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		d.logger.Info("daemon shutdown requested", logging.String(logging.FieldEventType, "daemon_shutdown_requested"))
		close(d.shutdown)
	})
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Sessions exposes session actions.
func (d *Daemon) Sessions() *api.SessionService {
	return d.sessions
}

// Library exposes library operations.
func (d *Daemon) Library() *api.LibraryService {
	return d.videos
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	health, err := d.store.CheckHealth(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		SocketPath:   d.cfg.SocketPath(),
		LockFilePath: d.lockPath,
		LogPath:      d.cfg.DaemonLogPath(),
		HandoffMode:  d.cfg.Handoff.Mode,
		Archive:      d.cfg.Archive.Enabled,
		Library:      api.FromHealth(health),
		Session:      api.FromSnapshot(d.controller.Snapshot()),
	}
	status.APIAddress = d.apiSrv.address()
	return status
}

// Preflight runs the environment checks with the daemon's configuration.
func (d *Daemon) Preflight(ctx context.Context) []api.CheckResult {
	return api.FromCheckResults(preflight.RunAll(ctx, d.cfg))
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.cfg.DaemonLogPath()
}
