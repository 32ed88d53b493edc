package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clipstudio/internal/archive"
	"clipstudio/internal/config"
	"clipstudio/internal/finalize"
	"clipstudio/internal/handoff"
	"clipstudio/internal/library"
	"clipstudio/internal/notifications"
	"clipstudio/internal/services/generation"
	"clipstudio/internal/services/stitch"
	"clipstudio/internal/studio"
)

// Runtime bundles the long-lived collaborators the daemon drives.
type Runtime struct {
	Store      *library.Store
	Controller *studio.Controller
	Notifier   notifications.Service
	Publisher  handoff.Publisher
	Compiler   *finalize.Compiler
}

type runtimeSettings struct {
	pollInterval time.Duration
	notifier     notifications.Service
}

// RuntimeOption customizes NewRuntime.
type RuntimeOption func(*runtimeSettings)

// WithPollInterval overrides the configured generation polling interval.
func WithPollInterval(interval time.Duration) RuntimeOption {
	return func(s *runtimeSettings) {
		s.pollInterval = interval
	}
}

// WithNotifier replaces the ntfy-backed notifier.
func WithNotifier(notifier notifications.Service) RuntimeOption {
	return func(s *runtimeSettings) {
		s.notifier = notifier
	}
}

// NewRuntime opens the library and wires the studio controller to the
// configured generation, stitch, archive, handoff, and notification backends.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	settings := runtimeSettings{pollInterval: cfg.PollInterval()}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.notifier == nil {
		settings.notifier = notifications.NewService(cfg)
	}

	genClient, err := generation.New(cfg.Generation.BaseURL,
		generation.WithToken(cfg.Generation.APIToken),
		generation.WithTimeout(cfg.GenerationTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}
	stitchClient, err := stitch.New(cfg.Stitch.BaseURL,
		stitch.WithToken(cfg.Stitch.APIToken),
		stitch.WithTimeout(cfg.StitchTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("stitch client: %w", err)
	}

	store, err := library.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	publisher, err := handoff.New(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	archiver, err := archive.New(ctx, cfg, logger)
	if err != nil {
		publisher.Close()
		store.Close()
		return nil, err
	}
	var archiveStep finalize.Archiver
	if archiver != nil {
		archiveStep = archiver
	}
	pipeline := finalize.New(store, archiveStep, publisher, logger)

	controller, err := studio.NewController(studio.Options{
		Generation:   genClient,
		Stitch:       stitchClient,
		Recorder:     pipeline,
		Handoff:      pipeline,
		Drafts:       store,
		Notifier:     settings.notifier,
		Logger:       logger,
		PollInterval: settings.pollInterval,
	})
	if err != nil {
		publisher.Close()
		store.Close()
		return nil, err
	}
	return &Runtime{
		Store:      store,
		Controller: controller,
		Notifier:   settings.notifier,
		Publisher:  publisher,
		Compiler:   finalize.NewCompiler(store, stitchClient, pipeline, logger),
	}, nil
}

// Close cancels in-flight studio work and releases the handoff broker and
// library. It is safe to call after the daemon closed the same resources.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Controller != nil {
		errs = append(errs, r.Controller.Close())
	}
	if r.Publisher != nil {
		errs = append(errs, r.Publisher.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}
