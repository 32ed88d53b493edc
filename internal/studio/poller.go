package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipstudio/internal/logging"
	"clipstudio/internal/services"
	"clipstudio/internal/services/generation"
)

// DefaultPollInterval is the wait between status queries.
const DefaultPollInterval = 3 * time.Second

// Poller follows one generation job to a terminal state.
type Poller struct {
	service  generation.Service
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller builds a poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(service generation.Service, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{service: service, interval: interval, logger: logging.NewComponentLogger(logger, "poller")}
}

// Poll waits one interval, queries the job, and repeats until the job
// succeeds or fails. progress receives every non-terminal observation. The
// returned URL is the first output entry.
//
// Cancelling ctx stops polling and returns ctx.Err().
func (p *Poller) Poll(ctx context.Context, jobID string, progress func(JobHandle)) (string, error) {
	logger := p.logger.With(logging.String(logging.FieldJobID, jobID))
	sampler := logging.NewProgressSampler(10)
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}

		pred, err := p.service.Status(ctx, jobID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			if !isMarked(err, services.ErrNetwork) {
				err = services.Wrap(services.ErrNetwork, "poller", "status", "", err)
			}
			return "", err
		}

		switch pred.Status {
		case generation.StatusSucceeded:
			if len(pred.Output) == 0 || strings.TrimSpace(pred.Output[0]) == "" {
				return "", services.Wrap(services.ErrMalformedResult, "poller", "status", "job succeeded without output", nil)
			}
			return strings.TrimSpace(pred.Output[0]), nil
		case generation.StatusFailed, generation.StatusCanceled:
			detail := strings.TrimSpace(pred.Error)
			if detail == "" {
				detail = "Generation failed"
			}
			return "", services.Wrap(services.ErrGenerationFailed, "poller", "status", detail, nil)
		case generation.StatusStarting, generation.StatusProcessing:
			if detail := strings.TrimSpace(pred.Error); detail != "" {
				return "", services.Wrap(services.ErrGenerationFailed, "poller", "status", detail, nil)
			}
		default:
			// A reply without a known status never becomes terminal.
			if detail := strings.TrimSpace(pred.Error); detail != "" {
				return "", services.Wrap(services.ErrGenerationFailed, "poller", "status", detail, nil)
			}
			return "", services.Wrap(services.ErrMalformedResult, "poller", "status",
				fmt.Sprintf("unrecognized job status %q", pred.Status), nil)
		}

		handle := JobHandle{ID: jobID, Status: JobStatusProcessing, Logs: pred.LastLogLine()}
		if pred.Status == generation.StatusStarting {
			handle.Status = JobStatusStarting
		}
		if sampler.ShouldLog(string(handle.Status), handle.Logs) {
			logger.Debug("generation progress",
				logging.String("status", pred.Status),
				logging.String("last_log", handle.Logs),
				logging.String(logging.FieldEventType, "job_progress"),
			)
		}
		if progress != nil {
			progress(handle)
		}
		timer.Reset(p.interval)
	}
}

func isMarked(err error, markers ...error) bool {
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}
