package studio

import (
	"context"
	"log/slog"
	"strings"

	"clipstudio/internal/logging"
	"clipstudio/internal/services"
	"clipstudio/internal/services/generation"
)

// Submitter starts generation jobs.
type Submitter struct {
	service generation.Service
	logger  *slog.Logger
}

// NewSubmitter wraps service.
func NewSubmitter(service generation.Service, logger *slog.Logger) *Submitter {
	return &Submitter{service: service, logger: logging.NewComponentLogger(logger, "submitter")}
}

// Submit validates prompt and creates a job. The returned handle is always
// in the starting state. An empty prompt fails before any network call.
func (s *Submitter) Submit(ctx context.Context, prompt string) (JobHandle, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return JobHandle{}, services.Wrap(services.ErrValidation, "submitter", "submit", "prompt must not be empty", nil)
	}
	pred, err := s.service.Submit(ctx, prompt)
	if err != nil {
		if !isMarked(err, services.ErrSubmission, services.ErrValidation) {
			err = services.Wrap(services.ErrSubmission, "submitter", "submit", "", err)
		}
		return JobHandle{}, err
	}
	s.logger.Info("generation job submitted",
		logging.String(logging.FieldJobID, pred.ID),
		logging.Int("prompt_chars", len([]rune(prompt))),
		logging.String(logging.FieldEventType, "job_submitted"),
	)
	return JobHandle{ID: pred.ID, Status: JobStatusStarting}, nil
}
