package studio

import (
	"context"
	"log/slog"
	"time"

	"clipstudio/internal/logging"
	"clipstudio/internal/services"
	"clipstudio/internal/services/stitch"
)

// Merger stitches the full ordered clip list into one preview.
type Merger struct {
	service stitch.Service
	logger  *slog.Logger
}

// NewMerger wraps service.
func NewMerger(service stitch.Service, logger *slog.Logger) *Merger {
	return &Merger{service: service, logger: logging.NewComponentLogger(logger, "merger")}
}

// Merge submits urls unchanged and in order. Every failure carries
// services.ErrMergeFailed.
func (m *Merger) Merge(ctx context.Context, urls []string) (Preview, error) {
	started := time.Now()
	res, err := m.service.Stitch(ctx, urls)
	if err != nil {
		if !isMarked(err, services.ErrMergeFailed) {
			err = services.Wrap(services.ErrMergeFailed, "merger", "stitch", "", err)
		}
		return Preview{}, err
	}
	m.logger.Info("clips merged",
		logging.Int("clips", len(urls)),
		logging.String("public_id", res.PublicID),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "merge_completed"),
	)
	return Preview{URL: res.URL, PublicID: res.PublicID}, nil
}
