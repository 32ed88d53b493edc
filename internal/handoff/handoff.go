package handoff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipstudio/internal/config"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
)

// Message is the payload handed to the scheduler.
type Message struct {
	VideoID   string    `json:"video_id"`
	VideoURL  string    `json:"video_url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends finalized records downstream.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// New returns the publisher for the configured mode.
func New(cfg *config.Config, logger *slog.Logger) (Publisher, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "handoff", "new", "config required", nil)
	}
	switch cfg.Handoff.Mode {
	case config.HandoffModeAMQP:
		return NewAMQP(cfg.Handoff.AMQPURL, cfg.Handoff.Exchange, cfg.Handoff.RoutingKey, logger), nil
	case config.HandoffModeLog, "":
		return NewLog(cfg.Handoff.ScheduleURLTemplate, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "handoff", "new", fmt.Sprintf("unsupported mode %q", cfg.Handoff.Mode), nil)
	}
}

// LogPublisher writes the scheduling link to the log.
type LogPublisher struct {
	template string
	logger   *slog.Logger
}

// NewLog builds a log publisher. template must contain one %s for the id.
func NewLog(template string, logger *slog.Logger) *LogPublisher {
	if strings.TrimSpace(template) == "" {
		template = "/schedule?videoId=%s"
	}
	return &LogPublisher{template: template, logger: logging.NewComponentLogger(logger, "handoff")}
}

// ScheduleURL returns the scheduling link for id.
func (p *LogPublisher) ScheduleURL(id string) string {
	return fmt.Sprintf(p.template, id)
}

// Publish logs the scheduling link for msg.
func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.VideoID) == "" {
		return services.Wrap(services.ErrValidation, "handoff", "publish", "video id required", nil)
	}
	logging.WithContext(ctx, p.logger).Info("video ready for scheduling",
		logging.String("video_id", msg.VideoID),
		logging.String("title", msg.Title),
		logging.String("schedule_url", p.ScheduleURL(msg.VideoID)),
		logging.String(logging.FieldEventType, "handoff_logged"),
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
