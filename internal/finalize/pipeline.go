package finalize

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/handoff"
	"clipstudio/internal/library"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
	"clipstudio/internal/studio"
)

// VideoStore inserts and looks up library records.
type VideoStore interface {
	Insert(ctx context.Context, video library.Video) (*library.Video, error)
	List(ctx context.Context, opts library.ListOptions) ([]library.Video, error)
}

// Archiver copies a video to durable storage and returns its URL.
type Archiver interface {
	Archive(ctx context.Context, sessionID, recordID, sourceURL string) (string, error)
}

// Pipeline records finalized videos.
type Pipeline struct {
	store     VideoStore
	archiver  Archiver
	publisher handoff.Publisher
	logger    *slog.Logger
	newID     func() string
}

var (
	_ studio.Recorder     = (*Pipeline)(nil)
	_ studio.RecordFinder = (*Pipeline)(nil)
	_ studio.Handoffer    = (*Pipeline)(nil)
)

// New builds a pipeline. archiver and publisher may be nil.
func New(store VideoStore, archiver Archiver, publisher handoff.Publisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		archiver:  archiver,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "finalize"),
		newID:     uuid.NewString,
	}
}

// Record archives the video when an archiver is configured and inserts the
// library row. An archive failure is logged and the record is stored without
// an archive URL.
func (p *Pipeline) Record(ctx context.Context, video studio.Video) (string, error) {
	record := library.Video{
		ID:          p.newID(),
		SessionID:   video.SessionID,
		VideoURL:    video.VideoURL,
		PublicID:    video.PublicID,
		Title:       video.Title,
		Topic:       video.Topic,
		Tone:        video.Tone,
		Description: video.Description,
		ClipCount:   video.ClipCount,
	}
	logger := logging.WithContext(ctx, p.logger)

	if p.archiver != nil {
		url, err := p.archiver.Archive(ctx, record.SessionID, record.ID, record.VideoURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logging.WarnWithContext(logger, "archive upload failed; recording without archive copy", "archive_failed",
				logging.String("record_id", record.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check S3 credentials and bucket access"),
				logging.String(logging.FieldImpact, "library entry points at the stitch service URL only"),
			)
		} else {
			record.ArchiveURL = url
		}
	}

	stored, err := p.store.Insert(ctx, record)
	if err != nil {
		return "", ensurePersistence(err)
	}
	logger.Info("library record created",
		logging.String("record_id", stored.ID),
		logging.String("title", stored.Title),
		logging.Bool("archived", stored.ArchiveURL != ""),
		logging.String(logging.FieldEventType, "record_created"),
	)
	return stored.ID, nil
}

// FindRecord returns the newest library record written for sessionID.
func (p *Pipeline) FindRecord(ctx context.Context, sessionID string) (string, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", false, nil
	}
	videos, err := p.store.List(ctx, library.ListOptions{SessionID: sessionID, Limit: 1})
	if err != nil {
		return "", false, ensurePersistence(err)
	}
	if len(videos) == 0 {
		return "", false, nil
	}
	return videos[0].ID, true, nil
}

// Handoff publishes the record to the scheduler.
func (p *Pipeline) Handoff(ctx context.Context, recordID string, video studio.Video) error {
	if p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, handoff.Message{
		VideoID:   recordID,
		VideoURL:  video.VideoURL,
		Title:     video.Title,
		CreatedAt: time.Now().UTC(),
	})
}

func ensurePersistence(err error) error {
	if services.Kind(err) == "persistence" {
		return err
	}
	return services.Wrap(services.ErrPersistence, "finalize", "insert", "", err)
}
