package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipstudio/internal/library"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
	"clipstudio/internal/services/stitch"
	"clipstudio/internal/studio"
)

// VideoReader fetches library records by id.
type VideoReader interface {
	Get(ctx context.Context, id string) (*library.Video, error)
}

// Compiler stitches videos already in the library into a new entry.
type Compiler struct {
	videos   VideoReader
	stitcher stitch.Service
	recorder studio.Recorder
	logger   *slog.Logger
}

// NewCompiler builds a compiler that records through recorder, so compiled
// videos are archived the same way finalized sessions are.
func NewCompiler(videos VideoReader, stitcher stitch.Service, recorder studio.Recorder, logger *slog.Logger) *Compiler {
	return &Compiler{
		videos:   videos,
		stitcher: stitcher,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "compile"),
	}
}

// Compile stitches the videos named by ids in the order given and records the
// result. It returns the new record id.
func (c *Compiler) Compile(ctx context.Context, ids []string) (string, error) {
	ids, err := selection(ids)
	if err != nil {
		return "", err
	}
	urls := make([]string, 0, len(ids))
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		video, err := c.videos.Get(ctx, id)
		if err != nil {
			return "", err
		}
		urls = append(urls, video.VideoURL)
		titles = append(titles, video.Title)
	}

	started := time.Now()
	merged, err := c.stitcher.Stitch(ctx, urls)
	if err != nil {
		return "", err
	}
	publicID := merged.PublicID
	if publicID == "" {
		publicID = fmt.Sprintf("merged_%d", started.UnixMilli())
	}
	recordID, err := c.recorder.Record(ctx, studio.Video{
		VideoURL:    merged.URL,
		PublicID:    publicID,
		Title:       studio.CompilationTitle(len(ids)),
		Topic:       studio.TopicCompilation,
		Tone:        studio.ToneMixed,
		Description: strings.Join(titles, "\n"),
		ClipCount:   len(ids),
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("library compilation recorded",
		logging.String("record_id", recordID),
		logging.Int("sources", len(ids)),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "compilation_recorded"),
	)
	return recordID, nil
}

// selection trims ids and rejects short or repeated selections.
func selection(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, services.Wrap(services.ErrValidation, "compile", "select", fmt.Sprintf("video %s selected twice", id), nil)
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) < 2 {
		return nil, services.Wrap(services.ErrValidation, "compile", "select", fmt.Sprintf("need at least 2 videos, got %d", len(out)), nil)
	}
	return out, nil
}
