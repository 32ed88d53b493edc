package studio

import (
	"context"
	"errors"
	"log/slog"

	"clipstudio/internal/logging"
	"clipstudio/internal/notifications"
	"clipstudio/internal/services"
)

// observeLocked logs and notifies the milestones of a transition.
func (c *Controller) observeLocked(prev, next Model, ev Event) {
	ctx := services.WithSessionID(c.ctx, next.SessionID)
	logger := c.logger.With(logging.String(logging.FieldSessionID, next.SessionID))

	switch e := ev.(type) {
	case Submit, Recreate:
		gen, _ := next.State.(Generating)
		logger.Info("generation requested",
			logging.String("prompt", gen.Prompt),
			logging.Int("clips", next.Len()),
			logging.String(logging.FieldEventType, "generation_requested"),
		)
	case NewSession:
		logger.Info("session started",
			logging.String("previous_session", prev.SessionID),
			logging.Int("discarded_clips", prev.Len()),
			logging.String(logging.FieldEventType, "session_started"),
		)
	case JobSucceeded:
		if next.Phase() == PhaseFailed {
			c.reportFailure(ctx, logger, "generation", next.Err())
			return
		}
		clip, _ := next.session.Last()
		logger.Info("clip ready",
			logging.String(logging.FieldJobID, clip.JobID),
			logging.Int("clips", next.Len()),
			logging.String("url", clip.URL),
			logging.String(logging.FieldEventType, "clip_ready"),
		)
		c.publish(ctx, notifications.EventClipReady, notifications.Payload{
			"prompt": clip.Prompt,
			"clips":  next.Len(),
		})
	case JobFailed:
		c.reportFailure(ctx, logger, "generation", e.Err)
	case MergeSucceeded, MergeFailed:
		if err := next.Err(); err != nil {
			logging.WarnWithContext(logger, "merge failed", "merge_failed",
				logging.Int("clips", next.Len()),
				logging.Int("preview_clips", next.PreviewClips()),
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.String(logging.FieldErrorHint, "run retry-merge once the stitch service is reachable"),
				logging.String(logging.FieldImpact, "preview still shows the previous merge"),
			)
			c.publish(ctx, notifications.EventMergeFailed, notifications.Payload{
				"clips": next.Len(),
				"error": err,
			})
			return
		}
		logger.Info("preview updated",
			logging.Int("clips", next.Len()),
			logging.String("url", next.Preview().URL),
			logging.String(logging.FieldEventType, "merge_completed"),
		)
		c.publish(ctx, notifications.EventMergeCompleted, notifications.Payload{"clips": next.Len()})
	case Persisted:
		fin, _ := next.State.(Finalized)
		logger.Info("video finalized",
			logging.String("record_id", fin.RecordID),
			logging.String("title", fin.Video.Title),
			logging.Int("clips", fin.Video.ClipCount),
			logging.String(logging.FieldEventType, "finalized"),
		)
		c.publish(ctx, notifications.EventFinalized, notifications.Payload{
			"title":     fin.Video.Title,
			"record_id": fin.RecordID,
		})
	case PersistFailed:
		c.reportFailure(ctx, logger, "finalize", e.Err)
	}
}

func (c *Controller) reportFailure(ctx context.Context, logger *slog.Logger, label string, err error) {
	attrs := append([]logging.Attr{
		logging.String("context", label),
		logging.String(logging.FieldErrorHint, "check the service and resubmit; collected clips are kept"),
	}, logging.ErrorAttrs(err)...)
	attrs = append(attrs, logging.String(logging.FieldEventType, label+"_failed"))
	logger.Error(label+" failed", logging.Args(attrs...)...)
	c.publish(ctx, notifications.EventError, notifications.Payload{
		"context": label,
		"error":   err,
	})
}

// publish sends a notification without blocking the caller. The send is
// tracked so Close waits for it.
func (c *Controller) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.notifier.Publish(ctx, event, payload); err != nil {
			if errors.Is(err, context.Canceled) {
				c.logger.Debug("daemon shutting down, notification dropped", logging.String("event", string(event)))
				return
			}
			c.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
		}
	}()
}
