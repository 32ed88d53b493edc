package studio

import (
	"context"

	"clipstudio/internal/logging"
	"clipstudio/internal/notifications"
	"clipstudio/internal/services"
)

func (c *Controller) launchLocked(effect Effect) {
	switch e := effect.(type) {
	case StartJob:
		c.cancelJobLocked()
		ctx, cancel := context.WithCancel(c.ctx)
		ctx = services.WithSessionID(ctx, c.model.SessionID)
		c.jobCancel = cancel
		c.wg.Add(1)
		go c.runJob(ctx, e)
	case Merge:
		c.cancelMergeLocked()
		ctx, cancel := context.WithCancel(c.ctx)
		ctx = services.WithSessionID(ctx, c.model.SessionID)
		c.mergeCancel = cancel
		c.wg.Add(1)
		go c.runMerge(ctx, e)
	case Persist:
		ctx := services.WithSessionID(c.ctx, c.model.SessionID)
		c.wg.Add(1)
		go c.runPersist(ctx, e)
	case Handoff:
		if c.handoff == nil {
			return
		}
		ctx := services.WithSessionID(c.ctx, c.model.SessionID)
		c.wg.Add(1)
		go c.runHandoff(ctx, e)
	}
}

func (c *Controller) runJob(ctx context.Context, e StartJob) {
	defer c.wg.Done()

	job, err := c.submitter.Submit(ctx, e.Prompt)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		_, _ = c.dispatch(JobFailed{Token: e.Token, Err: err})
		return
	}
	if _, err := c.dispatch(JobSubmitted{Token: e.Token, Job: job}); err != nil {
		return
	}

	ctx = services.WithJobID(ctx, job.ID)
	url, err := c.poller.Poll(ctx, job.ID, func(h JobHandle) {
		_, _ = c.dispatch(JobProgress{Token: e.Token, Status: h.Status, Logs: h.Logs})
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		_, _ = c.dispatch(JobFailed{Token: e.Token, Err: err})
		return
	}
	_, _ = c.dispatch(JobSucceeded{Token: e.Token, URL: url})
}

func (c *Controller) runMerge(ctx context.Context, e Merge) {
	defer c.wg.Done()

	preview, err := c.merger.Merge(ctx, e.URLs)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		_, _ = c.dispatch(MergeFailed{Token: e.Token, Err: err})
		return
	}
	_, _ = c.dispatch(MergeSucceeded{Token: e.Token, Preview: preview})
}

func (c *Controller) runPersist(ctx context.Context, e Persist) {
	defer c.wg.Done()

	id, err := c.recorder.Record(ctx, e.Video)
	if ctx.Err() != nil {
		return
	}
	if err == nil && id == "" {
		err = services.Wrap(services.ErrPersistence, "studio", "record", "library returned no record id", nil)
	}
	if err != nil {
		_, _ = c.dispatch(PersistFailed{Token: e.Token, Err: ensureMarker(err, services.ErrPersistence, "studio", "record")})
		return
	}
	_, _ = c.dispatch(Persisted{Token: e.Token, RecordID: id})
}

func (c *Controller) runHandoff(ctx context.Context, e Handoff) {
	defer c.wg.Done()

	err := c.handoff.Handoff(ctx, e.RecordID, e.Video)
	if err == nil || ctx.Err() != nil {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "scheduling handoff failed", "handoff_failed",
		logging.String("record_id", e.RecordID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the handoff broker; the library record is intact"),
		logging.String(logging.FieldImpact, "video was saved but not scheduled"),
		logging.Alert("manual_schedule_required"),
	)
	c.publish(ctx, notifications.EventHandoffFailed, notifications.Payload{
		"record_id": e.RecordID,
		"error":     err,
	})
}
