package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/logging"
	"clipstudio/internal/notifications"
	"clipstudio/internal/services"
	"clipstudio/internal/services/generation"
	"clipstudio/internal/services/stitch"
)

// ErrClosed is returned by actions after Close.
var ErrClosed = errors.New("studio controller closed")

// Recorder stores a finalized video and returns its record id.
type Recorder interface {
	Record(ctx context.Context, video Video) (string, error)
}

// RecordFinder is implemented by recorders that can find the record already
// written for a session. Restore uses it so an interrupted finalize whose
// insert committed is not recorded twice.
type RecordFinder interface {
	FindRecord(ctx context.Context, sessionID string) (string, bool, error)
}

// Handoffer passes a recorded video to the scheduling subsystem.
type Handoffer interface {
	Handoff(ctx context.Context, recordID string, video Video) error
}

// DraftStore persists the latest session journal. Payloads are opaque JSON.
type DraftStore interface {
	SaveDraft(ctx context.Context, sessionID, phase string, payload []byte) error
	LatestDraft(ctx context.Context) ([]byte, bool, error)
}

// Options wires a Controller to its collaborators. Generation, Stitch, and
// Recorder are required.
type Options struct {
	Generation   generation.Service
	Stitch       stitch.Service
	Recorder     Recorder
	Handoff      Handoffer
	Drafts       DraftStore
	Notifier     notifications.Service
	Logger       *slog.Logger
	PollInterval time.Duration
	NewID        func() string
	Now          func() time.Time
}

// Controller owns the live model for one authoring session at a time. Every
// change goes through dispatch; effects run in goroutines that report back by
// dispatching events.
type Controller struct {
	submitter *Submitter
	poller    *Poller
	merger    *Merger
	recorder  Recorder
	handoff   Handoffer
	drafts    DraftStore
	notifier  notifications.Service
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	model       Model
	version     uint64
	updatedAt   time.Time
	changed     chan struct{}
	closed      bool
	jobCancel   context.CancelFunc
	mergeCancel context.CancelFunc
}

// NewController builds an idle controller with a fresh session id.
func NewController(opts Options) (*Controller, error) {
	if opts.Generation == nil {
		return nil, errors.New("studio: generation service required")
	}
	if opts.Stitch == nil {
		return nil, errors.New("studio: stitch service required")
	}
	if opts.Recorder == nil {
		return nil, errors.New("studio: recorder required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "studio")
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		submitter: NewSubmitter(opts.Generation, opts.Logger),
		poller:    NewPoller(opts.Generation, opts.PollInterval, opts.Logger),
		merger:    NewMerger(opts.Stitch, opts.Logger),
		recorder:  opts.Recorder,
		handoff:   opts.Handoff,
		drafts:    opts.Drafts,
		notifier:  notifier,
		logger:    logger,
		newID:     newID,
		now:       now,
		ctx:       ctx,
		cancel:    cancel,
		model:     NewModel(newID()),
		updatedAt: now(),
		changed:   make(chan struct{}),
	}
	return c, nil
}

// Restore replaces a pristine controller's model with the latest saved draft.
// It reports whether a draft was loaded.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	if c.drafts == nil {
		return false, nil
	}
	payload, ok, err := c.drafts.LatestDraft(ctx)
	if err != nil {
		return false, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return false, nil
	}
	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return false, fmt.Errorf("decode draft: %w", err)
	}
	if draft.SessionID == "" {
		return false, nil
	}
	if draft.Phase == PhaseFinalizing {
		c.recoverRecord(ctx, &draft)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	if c.model.Phase() != PhaseIdle || c.model.Len() > 0 {
		return false, errors.New("studio: restore requires a pristine session")
	}
	restored := RestoreModel(draft)
	restored.nextToken = c.model.nextToken
	c.commitLocked(restored)
	c.logger.Info("session restored",
		logging.String(logging.FieldSessionID, restored.SessionID),
		logging.Int("clips", restored.Len()),
		logging.String("phase", string(restored.Phase())),
		logging.Bool("merge_pending", restored.MergePending()),
		logging.String(logging.FieldEventType, "session_restored"),
	)
	return true, nil
}

// recoverRecord marks an interrupted finalize as finalized when the library
// already holds its record. Without a finder, or when the lookup fails, the
// draft restores as Ready.
func (c *Controller) recoverRecord(ctx context.Context, draft *Draft) {
	finder, ok := c.recorder.(RecordFinder)
	if !ok {
		return
	}
	recordID, found, err := finder.FindRecord(ctx, draft.SessionID)
	if err != nil {
		logging.WarnWithContext(c.logger, "record lookup failed; finalize can be repeated", "record_lookup_failed",
			logging.String(logging.FieldSessionID, draft.SessionID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the library before finalizing again"),
			logging.String(logging.FieldImpact, "a second finalize may duplicate the library entry"),
		)
		return
	}
	if found {
		draft.Phase = PhaseFinalized
		draft.RecordID = recordID
	}
}

// Submit starts a generation job for prompt.
func (c *Controller) Submit(ctx context.Context, prompt string) (Snapshot, error) {
	return c.act(ctx, ActionSubmit, Submit{Prompt: prompt})
}

// Recreate regenerates the last clip from its prompt.
func (c *Controller) Recreate(ctx context.Context) (Snapshot, error) {
	return c.act(ctx, ActionRecreate, Recreate{})
}

// AddClip clears the prompt so another clip can be submitted.
func (c *Controller) AddClip(ctx context.Context) (Snapshot, error) {
	return c.act(ctx, ActionAddClip, AddClip{})
}

// Finalize records the current preview in the library.
func (c *Controller) Finalize(ctx context.Context) (Snapshot, error) {
	return c.act(ctx, ActionFinalize, Finalize{At: c.now()})
}

// RetryMerge resubmits the full clip list after a failed merge.
func (c *Controller) RetryMerge(ctx context.Context) (Snapshot, error) {
	return c.act(ctx, ActionRetryMerge, RetryMerge{})
}

// NewSession discards the current session and starts an empty one.
func (c *Controller) NewSession(ctx context.Context) (Snapshot, error) {
	return c.act(ctx, ActionNewSession, NewSession{SessionID: c.newID()})
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until pred accepts the current snapshot, ctx ends, or the
// controller closes.
func (c *Controller) Wait(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	for {
		c.mu.Lock()
		snap := c.snapshotLocked()
		changed := c.changed
		closed := c.closed
		c.mu.Unlock()

		if pred(snap) {
			return snap, nil
		}
		if closed {
			return snap, ErrClosed
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels in-flight work and waits for every effect goroutine to exit.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Controller) act(ctx context.Context, action Action, ev Event) (Snapshot, error) {
	snap, err := c.dispatch(ev)
	if err != nil {
		logger := logging.WithContext(ctx, c.logger)
		attrs := []logging.Attr{
			logging.String("action", string(action)),
			logging.String("phase", string(snap.Phase)),
		}
		attrs = append(attrs, logging.ErrorAttrs(err)...)
		logger.Info("action rejected", logging.Args(attrs...)...)
	}
	return snap, err
}

func (c *Controller) dispatch(ev Event) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked(), ErrClosed
	}

	prev := c.model
	if Stale(prev, ev) {
		c.logger.Debug("stale result dropped",
			logging.String("event", fmt.Sprintf("%T", ev)),
			logging.String("phase", string(prev.Phase())),
		)
		return c.snapshotLocked(), nil
	}
	next, effects, err := Apply(prev, ev)
	if err != nil {
		return c.snapshotLocked(), err
	}

	c.releaseLocked(prev, next)
	c.commitLocked(next)
	if _, progress := ev.(JobProgress); !progress {
		c.saveDraftLocked()
	}
	c.observeLocked(prev, next, ev)
	for _, effect := range effects {
		c.launchLocked(effect)
	}
	return c.snapshotLocked(), nil
}

// releaseLocked cancels the job or merge that next no longer tracks.
func (c *Controller) releaseLocked(prev, next Model) {
	if g, ok := prev.State.(Generating); ok {
		if ng, still := next.State.(Generating); !still || ng.Token != g.Token {
			c.cancelJobLocked()
		}
	}
	if m, ok := prev.State.(Merging); ok {
		if nm, still := next.State.(Merging); !still || nm.Token != m.Token {
			c.cancelMergeLocked()
		}
	}
	if prev.SessionID != next.SessionID {
		c.cancelJobLocked()
		c.cancelMergeLocked()
	}
}

func (c *Controller) commitLocked(next Model) {
	c.model = next
	c.version++
	c.updatedAt = c.now()
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) snapshotLocked() Snapshot {
	return NewSnapshot(c.model, c.version, c.updatedAt)
}

func (c *Controller) saveDraftLocked() {
	if c.drafts == nil {
		return
	}
	payload, err := json.Marshal(c.model.Draft(c.updatedAt))
	if err != nil {
		c.logger.Warn("draft encode failed", logging.Error(err))
		return
	}
	if err := c.drafts.SaveDraft(c.ctx, c.model.SessionID, string(c.model.Phase()), payload); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.WarnWithContext(c.logger, "session draft not saved", "draft_save_failed",
			logging.String(logging.FieldSessionID, c.model.SessionID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check library database access"),
			logging.String(logging.FieldImpact, "clips will not survive a daemon restart"),
		)
	}
}

func (c *Controller) cancelJobLocked() {
	if c.jobCancel != nil {
		c.jobCancel()
		c.jobCancel = nil
	}
}

func (c *Controller) cancelMergeLocked() {
	if c.mergeCancel != nil {
		c.mergeCancel()
		c.mergeCancel = nil
	}
}

// ensureMarker tags err with marker unless it already carries it.
func ensureMarker(err error, marker error, component, op string) error {
	if err == nil || errors.Is(err, marker) {
		return err
	}
	return services.Wrap(marker, component, op, "", err)
}
