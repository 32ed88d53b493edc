package studio_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"clipstudio/internal/services/generation"
	"clipstudio/internal/services/stitch"
	"clipstudio/internal/studio"
)

// fakeGeneration finishes every job on its first status query with a URL
// derived from the prompt and a per-service counter.
type fakeGeneration struct {
	mu        sync.Mutex
	submits   []string
	prompts   map[string]string
	count     int
	submitErr error
	statusErr error
	fail      string
	block     bool
	polling   chan struct{}
	cancelled chan struct{}
}

func newFakeGeneration() *fakeGeneration {
	return &fakeGeneration{
		prompts:   map[string]string{},
		polling:   make(chan struct{}, 8),
		cancelled: make(chan struct{}, 8),
	}
}

func (f *fakeGeneration) Submit(_ context.Context, prompt string) (*generation.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, prompt)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.count++
	id := fmt.Sprintf("job-%d", f.count)
	f.prompts[id] = prompt
	return &generation.Prediction{ID: id, Status: generation.StatusStarting}, nil
}

func (f *fakeGeneration) Status(ctx context.Context, id string) (*generation.Prediction, error) {
	f.mu.Lock()
	block, statusErr, fail := f.block, f.statusErr, f.fail
	prompt := f.prompts[id]
	f.mu.Unlock()

	if block {
		f.polling <- struct{}{}
		<-ctx.Done()
		f.cancelled <- struct{}{}
		return nil, ctx.Err()
	}
	if statusErr != nil {
		return nil, statusErr
	}
	if fail != "" {
		return &generation.Prediction{ID: id, Status: generation.StatusFailed, Error: fail}, nil
	}
	url := fmt.Sprintf("https://clips.test/%s-%s.mp4", strings.ReplaceAll(prompt, " ", "_"), id)
	return &generation.Prediction{ID: id, Status: generation.StatusSucceeded, Output: []string{url}}, nil
}

func (f *fakeGeneration) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func (f *fakeGeneration) setBlock(block bool) {
	f.mu.Lock()
	f.block = block
	f.mu.Unlock()
}

func (f *fakeGeneration) setFail(msg string) {
	f.mu.Lock()
	f.fail = msg
	f.mu.Unlock()
}

// fakeStitch returns a deterministic merged URL or err.
type fakeStitch struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeStitch) Stitch(_ context.Context, urls []string) (*stitch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), urls...))
	if f.err != nil {
		return nil, f.err
	}
	n := len(f.calls)
	return &stitch.Result{
		URL:      fmt.Sprintf("https://merged.test/m%d.mp4", n),
		PublicID: fmt.Sprintf("merged-%d", n),
	}, nil
}

func (f *fakeStitch) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeStitch) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type fakeRecorder struct {
	mu     sync.Mutex
	videos []studio.Video
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, video studio.Video) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.videos = append(f.videos, video)
	return fmt.Sprintf("rec-%d", len(f.videos)), nil
}

func (f *fakeRecorder) FindRecord(_ context.Context, sessionID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.videos) - 1; i >= 0; i-- {
		if f.videos[i].SessionID == sessionID {
			return fmt.Sprintf("rec-%d", i+1), true, nil
		}
	}
	return "", false, nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.videos)
}

type fakeHandoff struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeHandoff) Handoff(_ context.Context, recordID string, _ studio.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, recordID)
	return nil
}

func (f *fakeHandoff) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type memoryDrafts struct {
	mu      sync.Mutex
	payload []byte
	saves   int
}

func (m *memoryDrafts) SaveDraft(_ context.Context, _ string, _ string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = append([]byte(nil), payload...)
	m.saves++
	return nil
}

func (m *memoryDrafts) store(t *testing.T, draft studio.Draft) {
	t.Helper()
	payload, err := json.Marshal(draft)
	if err != nil {
		t.Fatalf("encode draft: %v", err)
	}
	m.mu.Lock()
	m.payload = payload
	m.mu.Unlock()
}

func (m *memoryDrafts) LatestDraft(context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return nil, false, nil
	}
	return append([]byte(nil), m.payload...), true, nil
}

type harness struct {
	ctrl     *studio.Controller
	gen      *fakeGeneration
	stitcher *fakeStitch
	recorder *fakeRecorder
	handoff  *fakeHandoff
	drafts   *memoryDrafts
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		gen:      newFakeGeneration(),
		stitcher: &fakeStitch{},
		recorder: &fakeRecorder{},
		handoff:  &fakeHandoff{},
		drafts:   &memoryDrafts{},
	}
	h.ctrl = h.open(t)
	return h
}

func (h *harness) open(t *testing.T) *studio.Controller {
	t.Helper()
	ids := 0
	ctrl, err := studio.NewController(studio.Options{
		Generation:   h.gen,
		Stitch:       h.stitcher,
		Recorder:     h.recorder,
		Handoff:      h.handoff,
		Drafts:       h.drafts,
		PollInterval: time.Millisecond,
		NewID: func() string {
			ids++
			return fmt.Sprintf("session-%d", ids)
		},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl
}

func settle(t *testing.T, ctrl *studio.Controller) studio.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.Wait(ctx, studio.Snapshot.Settled)
	if err != nil {
		t.Fatalf("wait for settle: %v (phase %s)", err, snap.Phase)
	}
	return snap
}

func waitFor(t *testing.T, ctrl *studio.Controller, pred func(studio.Snapshot) bool) studio.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.Wait(ctx, pred)
	if err != nil {
		t.Fatalf("wait: %v (phase %s)", err, snap.Phase)
	}
	return snap
}

// mustAct wraps an action call: mustAct(t)(ctrl.Submit(ctx, prompt)).
func mustAct(t *testing.T) func(studio.Snapshot, error) studio.Snapshot {
	return func(snap studio.Snapshot, err error) studio.Snapshot {
		t.Helper()
		if err != nil {
			t.Fatalf("action failed: %v", err)
		}
		return snap
	}
}

var errStitchDown = errors.New("stitch service unavailable")
