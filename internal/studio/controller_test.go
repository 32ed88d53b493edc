package studio_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clipstudio/internal/services"
	"clipstudio/internal/session"
	"clipstudio/internal/studio"
)

func TestControllerAuthoringFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// One clip: the preview is the clip itself.
	snap := mustAct(t)(h.ctrl.Submit(ctx, "a cat"))
	if snap.Phase != studio.PhaseGenerating {
		t.Fatalf("phase after submit = %s", snap.Phase)
	}
	snap = settle(t, h.ctrl)
	if snap.Phase != studio.PhaseReady || len(snap.Clips) != 1 {
		t.Fatalf("unexpected snapshot after first clip: %+v", snap)
	}
	clipA := snap.Clips[0].URL
	if snap.Preview.URL != clipA || snap.PreviewClips != 1 {
		t.Fatalf("preview = %+v, want clip %s", snap.Preview, clipA)
	}
	if h.stitcher.lastCall() != nil {
		t.Fatal("single clip must not be merged")
	}

	// Second clip triggers a merge of the full ordered list.
	snap = mustAct(t)(h.ctrl.AddClip(ctx))
	if snap.Phase != studio.PhaseIdle || snap.Prompt != "" || snap.Preview.URL != clipA {
		t.Fatalf("add-clip must clear the prompt and keep the preview: %+v", snap)
	}
	mustAct(t)(h.ctrl.Submit(ctx, "a dog"))
	snap = settle(t, h.ctrl)
	if len(snap.Clips) != 2 || snap.Clips[1].Prompt != "a dog" || snap.Clips[1].SequenceIndex != 1 {
		t.Fatalf("unexpected clips: %+v", snap.Clips)
	}
	if got := h.stitcher.lastCall(); len(got) != 2 || got[0] != clipA || got[1] != snap.Clips[1].URL {
		t.Fatalf("merge urls = %v", got)
	}
	merged1 := snap.Preview
	if merged1.URL != "https://merged.test/m1.mp4" || snap.PreviewClips != 2 {
		t.Fatalf("preview = %+v", snap.Preview)
	}

	// Recreate replaces the last clip and re-merges.
	clipB := snap.Clips[1].URL
	mustAct(t)(h.ctrl.Recreate(ctx))
	snap = settle(t, h.ctrl)
	if len(snap.Clips) != 2 || snap.Clips[1].URL == clipB || snap.Clips[1].Prompt != "a dog" {
		t.Fatalf("recreate did not replace the last clip: %+v", snap.Clips)
	}
	if snap.Preview.URL != "https://merged.test/m2.mp4" {
		t.Fatalf("preview after recreate = %+v", snap.Preview)
	}

	// Finalize records the merged preview without resetting the session.
	snap = mustAct(t)(h.ctrl.Finalize(ctx))
	if snap.Phase != studio.PhaseFinalizing {
		t.Fatalf("phase after finalize = %s", snap.Phase)
	}
	snap = settle(t, h.ctrl)
	if snap.Phase != studio.PhaseFinalized || snap.RecordID != "rec-1" {
		t.Fatalf("unexpected snapshot after finalize: %+v", snap)
	}
	if len(snap.Clips) != 2 || snap.Preview.URL != "https://merged.test/m2.mp4" {
		t.Fatalf("finalize must not reset the session: %+v", snap)
	}
	video := h.recorder.videos[0]
	if video.Title != "Merged Video (2 clips)" || video.Topic != "Compilation" || video.ClipCount != 2 || video.PublicID != "merged-2" {
		t.Fatalf("unexpected record: %+v", video)
	}
	if video.Description != "a cat\na dog" {
		t.Fatalf("description = %q", video.Description)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(h.handoff.recorded()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ids := h.handoff.recorded(); len(ids) != 1 || ids[0] != "rec-1" {
		t.Fatalf("handoff ids = %v", ids)
	}
}

func TestControllerMergeFailureKeepsPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mustAct(t)(h.ctrl.Submit(ctx, "a cat"))
	first := settle(t, h.ctrl)
	mustAct(t)(h.ctrl.AddClip(ctx))

	h.stitcher.setErr(errStitchDown)
	mustAct(t)(h.ctrl.Submit(ctx, "a dog"))
	snap := settle(t, h.ctrl)

	if snap.Phase != studio.PhaseReady || snap.ErrorKind != "merge_failed" {
		t.Fatalf("expected degraded ready, got %+v", snap)
	}
	if len(snap.Clips) != 2 {
		t.Fatalf("merge failure must keep clips, got %d", len(snap.Clips))
	}
	if snap.Preview.URL != first.Preview.URL || snap.PreviewClips != 1 {
		t.Fatalf("preview must stay at last known-good value: %+v", snap.Preview)
	}
	if !snap.MergePending || !snap.Can(studio.ActionRetryMerge) {
		t.Fatalf("retry-merge should be offered: %+v", snap.Actions)
	}

	h.stitcher.setErr(nil)
	mustAct(t)(h.ctrl.RetryMerge(ctx))
	snap = settle(t, h.ctrl)
	if snap.Error != "" || snap.PreviewClips != 2 || snap.MergePending {
		t.Fatalf("retry did not recover: %+v", snap)
	}
	if got := h.stitcher.lastCall(); len(got) != 2 {
		t.Fatalf("retry must resend the full list, got %v", got)
	}
}

func TestControllerFinalizeWithPendingMergeRecordsOlderPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mustAct(t)(h.ctrl.Submit(ctx, "only the cat"))
	settle(t, h.ctrl)
	mustAct(t)(h.ctrl.AddClip(ctx))
	h.stitcher.setErr(errStitchDown)
	mustAct(t)(h.ctrl.Submit(ctx, "a dog"))
	settle(t, h.ctrl)

	mustAct(t)(h.ctrl.Finalize(ctx))
	snap := settle(t, h.ctrl)
	if snap.Phase != studio.PhaseFinalized {
		t.Fatalf("phase = %s", snap.Phase)
	}
	video := h.recorder.videos[0]
	if video.ClipCount != 1 || video.Title != "only the cat" || video.Topic != "AI Generated" || video.Tone != "Creative" {
		t.Fatalf("unexpected record: %+v", video)
	}
	if !strings.HasPrefix(video.PublicID, "ai_") {
		t.Fatalf("public id = %q", video.PublicID)
	}
}

func TestControllerGenerationFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mustAct(t)(h.ctrl.Submit(ctx, "a cat"))
	settle(t, h.ctrl)
	mustAct(t)(h.ctrl.AddClip(ctx))

	h.gen.setFail("NSFW content detected")
	mustAct(t)(h.ctrl.Submit(ctx, "a dog"))
	snap := settle(t, h.ctrl)
	if snap.Phase != studio.PhaseFailed || snap.ErrorKind != "generation_failed" {
		t.Fatalf("expected failed, got %+v", snap)
	}
	if !strings.Contains(snap.Error, "NSFW") {
		t.Fatalf("service error text missing: %q", snap.Error)
	}
	if len(snap.Clips) != 1 {
		t.Fatalf("failure must not discard clips: %+v", snap.Clips)
	}

	h.gen.setFail("")
	mustAct(t)(h.ctrl.Submit(ctx, "a dog"))
	snap = settle(t, h.ctrl)
	if snap.Phase != studio.PhaseReady || len(snap.Clips) != 2 {
		t.Fatalf("resubmit from failed did not recover: %+v", snap)
	}
}

func TestControllerRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ctrl.Submit(ctx, "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.gen.submitCount() != 0 {
		t.Fatal("validation must not reach the network")
	}

	before := h.ctrl.Snapshot()
	_, err = h.ctrl.Recreate(ctx)
	var invalid *studio.InvalidActionError
	if !errors.As(err, &invalid) || !errors.Is(err, services.ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}
	if invalid.Action != studio.ActionRecreate || invalid.Phase != studio.PhaseIdle {
		t.Fatalf("unexpected error detail: %+v", invalid)
	}
	if after := h.ctrl.Snapshot(); after.Version != before.Version {
		t.Fatal("rejected action must not change state")
	}

	h.gen.setBlock(true)
	mustAct(t)(h.ctrl.Submit(ctx, "a cat"))
	if _, err := h.ctrl.Submit(ctx, "a dog"); !errors.Is(err, services.ErrInvalidAction) {
		t.Fatalf("submit while generating must be refused, got %v", err)
	}
	if _, err := h.ctrl.NewSession(ctx); !errors.Is(err, services.ErrInvalidAction) {
		t.Fatalf("new session while generating must be refused, got %v", err)
	}
}

func TestControllerCloseCancelsPolling(t *testing.T) {
	h := newHarness(t)
	h.gen.setBlock(true)

	mustAct(t)(h.ctrl.Submit(context.Background(), "a cat"))
	select {
	case <-h.gen.polling:
	case <-time.After(5 * time.Second):
		t.Fatal("status was never queried")
	}

	if err := h.ctrl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-h.gen.cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("poll was not cancelled")
	}
	if _, err := h.ctrl.Submit(context.Background(), "a dog"); !errors.Is(err, studio.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestControllerNewSessionClearsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mustAct(t)(h.ctrl.Submit(ctx, "a cat"))
	first := settle(t, h.ctrl)

	snap := mustAct(t)(h.ctrl.NewSession(ctx))
	if snap.Phase != studio.PhaseIdle || len(snap.Clips) != 0 || !snap.Preview.Empty() {
		t.Fatalf("new session not empty: %+v", snap)
	}
	if snap.SessionID == first.SessionID {
		t.Fatal("new session must get a new id")
	}
}

func TestControllerRestoresDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mustAct(t)(h.ctrl.Submit(ctx, "a cat"))
	settle(t, h.ctrl)
	mustAct(t)(h.ctrl.AddClip(ctx))
	mustAct(t)(h.ctrl.Submit(ctx, "a dog"))
	before := settle(t, h.ctrl)
	if err := h.ctrl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	restarted := h.open(t)
	ok, err := restarted.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v", ok, err)
	}
	snap := restarted.Snapshot()
	if snap.SessionID != before.SessionID || snap.Phase != studio.PhaseReady {
		t.Fatalf("unexpected restored snapshot: %+v", snap)
	}
	if len(snap.Clips) != 2 || snap.Preview != before.Preview {
		t.Fatalf("restored clips/preview mismatch: %+v", snap)
	}
	if !snap.Can(studio.ActionRecreate) || !snap.Can(studio.ActionFinalize) {
		t.Fatalf("restored actions = %v", snap.Actions)
	}
}

func TestControllerRestoresInterruptedFinalize(t *testing.T) {
	clips := []session.Clip{
		{URL: "https://clips.test/a.mp4", Prompt: "a cat"},
		{URL: "https://clips.test/b.mp4", Prompt: "a dog"},
	}
	draft := studio.Draft{
		SessionID: "session-saved",
		Phase:     studio.PhaseFinalizing,
		Clips:     clips,
		Previews:  []studio.Preview{{URL: clips[0].URL}, {URL: "https://merged.test/m1.mp4"}},
		SavedAt:   time.Now(),
	}

	t.Run("record committed", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		if _, err := h.recorder.Record(ctx, studio.Video{SessionID: "session-saved", VideoURL: "https://merged.test/m1.mp4"}); err != nil {
			t.Fatalf("seed record: %v", err)
		}
		h.drafts.store(t, draft)

		restarted := h.open(t)
		if ok, err := restarted.Restore(ctx); err != nil || !ok {
			t.Fatalf("Restore = %v, %v", ok, err)
		}
		snap := restarted.Snapshot()
		if snap.Phase != studio.PhaseFinalized || snap.RecordID != "rec-1" {
			t.Fatalf("expected finalized session with the existing record, got %+v", snap)
		}
		if _, err := restarted.Finalize(ctx); !errors.Is(err, services.ErrInvalidAction) {
			t.Fatalf("finalize after recovery = %v, want invalid action", err)
		}
		if got := h.recorder.count(); got != 1 {
			t.Fatalf("library records = %d, want 1", got)
		}
	})

	t.Run("nothing recorded", func(t *testing.T) {
		h := newHarness(t)
		h.drafts.store(t, draft)

		restarted := h.open(t)
		if ok, err := restarted.Restore(context.Background()); err != nil || !ok {
			t.Fatalf("Restore = %v, %v", ok, err)
		}
		snap := restarted.Snapshot()
		if snap.Phase != studio.PhaseReady || snap.RecordID != "" || !snap.Can(studio.ActionFinalize) {
			t.Fatalf("expected ready session that can finalize again, got %+v", snap)
		}
	})
}
