package studio_test

import (
	"errors"
	"testing"
	"time"

	"clipstudio/internal/services"
	"clipstudio/internal/session"
	"clipstudio/internal/studio"
)

// step applies ev and fails the test on error.
func step(t *testing.T, m studio.Model, ev studio.Event) (studio.Model, []studio.Effect) {
	t.Helper()
	next, effects, err := studio.Apply(m, ev)
	if err != nil {
		t.Fatalf("Apply(%T): %v", ev, err)
	}
	return next, effects
}

func startJobToken(t *testing.T, effects []studio.Effect) uint64 {
	t.Helper()
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %d", len(effects))
	}
	start, ok := effects[0].(studio.StartJob)
	if !ok {
		t.Fatalf("expected StartJob, got %T", effects[0])
	}
	return start.Token
}

func mergeEffect(t *testing.T, effects []studio.Effect) studio.Merge {
	t.Helper()
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %d", len(effects))
	}
	merge, ok := effects[0].(studio.Merge)
	if !ok {
		t.Fatalf("expected Merge, got %T", effects[0])
	}
	return merge
}

// generate runs submit through a successful job.
func generate(t *testing.T, m studio.Model, prompt, url string) (studio.Model, []studio.Effect) {
	t.Helper()
	m, effects := step(t, m, studio.Submit{Prompt: prompt})
	token := startJobToken(t, effects)
	m, _ = step(t, m, studio.JobSubmitted{Token: token, Job: studio.JobHandle{ID: "job-" + prompt}})
	return step(t, m, studio.JobSucceeded{Token: token, URL: url})
}

func TestApplySingleClipBecomesPreview(t *testing.T) {
	m, effects := generate(t, studio.NewModel("s1"), "cat", "A")
	if len(effects) != 0 {
		t.Fatalf("single clip must not merge, got %v", effects)
	}
	if m.Phase() != studio.PhaseReady || m.Len() != 1 || m.Preview().URL != "A" {
		t.Fatalf("unexpected model: phase=%s len=%d preview=%+v", m.Phase(), m.Len(), m.Preview())
	}
	clip, _ := m.Session().Last()
	if clip.Prompt != "cat" || clip.JobID != "job-cat" || clip.SequenceIndex != 0 {
		t.Fatalf("unexpected clip: %+v", clip)
	}
}

func TestApplySecondClipMergesFullList(t *testing.T) {
	m, _ := generate(t, studio.NewModel("s1"), "cat", "A")
	m, _ = step(t, m, studio.AddClip{})
	m, effects := generate(t, m, "dog", "B")

	merge := mergeEffect(t, effects)
	if len(merge.URLs) != 2 || merge.URLs[0] != "A" || merge.URLs[1] != "B" {
		t.Fatalf("merge urls = %v", merge.URLs)
	}
	if m.Phase() != studio.PhaseMerging || m.Preview().URL != "A" {
		t.Fatalf("while merging the preview stays at A, got %+v", m.Preview())
	}

	m, _ = step(t, m, studio.MergeSucceeded{Token: merge.Token, Preview: studio.Preview{URL: "merged1", PublicID: "pub1"}})
	if m.Phase() != studio.PhaseReady || m.Preview().URL != "merged1" || m.PreviewClips() != 2 {
		t.Fatalf("unexpected model after merge: %s %+v", m.Phase(), m.Preview())
	}
}

func TestApplyRecreateReplacesLastClip(t *testing.T) {
	m, _ := generate(t, studio.NewModel("s1"), "cat", "A")
	m, _ = step(t, m, studio.AddClip{})
	m, effects := generate(t, m, "dog", "B")
	m, _ = step(t, m, studio.MergeSucceeded{Token: mergeEffect(t, effects).Token, Preview: studio.Preview{URL: "merged1"}})

	m, effects = step(t, m, studio.Recreate{})
	token := startJobToken(t, effects)
	if start := effects[0].(studio.StartJob); start.Prompt != "dog" {
		t.Fatalf("recreate prompt = %q", start.Prompt)
	}
	if m.Len() != 1 || m.Preview().URL != "A" {
		t.Fatalf("recreate must pop the last clip and fall back to A: len=%d preview=%+v", m.Len(), m.Preview())
	}

	m, effects = step(t, m, studio.JobSucceeded{Token: token, URL: "B2"})
	merge := mergeEffect(t, effects)
	if merge.URLs[1] != "B2" {
		t.Fatalf("merge urls = %v", merge.URLs)
	}
	m, _ = step(t, m, studio.MergeSucceeded{Token: merge.Token, Preview: studio.Preview{URL: "merged2"}})
	if m.Preview().URL != "merged2" || m.Len() != 2 {
		t.Fatalf("unexpected model: %+v", m.Preview())
	}
}

func TestApplyMergeFailureIsNonFatal(t *testing.T) {
	m, _ := generate(t, studio.NewModel("s1"), "cat", "A")
	m, _ = step(t, m, studio.AddClip{})
	m, effects := generate(t, m, "dog", "B")
	merge := mergeEffect(t, effects)

	failure := services.Wrap(services.ErrMergeFailed, "stitch", "post", "boom", nil)
	m, _ = step(t, m, studio.MergeFailed{Token: merge.Token, Err: failure})
	if m.Phase() != studio.PhaseReady || !errors.Is(m.Err(), services.ErrMergeFailed) {
		t.Fatalf("expected degraded ready, got %s %v", m.Phase(), m.Err())
	}
	if m.Preview().URL != "A" || m.Len() != 2 || !m.MergePending() {
		t.Fatalf("preview=%+v len=%d pending=%v", m.Preview(), m.Len(), m.MergePending())
	}

	m, effects = step(t, m, studio.RetryMerge{})
	retry := mergeEffect(t, effects)
	if retry.Token == merge.Token || len(retry.URLs) != 2 {
		t.Fatalf("retry must issue a new token and the full list: %+v", retry)
	}
	if m.Err() != nil {
		t.Fatalf("error should clear while merging, got %v", m.Err())
	}
}

func TestApplyFinalizeKeepsSession(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	m, _ := generate(t, studio.NewModel("s1"), "cat", "A")
	m, _ = step(t, m, studio.AddClip{})
	m, effects := generate(t, m, "dog", "B")
	m, _ = step(t, m, studio.MergeSucceeded{Token: mergeEffect(t, effects).Token, Preview: studio.Preview{URL: "merged1", PublicID: "pub1"}})

	m, effects = step(t, m, studio.Finalize{At: at})
	persist, ok := effects[0].(studio.Persist)
	if !ok {
		t.Fatalf("expected Persist, got %T", effects[0])
	}
	if persist.Video.VideoURL != "merged1" || persist.Video.PublicID != "pub1" || persist.Video.ClipCount != 2 {
		t.Fatalf("unexpected video: %+v", persist.Video)
	}

	m, effects = step(t, m, studio.Persisted{Token: persist.Token, RecordID: "rec-1"})
	if m.Phase() != studio.PhaseFinalized || m.Len() != 2 || m.Preview().URL != "merged1" {
		t.Fatalf("finalize must not reset: %s len=%d", m.Phase(), m.Len())
	}
	handoff, ok := effects[0].(studio.Handoff)
	if !ok || handoff.RecordID != "rec-1" {
		t.Fatalf("expected handoff effect, got %v", effects)
	}
}

func TestApplyPersistFailureReturnsToReady(t *testing.T) {
	m, _ := generate(t, studio.NewModel("s1"), "cat", "A")
	m, effects := step(t, m, studio.Finalize{At: time.Now()})
	token := effects[0].(studio.Persist).Token

	m, _ = step(t, m, studio.PersistFailed{Token: token, Err: services.Wrap(services.ErrPersistence, "library", "insert", "", nil)})
	if m.Phase() != studio.PhaseReady || services.Kind(m.Err()) != "persistence" {
		t.Fatalf("unexpected model: %s %v", m.Phase(), m.Err())
	}
	if _, _, err := studio.Apply(m, studio.Finalize{At: time.Now()}); err != nil {
		t.Fatalf("finalize should be retryable: %v", err)
	}
}

func TestApplyStaleResultsAreIgnored(t *testing.T) {
	m, effects := step(t, studio.NewModel("s1"), studio.Submit{Prompt: "cat"})
	token := startJobToken(t, effects)

	tests := []struct {
		name string
		ev   studio.Event
	}{
		{"wrong job token", studio.JobSucceeded{Token: token + 1, URL: "X"}},
		{"wrong failure token", studio.JobFailed{Token: token + 7, Err: errors.New("late")}},
		{"merge result while generating", studio.MergeSucceeded{Token: token, Preview: studio.Preview{URL: "M"}}},
		{"persist result while generating", studio.Persisted{Token: token, RecordID: "r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !studio.Stale(m, tt.ev) {
				t.Fatal("expected stale")
			}
			next, effects, err := studio.Apply(m, tt.ev)
			if err != nil || len(effects) != 0 {
				t.Fatalf("stale event must be a no-op, got %v %v", effects, err)
			}
			if next.Phase() != studio.PhaseGenerating || next.Len() != 0 {
				t.Fatalf("model changed: %s len=%d", next.Phase(), next.Len())
			}
		})
	}

	// A tick from an abandoned job after the user moved on.
	m, _ = step(t, m, studio.JobSucceeded{Token: token, URL: "A"})
	m, _ = step(t, m, studio.AddClip{})
	next, _, err := studio.Apply(m, studio.JobSucceeded{Token: token, URL: "ghost"})
	if err != nil || next.Len() != 1 || next.Phase() != studio.PhaseIdle {
		t.Fatalf("late tick resurrected job: len=%d phase=%s err=%v", next.Len(), next.Phase(), err)
	}
}

func TestApplyActionTable(t *testing.T) {
	ready, _ := generate(t, studio.NewModel("s1"), "cat", "A")
	generating, _ := step(t, studio.NewModel("s2"), studio.Submit{Prompt: "cat"})

	tests := []struct {
		name    string
		model   studio.Model
		ev      studio.Event
		allowed bool
	}{
		{"submit from idle", studio.NewModel("s"), studio.Submit{Prompt: "x"}, true},
		{"recreate from idle", studio.NewModel("s"), studio.Recreate{}, false},
		{"finalize from idle", studio.NewModel("s"), studio.Finalize{}, false},
		{"submit from ready", ready, studio.Submit{Prompt: "x"}, false},
		{"recreate from ready", ready, studio.Recreate{}, true},
		{"add clip from ready", ready, studio.AddClip{}, true},
		{"finalize from ready", ready, studio.Finalize{}, true},
		{"retry merge without pending merge", ready, studio.RetryMerge{}, false},
		{"new session from ready", ready, studio.NewSession{SessionID: "n"}, true},
		{"submit while generating", generating, studio.Submit{Prompt: "x"}, false},
		{"new session while generating", generating, studio.NewSession{SessionID: "n"}, false},
		{"add clip while generating", generating, studio.AddClip{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := studio.Apply(tt.model, tt.ev)
			if tt.allowed {
				if err != nil {
					t.Fatalf("expected allowed, got %v", err)
				}
				return
			}
			if !errors.Is(err, services.ErrInvalidAction) {
				t.Fatalf("expected invalid action, got %v", err)
			}
			if next.Phase() != tt.model.Phase() {
				t.Fatal("rejected action changed the phase")
			}
		})
	}
}

func TestApplyEmptyPromptIsValidationError(t *testing.T) {
	m := studio.NewModel("s1")
	next, effects, err := studio.Apply(m, studio.Submit{Prompt: " \t\n"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(effects) != 0 || next.Phase() != studio.PhaseIdle {
		t.Fatal("validation failure must not start work")
	}
}

func TestApplyEmptyJobOutputFails(t *testing.T) {
	m, effects := step(t, studio.NewModel("s1"), studio.Submit{Prompt: "cat"})
	m, _ = step(t, m, studio.JobSucceeded{Token: startJobToken(t, effects), URL: "  "})
	if m.Phase() != studio.PhaseFailed || !errors.Is(m.Err(), services.ErrMalformedResult) {
		t.Fatalf("expected malformed result failure, got %s %v", m.Phase(), m.Err())
	}
}

func TestRestoreModelInterruptedMerge(t *testing.T) {
	draft := studio.Draft{
		SessionID: "s1",
		Phase:     studio.PhaseMerging,
		Clips: []session.Clip{
			{URL: "A", Prompt: "cat"},
			{URL: "B", Prompt: "dog"},
		},
		Previews: []studio.Preview{{URL: "A"}},
	}
	m := studio.RestoreModel(draft)
	if m.Phase() != studio.PhaseReady || m.Len() != 2 {
		t.Fatalf("unexpected restore: %s len=%d", m.Phase(), m.Len())
	}
	if m.Preview().URL != "A" || !m.MergePending() {
		t.Fatalf("interrupted merge must be retryable: preview=%+v pending=%v", m.Preview(), m.MergePending())
	}
	if _, effects, err := studio.Apply(m, studio.RetryMerge{}); err != nil || len(effects) != 1 {
		t.Fatalf("retry merge after restore: %v", err)
	}
}

func TestRestoreModelFinalizedAndEmpty(t *testing.T) {
	fin := studio.RestoreModel(studio.Draft{
		SessionID: "s1",
		Phase:     studio.PhaseFinalized,
		RecordID:  "rec-9",
		Clips:     []session.Clip{{URL: "A", Prompt: "cat"}},
	})
	if fin.Phase() != studio.PhaseFinalized {
		t.Fatalf("phase = %s", fin.Phase())
	}
	empty := studio.RestoreModel(studio.Draft{SessionID: "s2", Phase: studio.PhaseGenerating, Prompt: "cat"})
	if empty.Phase() != studio.PhaseIdle || empty.Prompt != "cat" {
		t.Fatalf("interrupted first job should restore idle with its prompt: %s %q", empty.Phase(), empty.Prompt)
	}
}

func TestBuildVideoSingleClipDefaults(t *testing.T) {
	long := "a very long prompt about a cat that keeps going well past fifty runes of text"
	m, _ := generate(t, studio.NewModel("s1"), long, "A")
	video := studio.BuildVideo(m, time.UnixMilli(1234))
	if video.PublicID != "ai_1234" || video.Topic != "AI Generated" || video.Tone != "Creative" {
		t.Fatalf("unexpected defaults: %+v", video)
	}
	if got := []rune(video.Title); len(got) > 50 {
		t.Fatalf("title too long: %q", video.Title)
	}
	if video.Description != long || video.VideoURL != "A" || video.SessionID != "s1" {
		t.Fatalf("unexpected video: %+v", video)
	}
}
