package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"clipstudio/internal/api"
	"clipstudio/internal/services"
	"clipstudio/internal/testsupport"
)

func TestSubmitWaitFinalizeAndBrowse(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "submit", "--wait", "a", "paper", "boat")
	if err != nil {
		t.Fatalf("submit failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Ready") || !strings.Contains(out, testsupport.ClipURL("job-1")) {
		t.Fatalf("unexpected submit output:\n%s", out)
	}
	if got := env.fake.Prompts(); len(got) != 1 || got[0] != "a paper boat" {
		t.Fatalf("prompts sent = %#v", got)
	}

	out, err = env.run(t, "--json", "finalize", "--wait")
	if err != nil {
		t.Fatalf("finalize failed: %v\n%s", err, out)
	}
	var finalized api.SessionResponse
	if err := json.Unmarshal([]byte(out), &finalized); err != nil {
		t.Fatalf("decode finalize output: %v\n%s", err, out)
	}
	if finalized.Session.Phase != "finalized" || finalized.Session.RecordID == "" {
		t.Fatalf("unexpected finalized session: %+v", finalized.Session)
	}

	out, err = env.run(t, "--json", "library", "list")
	if err != nil {
		t.Fatalf("library list failed: %v", err)
	}
	var list api.LibraryListResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode library list: %v\n%s", err, out)
	}
	if len(list.Videos) != 1 || list.Videos[0].ID != finalized.Session.RecordID {
		t.Fatalf("unexpected library: %+v", list.Videos)
	}

	out, err = env.run(t, "library", "show", finalized.Session.RecordID)
	if err != nil {
		t.Fatalf("library show failed: %v", err)
	}
	for _, want := range []string{"Title:", "a paper boat", "Clips:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("library show output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "new-session")
	if err != nil {
		t.Fatalf("new-session failed: %v", err)
	}
	if !strings.Contains(out, "No clips yet") {
		t.Fatalf("expected empty session after new-session:\n%s", out)
	}
}

func TestRejectedActionExitsWithRejectedCode(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "add-clip")
	if !errors.Is(err, services.ErrInvalidAction) {
		t.Fatalf("expected invalid action error, got %v", err)
	}
	if code := exitCode(err); code != exitRejected {
		t.Fatalf("exit code = %d, want %d", code, exitRejected)
	}

	if _, err := env.run(t, "library", "show", "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionCommandWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "clipstudio.toml")
	writeTestConfig(t, configPath, cfg)

	_, _, err := runCLI(t, []string{"session"}, filepath.Join(t.TempDir(), "absent.sock"), configPath)
	if err == nil {
		t.Fatal("expected an error without a daemon")
	}
	if code := exitCode(err); code != exitUnavailable {
		t.Fatalf("exit code = %d, want %d (%v)", code, exitUnavailable, err)
	}
	if !strings.Contains(err.Error(), "clipstudio start") {
		t.Fatalf("expected start hint, got %v", err)
	}
}

func TestSessionErrorReflectsFailure(t *testing.T) {
	if err := sessionError(api.Session{Phase: "ready", Error: "merge failed"}); err != nil {
		t.Fatalf("non-failed session should not error: %v", err)
	}
	err := sessionError(api.Session{Phase: "failed", Error: "generation failed: boom", ErrorKind: "generation_failed"})
	if !errors.Is(err, services.ErrGenerationFailed) {
		t.Fatalf("expected generation failure marker, got %v", err)
	}
}
