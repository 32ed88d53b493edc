package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipstudio/internal/api"
	"clipstudio/internal/daemonctl"
	"clipstudio/internal/services"
	"clipstudio/internal/testsupport"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", services.Wrap(services.ErrValidation, "studio", "submit", "empty", nil), exitRejected},
		{"invalid action", fmt.Errorf("wrapped: %w", services.ErrInvalidAction), exitRejected},
		{"daemon unavailable", fmt.Errorf("%w: socket missing", errDaemonUnavailable), exitUnavailable},
		{"daemon not running", daemonctl.ErrDaemonNotRunning, exitUnavailable},
		{"timeout", context.DeadlineExceeded, exitTimeout},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatusOfflineJSON(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "clipstudio.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"--json", "status"}, filepath.Join(t.TempDir(), "absent.sock"), configPath)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if status.Running {
		t.Fatal("expected offline status")
	}
	if !status.Library.Reachable {
		t.Fatalf("expected local library health: %+v", status.Library)
	}
}

func TestStatusRunningText(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"System Status", "Daemon:", "Running", "Library:", "Session", "Idle"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "clipstudio.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output: %s", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "clipstudio.toml")
	writeTestConfig(t, configPath, cfg)
	out, _, err = runCLI(t, []string{"config", "validate"}, "", configPath)
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, configPath) {
		t.Fatalf("unexpected validate output: %s", out)
	}
}

func TestLogsCommandFiltersAndFormats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "clipstudio.toml")
	writeTestConfig(t, configPath, cfg)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := strings.Join([]string{
		`{"ts":"2026-01-02T03:04:05Z","level":"info","msg":"clip ready","component":"studio","session_id":"s-1"}`,
		`{"ts":"2026-01-02T03:04:06Z","level":"warn","msg":"merge failed","component":"studio","session_id":"s-1"}`,
		"plain text line",
	}, "\n") + "\n"
	if err := os.WriteFile(cfg.DaemonLogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--level", "warn"}, "", configPath)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if strings.Contains(out, "clip ready") || !strings.Contains(out, "merge failed") || strings.Contains(out, "plain text") {
		t.Fatalf("unexpected filtered output:\n%s", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "[studio]") {
		t.Fatalf("expected formatted record:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--lines", "1"}, "", configPath)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if strings.TrimSpace(out) != "plain text line" {
		t.Fatalf("expected only the last line, got:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"logs", "--level", "loud"}, "", configPath); err == nil {
		t.Fatal("expected invalid level to fail")
	}
}
