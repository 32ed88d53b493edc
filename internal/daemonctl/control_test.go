package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"clipstudio/internal/testsupport"
)

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipstudio.pid")
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := ReadPID(path)
	if err != nil || pid != 4242 {
		t.Fatalf("ReadPID = %d, %v", pid, err)
	}

	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := ReadPID(path); err == nil {
		t.Fatal("expected invalid pid file to fail")
	}
	if _, err := ReadPID(filepath.Join(dir, "missing.pid")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipstudio.pid")
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	_, err := ForceKillProcess(path, "", 0)
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("pid file should be left in place: %v", statErr)
	}
}

func TestForceKillWithoutPID(t *testing.T) {
	_, err := ForceKillProcess(filepath.Join(t.TempDir(), "absent.pid"), "", 0)
	if err == nil || !strings.Contains(err.Error(), "unable to determine daemon pid") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := StopAndTerminate(filepath.Join(t.TempDir(), "none.sock"), cfg, 100*time.Millisecond)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	_, err := WaitForClient(filepath.Join(t.TempDir(), "none.sock"), 250*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "daemon failed to start") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected empty executable path to fail")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	socket := filepath.Join(t.TempDir(), "none.sock")
	status, err := BuildStatusSnapshot(context.Background(), socket, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("offline snapshot must not report running")
	}
	if status.Session.Phase != "offline" {
		t.Fatalf("phase = %q", status.Session.Phase)
	}
	if !status.Library.Reachable {
		t.Fatalf("expected local library to be reachable: %+v", status.Library)
	}
	if status.LockFilePath != cfg.LockPath() || status.SocketPath != socket {
		t.Fatalf("unexpected paths: %+v", status)
	}
}

func TestWaitForShutdownWithoutSocket(t *testing.T) {
	if err := WaitForShutdown(filepath.Join(t.TempDir(), "gone.sock"), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}
