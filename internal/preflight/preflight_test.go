package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipstudio/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.WriteHeader(http.StatusNotFound)
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		url    string
		token  string
		passed bool
		detail string
	}{
		{"reachable", srv.URL, "good", true, "reachable"},
		{"bad token", srv.URL, "bad", false, "auth failed"},
		{"server error", srv.URL, "broken", false, "server error"},
		{"missing url", "", "", false, "missing url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckService(context.Background(), "svc", tt.url, tt.token)
			if result.Passed != tt.passed || !strings.Contains(result.Detail, tt.detail) {
				t.Fatalf("unexpected result: %+v", result)
			}
		})
	}
}

func TestCheckBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	result := CheckBroker(context.Background(), "amqp://guest:guest@"+ln.Addr().String()+"/")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if bad := CheckBroker(context.Background(), "http://nope"); bad.Passed {
		t.Fatal("expected failure for non-amqp url")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = base
	cfg.Generation.BaseURL = srv.URL
	cfg.Stitch.BaseURL = srv.URL
	cfg.Library.Path = filepath.Join(base, "library.db")

	results := RunAll(context.Background(), &cfg)
	// State directory + generation service + library
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}

func TestRunAll_IncludesOptionalChecks(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Generation.BaseURL = "http://127.0.0.1:1"
	cfg.Stitch.BaseURL = "http://127.0.0.1:2"
	cfg.Library.Path = filepath.Join(base, "library.db")
	cfg.Handoff.Mode = config.HandoffModeAMQP
	cfg.Handoff.AMQPURL = "amqp://127.0.0.1:1/"
	cfg.Archive.Enabled = true

	names := map[string]Result{}
	for _, r := range RunAll(context.Background(), &cfg) {
		names[r.Name] = r
	}
	for _, want := range []string{"Log directory", "Stitch service", "Handoff broker", "Archive"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("expected %q check, got %v", want, names)
		}
	}
	if names["Archive"].Passed {
		t.Fatal("archive without bucket must fail")
	}
	if names["Log directory"].Passed {
		t.Fatal("missing log directory must fail")
	}
}
