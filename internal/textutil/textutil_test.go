package textutil_test

import (
	"testing"

	"clipstudio/internal/textutil"
)

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"":                     "unknown",
		"  Session 42 ":        "session_42",
		"ai_1700000000000":     "ai_1700000000000",
		"../../etc/passwd":     "etc_passwd",
		"a3f1-uuid-like-VALUE": "a3f1-uuid-like-value",
		"***":                  "unknown",
	}
	for in, want := range tests {
		if got := textutil.SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := textutil.Truncate("  short  ", 50); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	in := "日本語のプロンプト"
	if got := textutil.Truncate(in, 3); got != "日本語" {
		t.Fatalf("unexpected %q", got)
	}
	if got := textutil.Truncate("hello world", 6); got != "hello" {
		t.Fatalf("expected trailing space trimmed, got %q", got)
	}
	if got := textutil.Truncate("x", 0); got != "" {
		t.Fatalf("expected empty for zero limit, got %q", got)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"merge_failed": "Merge Failed",
		"add-clip":     "Add Clip",
		"ready":        "Ready",
		"  ":           "",
	}
	for in, want := range tests {
		if got := textutil.Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
