package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeServices emulates the generation and stitch HTTP APIs on one httptest
// server. Every job succeeds on its first status query.
type FakeServices struct {
	server *httptest.Server

	mu         sync.Mutex
	jobs       map[string]string
	nextJob    int
	stitches   [][]string
	failStitch bool
}

// NewFakeServices starts the fake and registers cleanup.
func NewFakeServices(t testing.TB) *FakeServices {
	t.Helper()
	f := &FakeServices{jobs: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-video", f.handleSubmit)
	mux.HandleFunc("GET /api/generate-video/{id}", f.handleStatus)
	mux.HandleFunc("POST /api/stitch-videos", f.handleStitch)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL to configure for both services.
func (f *FakeServices) URL() string {
	return f.server.URL
}

// FailStitch makes subsequent stitch calls fail when fail is true.
func (f *FakeServices) FailStitch(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStitch = fail
}

// Prompts returns submitted prompts in order.
func (f *FakeServices) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.jobs))
	for i := 1; i <= f.nextJob; i++ {
		out = append(out, f.jobs[fmt.Sprintf("job-%d", i)])
	}
	return out
}

// StitchCalls returns the URL lists received by the stitch endpoint.
func (f *FakeServices) StitchCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.stitches))
	copy(out, f.stitches)
	return out
}

// ClipURL is the output URL the fake reports for jobID.
func ClipURL(jobID string) string {
	return "https://clips.test/" + jobID + ".mp4"
}

func (f *FakeServices) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt required"})
		return
	}
	f.mu.Lock()
	f.nextJob++
	id := fmt.Sprintf("job-%d", f.nextJob)
	f.jobs[id] = req.Prompt
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "status": "starting"})
}

func (f *FakeServices) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	_, ok := f.jobs[id]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": "succeeded",
		"output": []string{ClipURL(id)},
		"logs":   "rendering\ndone",
	})
}

func (f *FakeServices) handleStitch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoURLs []string `json:"videoUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	f.mu.Lock()
	f.stitches = append(f.stitches, req.VideoURLs)
	n := len(f.stitches)
	fail := f.failStitch
	f.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "stitch backend unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url":       fmt.Sprintf("https://merged.test/m%d.mp4", n),
		"public_id": fmt.Sprintf("merged-%d", n),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
