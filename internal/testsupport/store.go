package testsupport

import (
	"context"
	"testing"

	"clipstudio/internal/config"
	"clipstudio/internal/library"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertVideo records a video for tests using the provided store.
func InsertVideo(t testing.TB, store *library.Store, sessionID, title string) *library.Video {
	t.Helper()

	video, err := store.Insert(context.Background(), library.Video{
		SessionID: sessionID,
		VideoURL:  "https://videos.test/" + sessionID + ".mp4",
		Title:     title,
		ClipCount: 1,
	})
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return video
}
