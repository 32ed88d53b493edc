package archive_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"clipstudio/internal/archive"
	"clipstudio/internal/config"
	"clipstudio/internal/services"
)

type fakeUploader struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadsDownloadedVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer srv.Close()

	uploader := &fakeUploader{}
	a := archive.NewWithClient(uploader, srv.Client(), "videos", "/clipstudio/", nil)

	url, err := a.Archive(context.Background(), "session-1", "rec-1", srv.URL+"/m1.mp4")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if url != "s3://videos/clipstudio/session-1/rec-1.mp4" {
		t.Fatalf("url = %q", url)
	}
	in := uploader.inputs[0]
	if *in.Bucket != "videos" || *in.Key != "clipstudio/session-1/rec-1.mp4" || *in.ContentType != "video/mp4" {
		t.Fatalf("unexpected input: bucket=%s key=%s", *in.Bucket, *in.Key)
	}
	if *in.ContentLength != int64(len("mp4-bytes")) || string(uploader.bodies[0]) != "mp4-bytes" {
		t.Fatalf("unexpected body: %q", uploader.bodies[0])
	}
}

func TestArchiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		uploader *fakeUploader
		source   string
		marker   error
	}{
		{"empty source", &fakeUploader{}, "", services.ErrValidation},
		{"source 404", &fakeUploader{}, srv.URL + "/missing.mp4", services.ErrNetwork},
		{"upload error", &fakeUploader{err: errors.New("access denied")}, srv.URL + "/m.mp4", services.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := archive.NewWithClient(tt.uploader, srv.Client(), "videos", "p", nil)
			if _, err := a.Archive(context.Background(), "s", "r", tt.source); !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	cfg := config.Default()
	a, err := archive.New(context.Background(), &cfg, nil)
	if err != nil || a != nil {
		t.Fatalf("disabled archive should be nil, got %v %v", a, err)
	}
	url, err := a.Archive(context.Background(), "s", "r", "https://x")
	if err != nil || url != "" {
		t.Fatalf("nil archiver must be a no-op, got %q %v", url, err)
	}
}
