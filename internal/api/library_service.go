package api

import (
	"context"
	"strings"

	"clipstudio/internal/library"
	"clipstudio/internal/services"
)

// LibraryStore abstracts library persistence interactions needed by the API.
type LibraryStore interface {
	List(ctx context.Context, opts library.ListOptions) ([]library.Video, error)
	Get(ctx context.Context, id string) (*library.Video, error)
	Delete(ctx context.Context, id string) error
}

// Compiler stitches library videos into a new library entry.
type Compiler interface {
	Compile(ctx context.Context, ids []string) (string, error)
}

// LibraryService exposes library operations returning API DTOs.
type LibraryService struct {
	store    LibraryStore
	compiler Compiler
}

// NewLibraryService constructs a LibraryService around the provided store.
// compiler may be nil, in which case Compile reports a configuration error.
func NewLibraryService(store LibraryStore, compiler Compiler) *LibraryService {
	if store == nil {
		return nil
	}
	return &LibraryService{store: store, compiler: compiler}
}

// List returns finalized videos, newest first.
func (s *LibraryService) List(ctx context.Context, opts library.ListOptions) ([]Video, error) {
	if s == nil || s.store == nil {
		return []Video{}, nil
	}
	videos, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return FromVideos(videos), nil
}

// Describe fetches a single video.
func (s *LibraryService) Describe(ctx context.Context, id string) (Video, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Video{}, services.Wrap(services.ErrValidation, "api", "library", "video id required", nil)
	}
	if s == nil || s.store == nil {
		return Video{}, services.Wrap(services.ErrNotFound, "api", "library", "video "+id, nil)
	}
	video, err := s.store.Get(ctx, id)
	if err != nil {
		return Video{}, err
	}
	return FromVideo(video), nil
}

// Delete removes a video from the library.
func (s *LibraryService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Wrap(services.ErrValidation, "api", "library", "video id required", nil)
	}
	if s == nil || s.store == nil {
		return services.Wrap(services.ErrNotFound, "api", "library", "video "+id, nil)
	}
	return s.store.Delete(ctx, id)
}

// Compile stitches the selected videos, in order, into a new library entry
// and returns it.
func (s *LibraryService) Compile(ctx context.Context, ids []string) (Video, error) {
	if s == nil || s.compiler == nil {
		return Video{}, services.Wrap(services.ErrConfiguration, "api", "compile", "library compilation unavailable", nil)
	}
	id, err := s.compiler.Compile(ctx, ids)
	if err != nil {
		return Video{}, err
	}
	return s.Describe(ctx, id)
}
