package api

import (
	"strings"
	"time"

	"clipstudio/internal/library"
	"clipstudio/internal/preflight"
	"clipstudio/internal/studio"
)

// FromSnapshot converts a controller snapshot to its API representation.
func FromSnapshot(snap studio.Snapshot) Session {
	dto := Session{
		ID:           snap.SessionID,
		Phase:        string(snap.Phase),
		Busy:         snap.Phase.Busy(),
		Prompt:       snap.Prompt,
		Clips:        make([]Clip, 0, len(snap.Clips)),
		MergePending: snap.MergePending,
		Error:        snap.Error,
		ErrorKind:    snap.ErrorKind,
		RecordID:     snap.RecordID,
		Actions:      make([]string, 0, len(snap.Actions)),
		Version:      snap.Version,
		UpdatedAt:    formatTime(snap.UpdatedAt),
	}
	for _, clip := range snap.Clips {
		dto.Clips = append(dto.Clips, Clip{
			Index:     clip.SequenceIndex,
			URL:       clip.URL,
			Prompt:    clip.Prompt,
			JobID:     clip.JobID,
			CreatedAt: formatTime(clip.CreatedAt),
		})
	}
	for _, action := range snap.Actions {
		dto.Actions = append(dto.Actions, string(action))
	}
	if job := snap.Job; job != nil {
		dto.Job = &Job{
			ID:        job.ID,
			Status:    string(job.Status),
			OutputURL: job.OutputURL,
			LastLog:   lastLine(job.Logs),
		}
	}
	if !snap.Preview.Empty() {
		dto.Preview = &Preview{
			URL:      snap.Preview.URL,
			PublicID: snap.Preview.PublicID,
			Clips:    snap.PreviewClips,
		}
	}
	return dto
}

// FromVideo converts a library record to its API representation.
func FromVideo(video *library.Video) Video {
	if video == nil {
		return Video{}
	}
	return Video{
		ID:          video.ID,
		SessionID:   video.SessionID,
		VideoURL:    video.VideoURL,
		PublicID:    video.PublicID,
		Title:       video.Title,
		Topic:       video.Topic,
		Tone:        video.Tone,
		Description: video.Description,
		Status:      video.Status,
		ClipCount:   video.ClipCount,
		ArchiveURL:  video.ArchiveURL,
		CreatedAt:   formatTime(video.CreatedAt),
	}
}

// FromVideos converts library records into API DTOs.
func FromVideos(videos []library.Video) []Video {
	out := make([]Video, 0, len(videos))
	for i := range videos {
		out = append(out, FromVideo(&videos[i]))
	}
	return out
}

// FromHealth converts library diagnostics.
func FromHealth(h library.Health) LibraryHealth {
	return LibraryHealth{
		Driver:        h.Driver,
		Target:        h.Target,
		Reachable:     h.Reachable,
		SchemaVersion: h.SchemaVersion,
		Videos:        h.Videos,
		Drafts:        h.Drafts,
		Error:         h.Error,
	}
}

// FromCheckResults converts preflight results.
func FromCheckResults(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func lastLine(logs string) string {
	lines := strings.Split(strings.TrimSpace(logs), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
