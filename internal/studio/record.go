package studio

import (
	"fmt"
	"strings"
	"time"

	"clipstudio/internal/textutil"
)

const titleRunes = 50

// Labels for videos stitched from more than one clip.
const (
	TopicCompilation = "Compilation"
	ToneMixed        = "Mixed"
)

// CompilationTitle names a stitched video of n clips.
func CompilationTitle(n int) string {
	return fmt.Sprintf("Merged Video (%d clips)", n)
}

// Video is the library record produced by finalize.
type Video struct {
	SessionID   string `json:"session_id"`
	VideoURL    string `json:"video_url"`
	PublicID    string `json:"public_id"`
	Title       string `json:"title"`
	Topic       string `json:"topic"`
	Tone        string `json:"tone"`
	Description string `json:"description"`
	ClipCount   int    `json:"clip_count"`
}

// BuildVideo describes the current preview as a library record. A single clip
// is titled from its prompt; a stitched preview is labelled as a compilation
// of the clips it covers.
func BuildVideo(m Model, at time.Time) Video {
	preview := m.Preview()
	count := m.PreviewClips()
	prompts := m.session.Prompts()
	if count < len(prompts) {
		prompts = prompts[:count]
	}

	video := Video{
		SessionID:   m.SessionID,
		VideoURL:    preview.URL,
		PublicID:    preview.PublicID,
		Description: strings.Join(prompts, "\n"),
		ClipCount:   count,
	}
	if count <= 1 {
		first := ""
		if len(prompts) > 0 {
			first = prompts[0]
		}
		video.Title = textutil.Truncate(first, titleRunes)
		video.Topic = "AI Generated"
		video.Tone = "Creative"
		if video.PublicID == "" {
			video.PublicID = fmt.Sprintf("ai_%d", at.UnixMilli())
		}
		return video
	}
	video.Title = CompilationTitle(count)
	video.Topic = TopicCompilation
	video.Tone = ToneMixed
	if video.PublicID == "" {
		video.PublicID = fmt.Sprintf("merged_%d", at.UnixMilli())
	}
	return video
}
