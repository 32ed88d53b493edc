package session

import (
	"time"
)

// Clip is one completed generation result. Clips are immutable once appended.
type Clip struct {
	URL           string    `json:"url"`
	Prompt        string    `json:"prompt"`
	SequenceIndex int       `json:"sequence_index"`
	JobID         string    `json:"job_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session is an ordered, append-only sequence of clips. The zero value is an
// empty session ready for use. Session is not safe for concurrent use; the
// studio controller serializes access.
type Session struct {
	clips []Clip
}

// FromClips rebuilds a session from persisted clips, renumbering them by
// position.
func FromClips(clips []Clip) Session {
	s := Session{}
	for _, clip := range clips {
		s.Append(clip)
	}
	return s
}

// Append adds clip at the end, assigning its sequence index, and returns the
// stored copy.
func (s *Session) Append(clip Clip) Clip {
	clip.SequenceIndex = len(s.clips)
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = time.Now().UTC()
	}
	s.clips = append(s.clips, clip)
	return clip
}

// PopLast removes and returns the last clip. ok is false when the session is
// empty.
func (s *Session) PopLast() (Clip, bool) {
	if len(s.clips) == 0 {
		return Clip{}, false
	}
	last := s.clips[len(s.clips)-1]
	s.clips = s.clips[:len(s.clips)-1]
	return last, true
}

// Clear removes every clip.
func (s *Session) Clear() {
	s.clips = nil
}

// Len reports the number of clips.
func (s Session) Len() int {
	return len(s.clips)
}

// Last returns the most recent clip.
func (s Session) Last() (Clip, bool) {
	if len(s.clips) == 0 {
		return Clip{}, false
	}
	return s.clips[len(s.clips)-1], true
}

// URLs returns the clip URLs in sequence order.
func (s Session) URLs() []string {
	urls := make([]string, len(s.clips))
	for i, clip := range s.clips {
		urls[i] = clip.URL
	}
	return urls
}

// Prompts returns the clip prompts in sequence order.
func (s Session) Prompts() []string {
	prompts := make([]string, len(s.clips))
	for i, clip := range s.clips {
		prompts[i] = clip.Prompt
	}
	return prompts
}

// Clips returns a copy of the stored clips.
func (s Session) Clips() []Clip {
	if len(s.clips) == 0 {
		return nil
	}
	out := make([]Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

// Clone returns an independent copy.
func (s Session) Clone() Session {
	return Session{clips: s.Clips()}
}
