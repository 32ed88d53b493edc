package logging

import "strings"

// ProgressSampler suppresses repetitive job progress logs. A generation job
// is polled every few seconds and usually reports the same status many times
// in a row; only status changes, new log lines, and a periodic heartbeat are
// worth a record.
type ProgressSampler struct {
	heartbeatEvery int
	lastStatus     string
	lastLine       string
	quiet          int
}

// NewProgressSampler constructs a sampler that also emits after heartbeatEvery
// consecutive suppressed observations (default 10).
func NewProgressSampler(heartbeatEvery int) *ProgressSampler {
	if heartbeatEvery <= 0 {
		heartbeatEvery = 10
	}
	return &ProgressSampler{heartbeatEvery: heartbeatEvery}
}

// ShouldLog reports whether an observation should be logged.
func (s *ProgressSampler) ShouldLog(status, lastLine string) bool {
	if s == nil {
		return true
	}
	status = strings.TrimSpace(status)
	lastLine = strings.TrimSpace(lastLine)
	if status != s.lastStatus || (lastLine != "" && lastLine != s.lastLine) {
		s.lastStatus = status
		if lastLine != "" {
			s.lastLine = lastLine
		}
		s.quiet = 0
		return true
	}
	s.quiet++
	if s.quiet >= s.heartbeatEvery {
		s.quiet = 0
		return true
	}
	return false
}

// Reset clears the sampler state (e.g. when a new job starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStatus = ""
	s.lastLine = ""
	s.quiet = 0
}
