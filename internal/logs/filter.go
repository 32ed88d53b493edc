package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Record is the decoded form of one JSON log line.
type Record struct {
	Time      string
	Level     string
	Message   string
	Component string
	SessionID string
	Attrs     map[string]any
}

// Parse decodes a JSON log line. Lines that are not JSON objects report false.
func Parse(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{
		Time:      takeString(raw, "ts"),
		Level:     takeString(raw, "level"),
		Message:   takeString(raw, "msg"),
		Component: takeString(raw, "component"),
		SessionID: takeString(raw, "session_id"),
		Attrs:     raw,
	}
	return rec, true
}

func takeString(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Filter selects records by minimum level, component, and session.
// Zero values match everything.
type Filter struct {
	MinLevel  slog.Leveler
	Component string
	SessionID string
}

// ParseLevel converts a level name such as "warn" into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(name) == "" {
		return slog.LevelDebug, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// Active reports whether the filter narrows anything.
func (f Filter) Active() bool {
	return f.MinLevel != nil || f.Component != "" || f.SessionID != ""
}

// Match reports whether line passes the filter. Non-JSON lines only pass an
// inactive filter.
func (f Filter) Match(line string) bool {
	if !f.Active() {
		return true
	}
	rec, ok := Parse(line)
	if !ok {
		return false
	}
	return f.MatchRecord(rec)
}

// MatchRecord applies the filter to a decoded record.
func (f Filter) MatchRecord(rec Record) bool {
	if f.MinLevel != nil {
		level, err := ParseLevel(rec.Level)
		if err != nil || level < f.MinLevel.Level() {
			return false
		}
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	if f.SessionID != "" && rec.SessionID != f.SessionID {
		return false
	}
	return true
}

// Format renders a record as a single human-readable line.
func Format(rec Record) string {
	var b strings.Builder
	if rec.Time != "" {
		b.WriteString(rec.Time)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(rec.Level))
	if rec.Component != "" {
		fmt.Fprintf(&b, " [%s]", rec.Component)
	}
	b.WriteByte(' ')
	b.WriteString(rec.Message)
	if rec.SessionID != "" {
		fmt.Fprintf(&b, " session=%s", rec.SessionID)
	}
	keys := make([]string, 0, len(rec.Attrs))
	for key := range rec.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec.Attrs[key])
	}
	return b.String()
}
