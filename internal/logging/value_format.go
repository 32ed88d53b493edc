package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// attrString returns the bare text of v for use in the console line prefix.
func attrString(v slog.Value) string {
	text, _ := valueText(v)
	return text
}

// formatValue renders v for the key=value tail, quoting text that would
// otherwise be ambiguous to split.
func formatValue(v slog.Value) string {
	text, quotable := valueText(v)
	if quotable && needsQuotes(text) {
		return strconv.Quote(text)
	}
	return text
}

// valueText reports the text of v and whether it is free-form text that may
// need quoting. Numbers, bools, durations and times never do.
func valueText(v slog.Value) (string, bool) {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool()), false
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10), false
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10), false
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64), false
	case slog.KindDuration:
		return v.Duration().String(), false
	case slog.KindTime:
		return formatTimestamp(v.Time()), false
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error(), true
		}
		return fmt.Sprint(v.Any()), true
	default:
		return v.String(), true
	}
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}

// formatTimestamp matches the RFC 3339 UTC stamps written to the JSON log.
func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
