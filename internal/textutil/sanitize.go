package textutil

import (
	"strings"
	"unicode"
)

// SanitizeToken converts a string to a lowercase token safe for file names and
// object keys. Letters are lowercased, digits and hyphens/underscores are kept,
// everything else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// Truncate returns at most limit runes of value with surrounding whitespace
// removed. Runes are counted so multi-byte prompts are never split mid
// character.
func Truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace)
}

// CollapseSpace replaces every run of whitespace with a single space.
func CollapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
