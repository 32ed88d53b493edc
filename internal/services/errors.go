package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrSubmission       = errors.New("submission error")
	ErrNetwork          = errors.New("network error")
	ErrGenerationFailed = errors.New("generation failed")
	ErrMalformedResult  = errors.New("malformed result")
	ErrMergeFailed      = errors.New("merge failed")
	ErrPersistence      = errors.New("persistence error")
	ErrInvalidAction    = errors.New("invalid action")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// kinds is ordered so the most specific marker wins when an error carries
// several (for example a merge failure caused by a network error).
var kinds = []struct {
	marker error
	kind   string
}{
	{ErrValidation, "validation"},
	{ErrInvalidAction, "invalid_action"},
	{ErrMergeFailed, "merge_failed"},
	{ErrPersistence, "persistence"},
	{ErrGenerationFailed, "generation_failed"},
	{ErrMalformedResult, "malformed_result"},
	{ErrSubmission, "submission"},
	{ErrNetwork, "network"},
	{ErrConfiguration, "configuration"},
	{ErrNotFound, "not_found"},
}

// Kind returns a stable classification string for err, or "" when err is nil.
// Unclassified errors report "unknown".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.kind
		}
	}
	return "unknown"
}

// MarkerForKind returns the sentinel classified as kind, or nil for unknown
// kinds. It lets transports that only carry the kind string restore errors.Is
// behaviour on the far side.
func MarkerForKind(kind string) error {
	for _, k := range kinds {
		if k.kind == kind {
			return k.marker
		}
	}
	return nil
}

// IsFatal reports whether an error should move the orchestrator to Failed
// rather than being surfaced as a non-fatal flag.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMergeFailed), errors.Is(err, ErrPersistence), errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidAction):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
