package render

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidHelper reports a registration without a name or function.
	ErrInvalidHelper = errors.New("invalid helper")
	// ErrHelperExists reports a duplicate registration.
	ErrHelperExists = errors.New("helper already registered")
	// ErrHelperNotFound reports a lookup of an unknown helper.
	ErrHelperNotFound = errors.New("helper not found")
	// ErrMissingTranslator is passed to MissingTranslationHandler when no
	// Translator was configured.
	ErrMissingTranslator = errors.New("render: translator is not configured")
	// ErrUnknownPolicy reports a sanitizer policy name SanitizePolicy does not
	// know.
	ErrUnknownPolicy = errors.New("render: unknown sanitizer policy")
)

// ArgumentError reports a helper called with arguments it cannot use.
type ArgumentError struct {
	Helper string
	Reason string
}

func (e *ArgumentError) Error() string {
	return "render: " + e.Helper + ": " + e.Reason
}

// NormalizeMessages trims messages and drops blanks and duplicates while
// preserving order. Diagnostics collected across a render go through it
// before they are reported.
func NormalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// MergeMessages concatenates and normalises message slices.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return NormalizeMessages(combined)
}
