package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policy names accepted by SanitizePolicy.
const (
	PolicyNone   = "none"
	PolicyUGC    = "ugc"
	PolicyStrict = "strict"
	PolicyIcons  = "icons"
)

var (
	iconPolicyOnce sync.Once
	iconPolicy     *bluemonday.Policy
)

// SanitizePolicy returns the bluemonday policy registered under name. An
// empty name or PolicyNone returns nil, which disables sanitizing.
func SanitizePolicy(name string) (*bluemonday.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyNone:
		return nil, nil
	case PolicyUGC:
		return bluemonday.UGCPolicy(), nil
	case PolicyStrict:
		return bluemonday.StrictPolicy(), nil
	case PolicyIcons:
		return iconSanitizer(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Sanitizer adapts policy to the function vm.WithSanitizer expects. A nil
// policy yields nil.
func Sanitizer(policy *bluemonday.Policy) func(string) string {
	if policy == nil {
		return nil
	}
	return policy.Sanitize
}

// iconSanitizer allows inline SVG icons and nothing else.
func iconSanitizer() *bluemonday.Policy {
	iconPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"svg", "g", "path", "circle", "rect", "line", "polyline", "polygon",
			"ellipse", "title", "desc", "defs", "use", "clipPath",
		)
		policy.AllowAttrs(
			"xmlns", "viewBox", "width", "height", "fill", "stroke",
			"stroke-width", "stroke-linecap", "stroke-linejoin", "aria-hidden",
			"role", "focusable", "class",
		).OnElements("svg")
		policy.AllowAttrs("href", "xlink:href", "clip-path").OnElements("use")
		for _, el := range []string{"path", "circle", "rect", "line", "polyline", "polygon", "ellipse"} {
			policy.AllowAttrs(
				"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2",
				"points", "rx", "ry", "fill", "stroke", "stroke-width", "class",
			).OnElements(el)
		}
		policy.AllowAttrs("id").OnElements("clipPath", "defs", "g")
		iconPolicy = policy
	})
	return iconPolicy
}
