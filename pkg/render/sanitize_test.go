package render_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-hydrate/pkg/render"
)

func TestSanitizePolicy(t *testing.T) {
	ugc, err := render.SanitizePolicy("ugc")
	if err != nil {
		t.Fatalf("ugc: %v", err)
	}
	cleaned := render.Sanitizer(ugc)(`<b onclick="x()">bold</b><script>alert(1)</script>`)
	if cleaned != "<b>bold</b>" {
		t.Fatalf("ugc sanitize: got %q", cleaned)
	}

	strict, _ := render.SanitizePolicy("strict")
	if got := render.Sanitizer(strict)("<em>x</em>"); got != "x" {
		t.Fatalf("strict sanitize: got %q", got)
	}

	icons, _ := render.SanitizePolicy("icons")
	svg := render.Sanitizer(icons)(`<svg viewBox="0 0 1 1" onload="x()"><path d="M0"></path></svg><p>no</p>`)
	if strings.Contains(svg, "onload") || strings.Contains(svg, "<p>") || !strings.Contains(svg, `<path d="M0">`) {
		t.Fatalf("icons sanitize: got %q", svg)
	}
}

func TestSanitizePolicy_NoneAndUnknown(t *testing.T) {
	policy, err := render.SanitizePolicy("none")
	if err != nil || policy != nil {
		t.Fatalf("none: policy=%v err=%v", policy, err)
	}
	if render.Sanitizer(nil) != nil {
		t.Fatalf("nil policy should produce nil sanitizer")
	}
	if _, err := render.SanitizePolicy("lax"); !errors.Is(err, render.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}
