package gotemplate_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/render/template/gotemplate"
)

func TestLayout_RendersShell(t *testing.T) {
	layout, err := gotemplate.NewLayout()
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}

	out, err := layout.Render(context.Background(), render.Page{
		Title:        "Cards & lists",
		Body:         `<!--%+b:0%--><p>hi</p><!--%-b:0%-->`,
		Mode:         "serialize",
		ThemeName:    "acme",
		ThemeVariant: "dark",
		CSSVars:      map[string]string{"--brand": "#123456", "--accent": "red"},
		State:        map[string]any{"name": "</script>"},
	}, render.RenderOptions{Locale: "es", EmbedState: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html := string(out)
	for _, want := range []string{
		`<html lang="es" style="--accent: red; --brand: #123456">`,
		`<title>Cards &amp; lists</title>`,
		`<div id="app" data-render-mode="serialize" data-theme="acme" data-theme-variant="dark"><!--%+b:0%--><p>hi</p><!--%-b:0%--></div>`,
		`<script type="application/json" id="hydrate-state">{"name":"\u003c/script\u003e"}</script>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("layout output missing %q:\n%s", want, html)
		}
	}
	if layout.ContentType() != "text/html; charset=utf-8" || layout.Name() != "gotemplate" {
		t.Fatalf("unexpected layout identity %s %s", layout.Name(), layout.ContentType())
	}
}

func TestLayout_OmitsOptionalParts(t *testing.T) {
	layout, err := gotemplate.NewLayout(gotemplate.WithDefaultLocale("fr"))
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}

	out, err := layout.Render(context.Background(), render.Page{Body: "x", Mode: "live", State: map[string]any{"a": 1}}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `<html lang="fr">`) {
		t.Fatalf("expected default locale without style:\n%s", html)
	}
	if strings.Contains(html, "data-theme") || strings.Contains(html, "hydrate-state") {
		t.Fatalf("unexpected optional parts:\n%s", html)
	}
}

func TestLayout_CustomTemplateAndValues(t *testing.T) {
	shell := fstest.MapFS{
		"banner.tpl": {Data: []byte("{{ banner }}|{{ site }}|{{ body|safe }}")},
	}
	layout, err := gotemplate.NewLayout(
		gotemplate.WithTemplateName("banner"),
		gotemplate.WithEngineOptions(
			gotemplate.WithShellFS(shell),
			gotemplate.WithGlobals(map[string]any{"site": "Docs", "banner": "global"}),
		),
	)
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}

	out, err := layout.Render(context.Background(), render.Page{Body: "<b>x</b>"}, render.RenderOptions{
		Values: map[string]any{"banner": "hello"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "hello|Docs|<b>x</b>" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := layout.Render(context.Background(), render.Page{}, render.RenderOptions{Template: "missing"}); err == nil {
		t.Fatalf("expected error for unknown shell template")
	}
}

func TestLayout_ShellDirOverridesEmbeddedShell(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.tpl"), []byte(`<main lang="{{ lang }}">{{ body|safe }}</main>`), 0o644); err != nil {
		t.Fatalf("write shell: %v", err)
	}
	layout, err := gotemplate.NewLayout(gotemplate.WithEngineOptions(gotemplate.WithShellDir(dir)))
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}

	out, err := layout.Render(context.Background(), render.Page{Body: "<p>hi</p>"}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != `<main lang="en"><p>hi</p></main>` {
		t.Fatalf("unexpected output %q", out)
	}
}

type recordingRenderer struct {
	name string
	data any
}

func (r *recordingRenderer) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	r.name, r.data = name, data
	return "ok", nil
}

func TestLayout_WithRenderer(t *testing.T) {
	renderer := &recordingRenderer{}
	layout, err := gotemplate.NewLayout(gotemplate.WithRenderer(renderer))
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}
	out, err := layout.Render(context.Background(), render.Page{Title: "T", Body: "b"}, render.RenderOptions{Template: "alt"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "ok" || renderer.name != "alt" {
		t.Fatalf("unexpected render %q via %q", out, renderer.name)
	}
	data, ok := renderer.data.(map[string]any)
	if !ok || data["title"] != "T" || data["body"] != "b" || data["lang"] != "en" {
		t.Fatalf("unexpected shell data %#v", renderer.data)
	}
}

func TestLayout_CanceledContext(t *testing.T) {
	layout, err := gotemplate.NewLayout()
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := layout.Render(ctx, render.Page{}, render.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
