package template_test

import (
	"embed"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-hydrate/pkg/render/template/gotemplate"
	"github.com/goliatone/go-hydrate/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func assertRendered(t *testing.T, golden string, render func(io.Writer) (string, error)) {
	t.Helper()

	result, written := testsupport.CaptureOutput(t, render)
	path := filepath.Join("testdata", golden)
	if testsupport.WriteMaybeGolden(t, path, []byte(result)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, path)
	if result != want {
		t.Fatalf("render mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestShellEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)
	assertRendered(t, "hello.golden", func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
}

func TestShellEngine_StructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)
	assertRendered(t, "hello.golden", func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello.tpl", struct {
			Name string `json:"name"`
		}{Name: "Ada"}, w)
	})
}

func TestShellEngine_Globals(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobals(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))
	assertRendered(t, "use-global.golden", func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})
}

func TestShellEngine_DefaultFilters(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobals(map[string]any{"greeting": "Hi"}))

	got, err := engine.RenderTemplate("page-fn", map[string]any{"name": "  Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hi,   ada" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestShellEngine_DirFallsBackToFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.tpl"), []byte("Hey {{ name }}"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	engine := newEngine(t, gotemplate.WithShellDir(dir))

	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hey Ada" {
		t.Fatalf("expected directory template to win, got %q", got)
	}

	got, err = engine.RenderTemplate("use-global", map[string]any{"settings": map[string]any{"env": "dev"}})
	if err != nil {
		t.Fatalf("render fallback: %v", err)
	}
	if got != "env=dev" {
		t.Fatalf("unexpected fallback output %q", got)
	}
}

func TestShellEngine_EmbeddedShellByDefault(t *testing.T) {
	engine, err := gotemplate.NewEngine()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got, err := engine.RenderTemplate(gotemplate.DefaultTemplate, map[string]any{
		"lang":     "en",
		"body":     "<p>x</p>",
		"css_vars": map[string]any{"brand": "teal"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, `<html lang="en" style="--brand: teal">`) || !strings.Contains(got, "<p>x</p>") {
		t.Fatalf("unexpected shell output:\n%s", got)
	}
}

func newEngine(t *testing.T, options ...gotemplate.Option) *gotemplatepkg.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.NewEngine(append([]gotemplate.Option{gotemplate.WithShellFS(templatesFS)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
