package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-hydrate/pkg/dom"
	"github.com/goliatone/go-hydrate/pkg/orchestrator"
	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/syntax"
	"github.com/goliatone/go-hydrate/pkg/vm"
)

const cardTemplate = `
statements:
  - element:
      tag: div
      attrs:
        - {name: class, value: box}
        - {name: title, value: {path: this.title}}
      body:
        - append: this.name
        - text: "!"
`

func generate(t *testing.T, o *orchestrator.Orchestrator, req orchestrator.Request) *orchestrator.Result {
	t.Helper()
	result, err := o.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return result
}

func TestGenerate_Serialize(t *testing.T) {
	o := orchestrator.New()
	result := generate(t, o, orchestrator.Request{
		Source: []byte(cardTemplate),
		Data:   vm.Data{Self: map[string]any{"title": "T", "name": "Ada"}},
	})

	want := `<!--%+b:0%--><div class="box" title="T"><!--%+b:1%-->Ada<!--%-b:1%-->!</div><!--%-b:0%-->`
	if diff := cmp.Diff(want, result.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if string(result.Output) != result.Body {
		t.Fatalf("output without layout should equal body")
	}
	if result.Mode != orchestrator.ModeSerialize || result.Warnings != nil {
		t.Fatalf("unexpected mode %q or warnings %v", result.Mode, result.Warnings)
	}
}

func TestGenerate_RehydrateRoundTrip(t *testing.T) {
	o := orchestrator.New()
	server := generate(t, o, orchestrator.Request{
		Source: []byte(cardTemplate),
		Data:   vm.Data{Self: map[string]any{"title": "T", "name": "Ada"}},
	})

	self := map[string]any{"title": "T", "name": "Ada"}
	client := generate(t, o, orchestrator.Request{
		Source: []byte(cardTemplate),
		Mode:   orchestrator.ModeRehydrate,
		Markup: server.Body,
		Data:   vm.Data{Self: self},
	})

	if client.Changes.Created != 0 {
		t.Fatalf("expected zero creations, got %+v", client.Changes)
	}
	if client.Stats.Reused == 0 || client.Stats.Mismatches != 0 || client.Warnings != nil {
		t.Fatalf("unexpected stats %+v warnings %v", client.Stats, client.Warnings)
	}
	if diff := cmp.Diff(`<div class="box" title="T">Ada!</div>`, client.Body); diff != "" {
		t.Fatalf("rehydrated body mismatch (-want +got):\n%s", diff)
	}

	if err := client.Render.Graph().SetProp(self, "name", "Grace"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Render.Rerender(context.Background()); err != nil {
		t.Fatalf("rerender: %v", err)
	}
	if got := dom.InnerHTML(client.Root); got != `<div class="box" title="T">Grace!</div>` {
		t.Fatalf("rerendered markup %q", got)
	}
}

func TestGenerate_RehydrateEmptyValueIsQuiet(t *testing.T) {
	o := orchestrator.New()
	data := vm.Data{Self: map[string]any{"title": "T", "name": ""}}
	server := generate(t, o, orchestrator.Request{Source: []byte(cardTemplate), Data: data})
	if !strings.Contains(server.Body, "<!--% %-->") {
		t.Fatalf("expected an empty text marker in %q", server.Body)
	}

	client := generate(t, o, orchestrator.Request{
		Source: []byte(cardTemplate),
		Mode:   orchestrator.ModeRehydrate,
		Markup: server.Body,
		Data:   data,
	})
	if client.Stats.Mismatches != 0 || client.Warnings != nil {
		t.Fatalf("unexpected stats %+v warnings %v", client.Stats, client.Warnings)
	}
	if diff := cmp.Diff(`<div class="box" title="T">!</div>`, client.Body); diff != "" {
		t.Fatalf("rehydrated body mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_RehydrateMismatchWarns(t *testing.T) {
	o := orchestrator.New()
	result := generate(t, o, orchestrator.Request{
		Source: []byte(cardTemplate),
		Mode:   orchestrator.ModeRehydrate,
		Markup: `<!--%+b:0%--><span>stale</span><!--%-b:0%-->`,
		Data:   vm.Data{Self: map[string]any{"title": "T", "name": "Ada"}},
	})
	if diff := cmp.Diff(`<div class="box" title="T">Ada!</div>`, result.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "did not match") {
		t.Fatalf("expected mismatch warning, got %v", result.Warnings)
	}
}

func TestGenerate_RequestErrors(t *testing.T) {
	o := orchestrator.New()
	ctx := context.Background()

	if _, err := o.Generate(ctx, orchestrator.Request{}); err == nil {
		t.Fatalf("expected error without a template")
	}
	if _, err := o.Generate(ctx, orchestrator.Request{Source: []byte(cardTemplate), Mode: "stream"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := o.Generate(ctx, orchestrator.Request{Source: []byte(cardTemplate), Mode: orchestrator.ModeRehydrate}); err == nil {
		t.Fatalf("expected error for rehydrate without markup")
	}
	if _, err := o.Generate(ctx, orchestrator.Request{Source: []byte(cardTemplate), Mode: orchestrator.ModeRehydrate, Markup: "<p>no markers</p>"}); err == nil {
		t.Fatalf("expected error for markup without start marker")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := o.Generate(canceled, orchestrator.Request{Source: []byte(cardTemplate)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerate_NamedTemplatesAreCached(t *testing.T) {
	files := fstest.MapFS{
		"cards/card.yaml": {Data: []byte(cardTemplate)},
		"README.md":       {Data: []byte("ignored")},
	}
	o := orchestrator.New(orchestrator.WithTemplateFS(files))

	first, err := o.Compile(context.Background(), orchestrator.Request{Name: "cards/card.yaml"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := o.Compile(context.Background(), orchestrator.Request{Name: "cards/card.yaml"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached compilation")
	}

	names, err := o.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if diff := cmp.Diff([]string{"cards/card.yaml"}, names); diff != "" {
		t.Fatalf("template list mismatch (-want +got):\n%s", diff)
	}

	_, err = o.Compile(context.Background(), orchestrator.Request{Name: "missing.yaml"})
	if err == nil || !strings.Contains(err.Error(), "cards/card.yaml") {
		t.Fatalf("expected error listing available templates, got %v", err)
	}
}

func TestGenerate_HelpersAndTranslator(t *testing.T) {
	translator := render.TranslatorFunc(func(locale, key string, _ ...any) (string, error) {
		if locale == "es" && key == "greeting" {
			return "Hola", nil
		}
		return "", errors.New("missing")
	})
	o := orchestrator.New(orchestrator.WithTranslator(translator, render.I18nConfig{Locale: "es"}))

	result := generate(t, o, orchestrator.Request{
		Source: []byte(`
statements:
  - append: {call: {head: t, params: [{literal: greeting}]}}
  - text: " "
  - append: {call: {head: upper, params: [this.name]}}
`),
		Mode: orchestrator.ModeLive,
		Data: vm.Data{Self: map[string]any{"name": "ada"}},
	})
	if diff := cmp.Diff("Hola ADA", result.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_SanitizesTrustedAppends(t *testing.T) {
	o := orchestrator.New(orchestrator.WithSanitizePolicy(render.PolicyUGC))
	result := generate(t, o, orchestrator.Request{
		Source: []byte(`
statements:
  - element:
      tag: div
      body:
        - trusted: this.html
`),
		Mode: orchestrator.ModeLive,
		Data: vm.Data{Self: map[string]any{"html": `<b onclick="x()">hi</b>`}},
	})
	if diff := cmp.Diff(`<div><b>hi</b></div>`, result.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}

	if _, err := orchestrator.New(orchestrator.WithSanitizePolicy("lax")).Generate(context.Background(), orchestrator.Request{
		Source: []byte(cardTemplate),
	}); !errors.Is(err, render.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestGenerate_TransformerRunsBeforeCompile(t *testing.T) {
	preset, err := orchestrator.NewPresetTransformer([]byte(`
prepend:
  - text: "["
append:
  - text: "]"
wrap:
  tag: main
  attrs: {class: page}
`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	src, err := syntax.Load([]byte(`statements: [{text: body}]`), "inline")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	o := orchestrator.New(orchestrator.WithTransformer(preset))
	result := generate(t, o, orchestrator.Request{Template: src, Mode: orchestrator.ModeLive})
	if diff := cmp.Diff(`<main class="page">[body]</main>`, result.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if len(src.Statements) != 1 {
		t.Fatalf("transformer mutated the caller's template")
	}
}

func themeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456"},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files:  map[string]string{"stylesheet": "theme.css"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"brand": "#654321"},
				Assets: theme.Assets{Files: map[string]string{"vendor": "vendor.dark.js"}},
			},
		},
	}
}

func TestGenerate_ThemeTokensAndLayout(t *testing.T) {
	o := orchestrator.New(
		orchestrator.WithThemeManifests(themeManifest()),
		orchestrator.WithThemeDefaults("acme", "dark"),
	)
	result := generate(t, o, orchestrator.Request{
		Source: []byte(`
statements:
  - element:
      tag: p
      body:
        - append: theme.brand
`),
		Mode:  orchestrator.ModeLive,
		Page:  true,
		Title: "Themed",
	})

	if diff := cmp.Diff(`<p>#654321</p>`, result.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	cfg := result.Theme
	if cfg == nil || cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected theme config %+v", cfg)
	}
	if got := cfg.AssetURL("vendor"); got != "/assets/themes/acme/vendor.dark.js" {
		t.Fatalf("vendor asset url %q", got)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("stylesheet asset url %q", got)
	}

	page := string(result.Output)
	for _, want := range []string{
		`style="--brand: #654321"`,
		`<title>Themed</title>`,
		`data-theme="acme" data-theme-variant="dark"><p>#654321</p></div>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}
	if result.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("content type %q", result.ContentType)
	}
}

func TestGenerate_UnknownThemeFails(t *testing.T) {
	o := orchestrator.New(orchestrator.WithThemeManifests(themeManifest()))
	_, err := o.Generate(context.Background(), orchestrator.Request{
		Source:       []byte(cardTemplate),
		ThemeVariant: "neon",
	})
	if !errors.Is(err, orchestrator.ErrThemeNotFound) {
		t.Fatalf("expected ErrThemeNotFound, got %v", err)
	}
}

func TestGenerate_UnknownLayoutFails(t *testing.T) {
	o := orchestrator.New()
	_, err := o.Generate(context.Background(), orchestrator.Request{
		Source: []byte(cardTemplate),
		Layout: "missing",
	})
	if err == nil || !strings.Contains(err.Error(), `layout "missing" not found`) {
		t.Fatalf("expected missing layout error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]orchestrator.Mode{
		"":          orchestrator.ModeSerialize,
		"Serialize": orchestrator.ModeSerialize,
		"live":      orchestrator.ModeLive,
		"rehydrate": orchestrator.ModeRehydrate,
	} {
		got, err := orchestrator.ParseMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", input, got, err)
		}
	}
}
