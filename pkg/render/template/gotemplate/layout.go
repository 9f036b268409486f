package gotemplate

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/render/template"
)

//go:embed templates/*.tpl
var shellTemplates embed.FS

// DefaultTemplate is the name of the embedded document shell.
const DefaultTemplate = "page"

// ShellFS returns the embedded shell templates, for callers that want to
// extend or override them on their own engine.
func ShellFS() fs.FS {
	sub, err := fs.Sub(shellTemplates, "templates")
	if err != nil {
		panic(fmt.Sprintf("gotemplate: embedded templates: %v", err))
	}
	return sub
}

// LayoutOption configures a Layout.
type LayoutOption func(*Layout)

// WithRenderer renders through renderer instead of an engine over the
// embedded shell.
func WithRenderer(renderer template.TemplateRenderer) LayoutOption {
	return func(l *Layout) {
		if renderer != nil {
			l.renderer = renderer
		}
	}
}

// WithEngineOptions configures the go-template engine built when no
// renderer is supplied.
func WithEngineOptions(options ...Option) LayoutOption {
	return func(l *Layout) {
		l.engineOptions = append(l.engineOptions, options...)
	}
}

// WithTemplateName selects the shell template.
func WithTemplateName(name string) LayoutOption {
	return func(l *Layout) {
		if name = strings.TrimSpace(name); name != "" {
			l.template = name
		}
	}
}

// WithDefaultLocale sets the document language used when a request does not
// name one.
func WithDefaultLocale(locale string) LayoutOption {
	return func(l *Layout) {
		l.locale = strings.TrimSpace(locale)
	}
}

// Layout implements render.Layout by rendering a page shell template with
// the page fields in context:
//
//	title, body, mode, lang, theme_name, theme_variant, css_vars, state
type Layout struct {
	renderer      template.TemplateRenderer
	engineOptions []Option
	template      string
	locale        string
}

var _ render.Layout = (*Layout)(nil)

// NewLayout builds a Layout. Without WithRenderer it renders the embedded
// shell.
func NewLayout(options ...LayoutOption) (*Layout, error) {
	l := &Layout{template: DefaultTemplate, locale: "en"}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	if l.renderer == nil {
		engine, err := NewEngine(l.engineOptions...)
		if err != nil {
			return nil, err
		}
		l.renderer = engine
	}
	return l, nil
}

func (l *Layout) Name() string {
	return "gotemplate"
}

func (l *Layout) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render wraps page.Body in the shell.
func (l *Layout) Render(ctx context.Context, page render.Page, options render.RenderOptions) ([]byte, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	data, err := l.context(page, options)
	if err != nil {
		return nil, err
	}
	name := l.template
	if options.Template != "" {
		name = options.Template
	}
	out, err := l.renderer.RenderTemplate(name, data)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: layout %q: %w", name, err)
	}
	return []byte(out), nil
}

func (l *Layout) context(page render.Page, options render.RenderOptions) (map[string]any, error) {
	lang := options.Locale
	if lang == "" {
		lang = l.locale
	}
	data := map[string]any{
		"title":         page.Title,
		"body":          page.Body,
		"mode":          page.Mode,
		"lang":          lang,
		"theme_name":    page.ThemeName,
		"theme_variant": page.ThemeVariant,
		"css_vars":      stringMap(page.CSSVars),
		"state":         "",
	}
	if options.EmbedState && page.State != nil {
		payload, err := json.Marshal(page.State)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: encode state: %w", err)
		}
		data["state"] = string(payload)
	}
	for key, value := range options.Values {
		data[key] = value
	}
	return data, nil
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
