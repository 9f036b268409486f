package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-hydrate/internal/logging"
	"github.com/goliatone/go-hydrate/pkg/builder"
	"github.com/goliatone/go-hydrate/pkg/compiler"
	"github.com/goliatone/go-hydrate/pkg/dom"
	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/render/template/gotemplate"
	"github.com/goliatone/go-hydrate/pkg/syntax"
	"github.com/goliatone/go-hydrate/pkg/vm"
	"github.com/goliatone/go-hydrate/pkg/wire"
)

const defaultLayoutName = "gotemplate"

// Mode selects the builder a render runs through.
type Mode string

const (
	// ModeSerialize renders markup carrying rehydration markers.
	ModeSerialize Mode = "serialize"
	// ModeLive renders plain markup into a fresh tree.
	ModeLive Mode = "live"
	// ModeRehydrate reuses server markup produced by ModeSerialize.
	ModeRehydrate Mode = "rehydrate"
)

// ParseMode validates a mode name. An empty name is ModeSerialize.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModeSerialize:
		return ModeSerialize, nil
	case ModeLive:
		return ModeLive, nil
	case ModeRehydrate:
		return ModeRehydrate, nil
	}
	return "", fmt.Errorf("orchestrator: unknown mode %q", name)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLogger routes pipeline, builder and engine logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.OrDiscard(logger)
	}
}

// WithHelpers injects the helper registry shared by every render.
func WithHelpers(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.helpers = registry
	}
}

// WithTranslator registers the translation helpers on the helper registry.
func WithTranslator(t render.Translator, cfg render.I18nConfig) Option {
	return func(o *Orchestrator) {
		o.translator = t
		o.i18n = &cfg
	}
}

// WithSanitizePolicy names the bluemonday policy applied to trusting
// appends. See render.SanitizePolicy.
func WithSanitizePolicy(name string) Option {
	return func(o *Orchestrator) {
		o.sanitizePolicy = name
	}
}

// WithLayouts injects a layout registry.
func WithLayouts(registry *LayoutRegistry) Option {
	return func(o *Orchestrator) {
		o.layouts = registry
	}
}

// WithShell configures the built-in gotemplate layout. It has no effect
// when WithLayouts supplies the registry.
func WithShell(options ...gotemplate.LayoutOption) Option {
	return func(o *Orchestrator) {
		o.shell = append(o.shell, options...)
	}
}

// WithDefaultLayout names the layout used when a request asks for a page
// without naming a layout.
func WithDefaultLayout(name string) Option {
	return func(o *Orchestrator) {
		o.defaultLayout = name
	}
}

// WithTemplateFS supplies the filesystem Request.Name is resolved against.
func WithTemplateFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.templates = fsys
	}
}

// WithScope sets the compile scope every template is compiled in.
func WithScope(scope compiler.Scope) Option {
	return func(o *Orchestrator) {
		o.scope = scope
	}
}

// WithKeywords adds strict keywords to the compile scope.
func WithKeywords(names ...string) Option {
	return func(o *Orchestrator) {
		o.scope.Keywords = append(o.scope.Keywords, names...)
	}
}

// WithTransformer registers a Transformer run on every decoded template
// before compilation.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithThemeSelector resolves theme and variant choices ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeManifests selects among manifests with a ManifestSelector.
func WithThemeManifests(manifests ...*theme.Manifest) Option {
	return func(o *Orchestrator) {
		o.themeSelector = NewManifestSelector(manifests...)
	}
}

// WithThemeDefaults sets the theme and variant used when a request names
// none.
func WithThemeDefaults(name, variant string) Option {
	return func(o *Orchestrator) {
		o.defaultTheme = name
		o.defaultVariant = variant
	}
}

// WithThemeFallbacks seeds partials missing from the selected theme.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = mergeStrings(nil, fallbacks)
	}
}

// Orchestrator runs the template pipeline: decode, transform, compile,
// lower, execute through the builder the mode selects, and optionally wrap
// the markup in a page layout. Compiled programs of named templates are
// cached, so an Orchestrator is meant to be long lived and shared.
type Orchestrator struct {
	logger         *slog.Logger
	helpers        *render.Registry
	translator     render.Translator
	i18n           *render.I18nConfig
	sanitizePolicy string
	sanitize       func(string) string
	layouts        *LayoutRegistry
	shell          []gotemplate.LayoutOption
	defaultLayout  string
	templates      fs.FS
	scope          compiler.Scope
	transformer    Transformer
	themeSelector  theme.ThemeSelector
	defaultTheme   string
	defaultVariant string
	themeFallbacks map[string]string

	mu       sync.RWMutex
	compiled map[string]*Compiled

	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        logging.Discard(),
		defaultLayout: defaultLayoutName,
		compiled:      make(map[string]*Compiled),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one render.
type Request struct {
	// Template is an already decoded template.
	Template *syntax.Template
	// Source is a raw template document, used when Template is nil.
	Source []byte
	// Name locates the template in the configured filesystem when neither
	// Template nor Source is set. It labels the template otherwise.
	Name string

	// Mode selects the builder. Defaults to ModeSerialize.
	Mode Mode
	// Markup is the server markup ModeRehydrate reuses.
	Markup string
	// Data is what the template renders.
	Data vm.Data

	// Page wraps the output in a layout.
	Page bool
	// Layout names the layout. Setting it implies Page.
	Layout string
	// Title is the page title.
	Title string
	// RenderOptions are passed to the layout.
	RenderOptions render.RenderOptions

	// ThemeName and ThemeVariant override the configured defaults.
	ThemeName    string
	ThemeVariant string
}

// Compiled is a template in both its wire and executable forms.
type Compiled struct {
	Template *wire.Template
	Program  *vm.Program
}

// Result is the outcome of Generate.
type Result struct {
	Mode Mode
	// Body is the rendered markup of the template alone.
	Body string
	// Output is Body, or the page produced by the layout.
	Output []byte
	// ContentType describes Output.
	ContentType string

	Compiled *Compiled
	Document *dom.Document
	Root     *dom.Node
	// Render keeps the updating program; call Rerender after changing data
	// through Render.Graph().
	Render *vm.Result
	// Stats is populated by ModeRehydrate.
	Stats builder.Stats
	// Changes counts the tree mutations of the render.
	Changes dom.Changes
	Theme   *theme.RendererConfig
	// Warnings are non fatal observations about the render.
	Warnings []string
}

// Compile decodes, transforms and compiles the template a request names.
func (o *Orchestrator) Compile(ctx context.Context, req Request) (*Compiled, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	return o.compile(ctx, req)
}

// Generate executes the whole pipeline for req.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}

	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	compiled, err := o.compile(ctx, req)
	if err != nil {
		return nil, err
	}

	themeCfg, err := o.resolveTheme(req)
	if err != nil {
		return nil, err
	}

	data := req.Data
	if themeCfg != nil {
		data.Env = withEnv(data.Env, "theme", themeEnv(themeCfg))
	}

	doc, root, b, err := o.newBuilder(mode, req.Markup)
	if err != nil {
		return nil, err
	}

	machine := vm.New(compiled.Program,
		vm.WithHelpers(o.helpers),
		vm.WithSanitizer(o.sanitize),
		vm.WithLogger(o.logger),
	)
	rendered, err := machine.Render(ctx, b, data)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render %s: %w", templateLabel(req), err)
	}

	result := &Result{
		Mode:        mode,
		Body:        dom.InnerHTML(root),
		ContentType: "text/html; charset=utf-8",
		Compiled:    compiled,
		Document:    doc,
		Root:        root,
		Render:      rendered,
		Stats:       b.Stats(),
		Changes:     doc.Changes(),
		Theme:       themeCfg,
	}
	result.Warnings = rehydrationWarnings(mode, result.Stats)
	result.Output = []byte(result.Body)

	o.logger.Debug("template rendered",
		"template", templateLabel(req),
		"mode", string(mode),
		"created", result.Changes.Created,
		"reused", result.Stats.Reused,
		"mismatches", result.Stats.Mismatches,
	)

	if req.Page || req.Layout != "" {
		if err := o.applyLayout(ctx, req, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !o.defaultsApplied {
		o.applyDefaults()
	}
	return o.initialiseErr
}

func (o *Orchestrator) compile(ctx context.Context, req Request) (*Compiled, error) {
	cacheable := req.Template == nil && len(req.Source) == 0 && req.Name != ""
	if cacheable {
		o.mu.RLock()
		compiled, ok := o.compiled[req.Name]
		o.mu.RUnlock()
		if ok {
			return compiled, nil
		}
	}

	tmpl, err := o.resolveTemplate(req)
	if err != nil {
		return nil, err
	}
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, tmpl); err != nil {
			return nil, fmt.Errorf("orchestrator: transform template: %w", err)
		}
	}

	wireTemplate, err := compiler.CompileTemplate(tmpl, o.scope)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: compile %s: %w", templateLabel(req), err)
	}
	program, err := vm.Lower(wireTemplate)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: lower %s: %w", templateLabel(req), err)
	}
	compiled := &Compiled{Template: wireTemplate, Program: program}

	if cacheable {
		o.mu.Lock()
		o.compiled[req.Name] = compiled
		o.mu.Unlock()
	}
	return compiled, nil
}

func (o *Orchestrator) newBuilder(mode Mode, markup string) (*dom.Document, *dom.Node, *builder.ElementBuilder, error) {
	options := []builder.Option{builder.WithLogger(o.logger)}
	switch mode {
	case ModeRehydrate:
		if strings.TrimSpace(markup) == "" {
			return nil, nil, nil, errors.New("orchestrator: rehydrate requires server markup")
		}
		doc, root, err := dom.ParseString(markup)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("orchestrator: parse server markup: %w", err)
		}
		b, err := builder.NewRehydrating(doc, root, nil, options...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("orchestrator: rehydrate: %w", err)
		}
		return doc, root, b, nil
	case ModeLive:
		doc := dom.NewDocument()
		root := doc.CreateFragment()
		return doc, root, builder.NewLive(doc, root, nil, options...), nil
	default:
		doc := dom.NewDocument()
		root := doc.CreateFragment()
		return doc, root, builder.NewSerializing(doc, root, nil, options...), nil
	}
}

func (o *Orchestrator) resolveTheme(req Request) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	name := req.ThemeName
	if name == "" {
		name = o.defaultTheme
	}
	variant := req.ThemeVariant
	if variant == "" {
		variant = o.defaultVariant
	}
	selection, err := o.themeSelector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	if selection == nil {
		return nil, nil
	}
	return rendererConfig(selection, o.themeFallbacks), nil
}

func (o *Orchestrator) applyLayout(ctx context.Context, req Request, result *Result) error {
	layout, err := o.layoutFor(req.Layout)
	if err != nil {
		return err
	}

	page := render.Page{
		Title: req.Title,
		Body:  result.Body,
		Mode:  string(result.Mode),
		State: req.Data.Self,
	}
	if cfg := result.Theme; cfg != nil {
		page.ThemeName = cfg.Theme
		page.ThemeVariant = cfg.Variant
		page.CSSVars = cfg.CSSVars
	}

	out, err := layout.Render(ctx, page, req.RenderOptions)
	if err != nil {
		return fmt.Errorf("orchestrator: layout %q: %w", layout.Name(), err)
	}
	result.Output = out
	result.ContentType = layout.ContentType()
	return nil
}

func (o *Orchestrator) layoutFor(name string) (render.Layout, error) {
	if o.layouts == nil {
		return nil, errors.New("orchestrator: layout registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultLayout
	}
	layout, err := o.layouts.Get(target)
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}
	o.defaultsApplied = true

	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.helpers == nil {
		o.helpers = render.NewDefaultRegistry()
	}
	if o.i18n != nil {
		if err := o.helpers.Merge(render.I18nHelpers(o.translator, *o.i18n)); err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: translation helpers: %w", err)
			return
		}
	}

	policy, err := render.SanitizePolicy(o.sanitizePolicy)
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: sanitizer: %w", err)
		return
	}
	o.sanitize = render.Sanitizer(policy)

	if o.layouts == nil {
		o.layouts = NewLayoutRegistry()
		layout, err := gotemplate.NewLayout(o.shell...)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default layout: %w", err)
			return
		}
		o.layouts.MustRegister(layout)
	}
	if o.defaultLayout == "" {
		o.defaultLayout = defaultLayoutName
	}
}

func withEnv(env map[string]any, key string, value any) map[string]any {
	if _, exists := env[key]; exists {
		return env
	}
	out := make(map[string]any, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	out[key] = value
	return out
}

func rehydrationWarnings(mode Mode, stats builder.Stats) []string {
	if mode != ModeRehydrate {
		return nil
	}
	var warnings []string
	if stats.Mismatches > 0 {
		warnings = append(warnings, fmt.Sprintf("rehydrate: %d server nodes did not match and were rebuilt", stats.Mismatches))
	}
	if stats.Reused == 0 {
		warnings = append(warnings, "rehydrate: no server nodes were reused")
	}
	return render.NormalizeMessages(warnings)
}
