package gotemplate

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-hydrate/pkg/render/template"
)

var _ template.TemplateRenderer = (*gotemplatepkg.Engine)(nil)

// Option configures the shell engine.
type Option func(*engineConfig)

type engineConfig struct {
	dir     string
	files   fs.FS
	globals map[string]any
}

// WithShellDir loads shell templates from dir ahead of the embedded ones, so
// a page.tpl there replaces the default shell while other names fall back.
func WithShellDir(dir string) Option {
	return func(cfg *engineConfig) {
		cfg.dir = strings.TrimSpace(dir)
	}
}

// WithShellFS replaces the embedded shell templates.
func WithShellFS(files fs.FS) Option {
	return func(cfg *engineConfig) {
		if files != nil {
			cfg.files = files
		}
	}
}

// WithGlobals seeds values every shell template sees. Page fields win on
// conflicting names.
func WithGlobals(values map[string]any) Option {
	return func(cfg *engineConfig) {
		if len(values) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(values))
		}
		for key, value := range values {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// NewEngine builds the go-template renderer shells render through. It carries
// the cssvars filter next to the trim and lowerfirst filters go-template
// registers by default.
func NewEngine(options ...Option) (*gotemplatepkg.Engine, error) {
	cfg := engineConfig{files: ShellFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	opts := []gotemplatepkg.Option{
		gotemplatepkg.WithFS(cfg.files),
		gotemplatepkg.WithTemplateFunc(map[string]any{
			"cssvars": pongo2.FilterFunction(filterCSSVars),
		}),
	}
	if cfg.dir != "" {
		opts = append(opts, gotemplatepkg.WithBaseDir(cfg.dir))
	}
	if len(cfg.globals) > 0 {
		opts = append(opts, gotemplatepkg.WithGlobalData(cfg.globals))
	}

	engine, err := gotemplatepkg.NewRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: shell engine: %w", err)
	}
	return engine, nil
}
