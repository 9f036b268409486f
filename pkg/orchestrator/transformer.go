package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-hydrate/pkg/syntax"
)

// Transformer rewrites a decoded template before it is compiled.
type Transformer interface {
	Transform(ctx context.Context, tmpl *syntax.Template) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, tmpl *syntax.Template) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, tmpl *syntax.Template) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, tmpl)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, tmpl *syntax.Template) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, tmpl); err != nil {
				return err
			}
		}
		return nil
	})
}

// PresetTransformer applies a declarative preset loaded from YAML or JSON:
//
//	locals: [user]
//	prepend:
//	  - element: {tag: header, body: [{text: "Top"}]}
//	append:
//	  - text: "footer"
//	wrap:
//	  tag: main
//	  attrs: {class: page}
//
// Statements use the template document syntax. wrap moves the resulting body
// into a single element.
type PresetTransformer struct {
	locals  []string
	prepend []syntax.Statement
	append  []syntax.Statement
	wrap    *presetWrap
}

type presetDocument struct {
	Locals  []string    `yaml:"locals"`
	Prepend yaml.Node   `yaml:"prepend"`
	Append  yaml.Node   `yaml:"append"`
	Wrap    *presetWrap `yaml:"wrap"`
}

type presetWrap struct {
	Tag   string            `yaml:"tag"`
	Attrs map[string]string `yaml:"attrs"`
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	if document.Wrap != nil && strings.TrimSpace(document.Wrap.Tag) == "" {
		return nil, errors.New("preset transformer: wrap tag is required")
	}

	prepend, err := presetStatements(&document.Prepend, "prepend")
	if err != nil {
		return nil, err
	}
	appendix, err := presetStatements(&document.Append, "append")
	if err != nil {
		return nil, err
	}
	return &PresetTransformer{
		locals:  document.Locals,
		prepend: prepend,
		append:  appendix,
		wrap:    document.Wrap,
	}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// presetStatements decodes a statement list by handing it to the template
// loader as a document of its own.
func presetStatements(node *yaml.Node, section string) ([]syntax.Statement, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	doc, err := yaml.Marshal(map[string]any{"statements": node})
	if err != nil {
		return nil, fmt.Errorf("preset transformer: %s: %w", section, err)
	}
	tmpl, err := syntax.Load(doc, "preset "+section)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: %w", err)
	}
	return tmpl.Statements, nil
}

// Transform applies the preset onto tmpl.
func (t *PresetTransformer) Transform(ctx context.Context, tmpl *syntax.Template) error {
	if tmpl == nil {
		return errors.New("preset transformer: template is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpl.Locals = mergeNames(tmpl.Locals, t.locals)

	body := make([]syntax.Statement, 0, len(t.prepend)+len(tmpl.Statements)+len(t.append))
	body = append(body, t.prepend...)
	body = append(body, tmpl.Statements...)
	body = append(body, t.append...)

	if t.wrap != nil {
		keys := make([]string, 0, len(t.wrap.Attrs))
		for key := range t.wrap.Attrs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		attrs := make([]syntax.Attr, 0, len(keys))
		for _, key := range keys {
			attrs = append(attrs, syntax.Attr{Name: key, Value: syntax.Lit(t.wrap.Attrs[key])})
		}
		body = []syntax.Statement{&syntax.Element{Tag: t.wrap.Tag, Attrs: attrs, Body: body}}
	}
	tmpl.Statements = body
	return nil
}

func mergeNames(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, name := range dst {
		seen[name] = struct{}{}
	}
	for _, name := range src {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		dst = append(dst, name)
	}
	return dst
}
