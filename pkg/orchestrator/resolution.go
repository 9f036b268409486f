package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-hydrate/pkg/syntax"
)

// resolveTemplate returns a private copy of the request's template so
// transformers never touch caller data.
func (o *Orchestrator) resolveTemplate(req Request) (*syntax.Template, error) {
	switch {
	case req.Template != nil:
		clone := *req.Template
		clone.Locals = append([]string(nil), req.Template.Locals...)
		clone.Statements = append([]syntax.Statement(nil), req.Template.Statements...)
		return &clone, nil
	case len(req.Source) > 0:
		tmpl, err := syntax.Load(req.Source, templateLabel(req))
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load template: %w", err)
		}
		return tmpl, nil
	case req.Name != "":
		if o.templates == nil {
			return nil, fmt.Errorf("orchestrator: template %q: no template filesystem configured", req.Name)
		}
		tmpl, err := syntax.LoadFS(o.templates, req.Name)
		if err != nil {
			available, _ := syntax.List(o.templates)
			return nil, fmt.Errorf("orchestrator: load template (available: %s): %w", formatNames(available), err)
		}
		return tmpl, nil
	default:
		return nil, errors.New("orchestrator: template, source or name is required")
	}
}

// Templates lists the template documents in the configured filesystem.
func (o *Orchestrator) Templates() ([]string, error) {
	if o.templates == nil {
		return nil, nil
	}
	return syntax.List(o.templates)
}

func templateLabel(req Request) string {
	switch {
	case req.Name != "":
		return req.Name
	case req.Template != nil && req.Template.Name != "":
		return req.Template.Name
	default:
		return "inline template"
	}
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
