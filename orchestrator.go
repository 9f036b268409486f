package hydrate

import (
	"context"
	"errors"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-hydrate/pkg/orchestrator"
	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/vm"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// Result aliases orchestrator.Result.
type Result = orchestrator.Result

// Data is what a template renders; alias of vm.Data.
type Data = vm.Data

// RenderOptions are the per-request layout overrides.
type RenderOptions = render.RenderOptions

// Mode aliases orchestrator.Mode.
type Mode = orchestrator.Mode

const (
	ModeSerialize = orchestrator.ModeSerialize
	ModeLive      = orchestrator.ModeLive
	ModeRehydrate = orchestrator.ModeRehydrate
)

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// RenderHTML renders a template document for the server. The markup carries
// the block markers Rehydrate needs.
func RenderHTML(ctx context.Context, source []byte, self any, options ...orchestrator.Option) (string, error) {
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source: source,
		Mode:   orchestrator.ModeSerialize,
		Data:   vm.Data{Self: self},
	})
	if err != nil {
		return "", err
	}
	defer result.Render.Close()
	return result.Body, nil
}

// Rehydrate renders a template document over markup produced by RenderHTML
// and returns the live result. Call Result.Render.Rerender after updating
// data through Result.Render.Graph().
func Rehydrate(ctx context.Context, source []byte, markup string, self any, options ...orchestrator.Option) (*orchestrator.Result, error) {
	if markup == "" {
		return nil, errors.New("hydrate: server markup is required")
	}
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source: source,
		Mode:   orchestrator.ModeRehydrate,
		Markup: markup,
		Data:   vm.Data{Self: self},
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme and variant choices are resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemeFallbacks forwards fallback partials used when deriving the
// renderer configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}
