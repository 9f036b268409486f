// Package hydrate renders declarative templates to HTML on the server and
// rehydrates that markup into a live, incrementally updated tree.
//
// The root package is a thin facade over pkg/orchestrator:
//
//	markup, err := hydrate.RenderHTML(ctx, source, map[string]any{"name": "Ada"})
//	live, err := hydrate.Rehydrate(ctx, source, markup, self)
//	live.Render.Graph().SetProp(self, "name", "Grace")
//	live.Render.Rerender(ctx)
package hydrate
