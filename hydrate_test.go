package hydrate_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"

	hydrate "github.com/goliatone/go-hydrate"
	"github.com/goliatone/go-hydrate/pkg/dom"
)

const greeting = `
statements:
  - element:
      tag: h1
      body:
        - text: "Hello, "
        - append: this.name
`

func TestRenderHTMLThenRehydrate(t *testing.T) {
	ctx := context.Background()
	markup, err := hydrate.RenderHTML(ctx, []byte(greeting), map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<!--%+b:0%--><h1>Hello, <!--%+b:1%-->Ada<!--%-b:1%--></h1><!--%-b:0%-->`
	if diff := cmp.Diff(want, markup); diff != "" {
		t.Fatalf("markup mismatch (-want +got):\n%s", diff)
	}

	self := map[string]any{"name": "Ada"}
	live, err := hydrate.Rehydrate(ctx, []byte(greeting), markup, self)
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	defer live.Render.Close()
	if live.Changes.Created != 0 {
		t.Fatalf("expected server nodes reused, got %+v", live.Changes)
	}

	if err := live.Render.Graph().SetProp(self, "name", "Grace"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := live.Render.Rerender(ctx); err != nil {
		t.Fatalf("rerender: %v", err)
	}
	if got := dom.InnerHTML(live.Root); got != "<h1>Hello, Grace</h1>" {
		t.Fatalf("unexpected markup %q", got)
	}
}

func TestRehydrateRequiresMarkup(t *testing.T) {
	if _, err := hydrate.Rehydrate(context.Background(), []byte(greeting), "", nil); err == nil {
		t.Fatalf("expected error without markup")
	}
}

func TestLayoutTemplates(t *testing.T) {
	if _, err := fs.ReadFile(hydrate.LayoutTemplates(), "page.tpl"); err != nil {
		t.Fatalf("expected page shell template: %v", err)
	}
}
