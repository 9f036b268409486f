package syntax_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-hydrate/pkg/syntax"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		in   string
		want syntax.Variable
		tail []string
	}{
		{"this", syntax.Variable{Kind: syntax.This}, nil},
		{"this.a.b", syntax.Variable{Kind: syntax.This}, []string{"a", "b"}},
		{"@title", syntax.Variable{Kind: syntax.Arg, Name: "title"}, nil},
		{"&else", syntax.Variable{Kind: syntax.BlockVar, Name: "else"}, nil},
		{"^helper", syntax.Variable{Kind: syntax.Free, Name: "helper"}, nil},
		{"$item.name", syntax.Variable{Kind: syntax.Local, Name: "item"}, []string{"name"}},
		{"item.name", syntax.Variable{Kind: syntax.Bare, Name: "item"}, []string{"name"}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, tail, err := syntax.ParsePath(tc.in)
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("variable mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.tail, tail); diff != "" {
				t.Fatalf("tail mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, bad := range []string{"", "a..b", "@", "this."} {
		if _, _, err := syntax.ParsePath(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

const yamlTemplate = `
locals: [title]
statements:
  - element:
      tag: div
      attrs:
        - {name: class, value: box}
        - {name: id, value: {path: this.id}}
        - {name: hidden, value: false}
      body:
        - text: "Hello "
        - append: this.name
  - each:
      list: this.items
      key: id
      as: [item]
      body:
        - append: item.label
      else:
        - text: empty
  - if:
      cond: title
      body:
        - append: title
`

func TestLoad_YAML(t *testing.T) {
	tmpl, err := syntax.Load([]byte(yamlTemplate), "page.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"title"}, tmpl.Locals); diff != "" {
		t.Fatalf("locals mismatch (-want +got):\n%s", diff)
	}
	if len(tmpl.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(tmpl.Statements))
	}

	el, ok := tmpl.Statements[0].(*syntax.Element)
	if !ok {
		t.Fatalf("expected element, got %T", tmpl.Statements[0])
	}
	if el.Tag != "div" || len(el.Attrs) != 3 || len(el.Body) != 2 {
		t.Fatalf("unexpected element shape: %+v", el)
	}
	if lit, ok := el.Attrs[0].Value.(*syntax.LiteralExpr); !ok || lit.Value != "box" {
		t.Fatalf("expected static class literal, got %#v", el.Attrs[0].Value)
	}
	if lit, ok := el.Attrs[2].Value.(*syntax.LiteralExpr); !ok || lit.Value != false {
		t.Fatalf("expected false literal, got %#v", el.Attrs[2].Value)
	}
	if _, ok := el.Body[1].(*syntax.AppendPath); !ok {
		t.Fatalf("expected append path, got %T", el.Body[1])
	}

	each, ok := tmpl.Statements[1].(*syntax.Keyword)
	if !ok || each.Name != "each" {
		t.Fatalf("expected each keyword, got %#v", tmpl.Statements[1])
	}
	if diff := cmp.Diff([]string{"item"}, each.BlockParams); diff != "" {
		t.Fatalf("block params mismatch (-want +got):\n%s", diff)
	}
	key, ok := each.Hash.Get("key")
	if !ok {
		t.Fatalf("expected key hash entry")
	}
	if lit, ok := key.(*syntax.LiteralExpr); !ok || lit.Value != "id" {
		t.Fatalf("expected key literal id, got %#v", key)
	}
	if _, ok := each.Blocks.Get("else"); !ok {
		t.Fatalf("expected else block")
	}
}

func TestLoad_JSON(t *testing.T) {
	doc := `{"statements":[{"append":{"concat":["a-", {"path":"this.x"}]}},{"trusted":"this.html"},{"comment":"c"}]}`
	tmpl, err := syntax.Load([]byte(doc), "t.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	appendExpr, ok := tmpl.Statements[0].(*syntax.AppendExpr)
	if !ok {
		t.Fatalf("expected append expr, got %T", tmpl.Statements[0])
	}
	concat, ok := appendExpr.Expr.(*syntax.Concat)
	if !ok || len(concat.Parts) != 2 {
		t.Fatalf("expected two part concat, got %#v", appendExpr.Expr)
	}
	trusted, ok := tmpl.Statements[1].(*syntax.AppendPath)
	if !ok || !trusted.Trusted {
		t.Fatalf("expected trusted append, got %#v", tmpl.Statements[1])
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":             "   ",
		"not a mapping":     "[1, 2]",
		"unknown statement": "statements:\n  - bogus: 1\n",
		"two keys":          "statements:\n  - {text: a, comment: b}\n",
		"missing tag":       "statements:\n  - element: {attrs: []}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := syntax.Load([]byte(doc), name); err == nil {
				t.Fatalf("expected error")
			} else if !strings.HasPrefix(err.Error(), "syntax:") {
				t.Fatalf("expected package prefixed error, got %v", err)
			}
		})
	}
}

func TestLoadFSAndList(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/b.yaml": {Data: []byte("statements:\n  - text: b\n")},
		"templates/a.json": {Data: []byte(`{"statements":["a"]}`)},
		"templates/readme": {Data: []byte("ignored")},
	}
	paths, err := syntax.List(fsys)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"templates/a.json", "templates/b.yaml"}, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	tmpl, err := syntax.LoadFS(fsys, "templates/a.json")
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if lit, ok := tmpl.Statements[0].(*syntax.Literal); !ok || lit.Value != "a" {
		t.Fatalf("expected literal a, got %#v", tmpl.Statements[0])
	}
}

func TestTemplateLocals(t *testing.T) {
	tmpl, err := syntax.Load([]byte(yamlTemplate), "page.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := syntax.TemplateLocals(tmpl.Statements, syntax.LocalsOptions{})
	if diff := cmp.Diff([]string{"title"}, got); diff != "" {
		t.Fatalf("locals mismatch (-want +got):\n%s", diff)
	}

	withKeywords := syntax.TemplateLocals(tmpl.Statements, syntax.LocalsOptions{IncludeKeywords: true})
	if diff := cmp.Diff([]string{"each", "if", "title"}, withKeywords); diff != "" {
		t.Fatalf("locals with keywords mismatch (-want +got):\n%s", diff)
	}

	components := []syntax.Statement{
		&syntax.Element{Tag: "MyButton"},
		&syntax.Element{Tag: "ui.card"},
		&syntax.Element{Tag: "section"},
	}
	got = syntax.TemplateLocals(components, syntax.LocalsOptions{})
	if diff := cmp.Diff([]string{"MyButton", "ui"}, got); diff != "" {
		t.Fatalf("element locals mismatch (-want +got):\n%s", diff)
	}
}
