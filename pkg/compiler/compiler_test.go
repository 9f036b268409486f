package compiler_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-hydrate/pkg/compiler"
	"github.com/goliatone/go-hydrate/pkg/syntax"
	"github.com/goliatone/go-hydrate/pkg/testsupport"
	"github.com/goliatone/go-hydrate/pkg/wire"
)

func bare(name string) syntax.Expression {
	return &syntax.GetVar{Var: syntax.Variable{Kind: syntax.Bare, Name: name}}
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestCompile_SymbolAllocationOrder(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.AppendExpr{Expr: bare("b")},
		&syntax.AppendExpr{Expr: bare("a")},
		&syntax.AppendExpr{Expr: bare("b")},
	}

	tmpl, err := compiler.Compile(statements, compiler.Scope{Locals: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if diff := cmp.Diff([]string{"b", "a"}, tmpl.Symbols); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "a"}, tmpl.UsedLocals); diff != "" {
		t.Fatalf("used locals mismatch (-want +got):\n%s", diff)
	}
	want := `[[1,[30,1]],[1,[30,2]],[1,[30,1]]]`
	if diff := cmp.Diff(want, marshal(t, tmpl.Statements)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_FreeVariableDeduplication(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.AppendExpr{Expr: bare("foo")},
		&syntax.Element{
			Tag:   "div",
			Attrs: []syntax.Attr{{Name: "class", Value: bare("foo")}},
		},
	}

	tmpl, err := compiler.Compile(statements, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if diff := cmp.Diff([]string{"foo"}, tmpl.Upvars); diff != "" {
		t.Fatalf("upvars mismatch (-want +got):\n%s", diff)
	}
	if len(tmpl.Symbols) != 0 {
		t.Fatalf("expected no symbols, got %v", tmpl.Symbols)
	}
	want := `[[1,[35,0]],[10,"div"],[15,"class",[37,0]],[12],[13]]`
	if diff := cmp.Diff(want, marshal(t, tmpl.Statements)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_ResolutionByPosition(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.AppendExpr{Expr: bare("value"), Trusted: true},
		&syntax.Call{Head: syntax.Path("format"), Params: []syntax.Expression{bare("amount")}},
		&syntax.AppendPath{Path: &syntax.GetPath{Head: syntax.Variable{Kind: syntax.Bare, Name: "user"}, Tail: []string{"name"}}},
		&syntax.AppendExpr{Expr: &syntax.CallExpr{Head: syntax.Path("upper"), Params: []syntax.Expression{syntax.Lit("x")}}},
		&syntax.AppendExpr{Expr: bare("outlet")},
		&syntax.AppendExpr{Expr: bare("Icon")},
	}

	tmpl, err := compiler.Compile(statements, compiler.Scope{
		Keywords: []string{"outlet"},
		Lexical:  func(name string) bool { return name == "Icon" },
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	want := `[[2,[37,0]],` +
		`[1,[28,[35,1],[[31,2]],null]],` +
		`[1,[37,3,["name"]]],` +
		`[1,[28,[35,4],["x"],null]],` +
		`[1,[31,5]],` +
		`[1,[32,0]]]`
	if diff := cmp.Diff(want, marshal(t, tmpl.Statements)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"value", "format", "amount", "user", "upper", "outlet"}, tmpl.Upvars); diff != "" {
		t.Fatalf("upvars mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Icon"}, tmpl.UsedLocals); diff != "" {
		t.Fatalf("used locals mismatch (-want +got):\n%s", diff)
	}
}

const eachTemplate = `
locals: [items]
statements:
  - each:
      list: items
      key: id
      as: [item, index]
      body:
        - element:
            tag: li
            attrs:
              - {name: data-index, value: {path: index}}
            body:
              - append: item.label
      else:
        - text: none
`

func TestCompile_EachBindsBlockParams(t *testing.T) {
	src := testsupport.MustParseTemplate(t, eachTemplate)

	tmpl, err := compiler.CompileTemplate(src, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if diff := cmp.Diff([]string{"items", "item", "index"}, tmpl.Symbols); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
	want := `[[42,[30,1],"id",` +
		`[[[10,"li"],[15,"data-index",[30,3]],[12],[1,[30,2,["label"]]],[13]],[2,3]],` +
		`[[[1,"none"]],[]]]]`
	if diff := cmp.Diff(want, marshal(t, tmpl.Statements)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_SlotsFollowFirstReference(t *testing.T) {
	each := testsupport.MustParseTemplate(t, `
statements:
  - each:
      list: "@list"
      key: {path: "@key"}
      as: [item]
      body:
        - append: "@body"
`)
	tmpl, err := compiler.CompileTemplate(each, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile each: %v", err)
	}
	if diff := cmp.Diff([]string{"@list", "@key", "item", "@body"}, tmpl.Symbols); diff != "" {
		t.Fatalf("each symbols mismatch (-want +got):\n%s", diff)
	}

	block := testsupport.MustParseTemplate(t, `
statements:
  - block:
      head: widget
      params: ["@first"]
      hash: {size: {path: "@size"}}
      as: [row]
      body:
        - append: "@inner"
`)
	tmpl, err = compiler.CompileTemplate(block, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile block: %v", err)
	}
	if diff := cmp.Diff([]string{"@first", "@size", "row", "@inner"}, tmpl.Symbols); diff != "" {
		t.Fatalf("block symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_IfUnlessLet(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.Keyword{
			Name:   "if",
			Params: []syntax.Expression{syntax.Path("this.ok").(syntax.Expression)},
			Blocks: syntax.Blocks{{Name: "default", Body: []syntax.Statement{&syntax.Literal{Value: "yes"}}}},
		},
		&syntax.Keyword{
			Name:   "unless",
			Params: []syntax.Expression{syntax.Path("this.ok").(syntax.Expression)},
			Blocks: syntax.Blocks{{Name: "default", Body: []syntax.Statement{&syntax.Literal{Value: "no"}}}},
		},
		&syntax.Keyword{
			Name:        "let",
			Params:      []syntax.Expression{syntax.Lit("v")},
			BlockParams: []string{"x"},
			Blocks:      syntax.Blocks{{Name: "default", Body: []syntax.Statement{&syntax.AppendExpr{Expr: bare("x")}}}},
		},
	}

	tmpl, err := compiler.Compile(statements, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := `[[41,[30,0,["ok"]],[[[1,"yes"]],[]],null],` +
		`[41,[30,0,["ok"]],[[],[]],[[[1,"no"]],[]]],` +
		`[44,["v"],[[[1,[30,1]]],[1]]]]`
	if diff := cmp.Diff(want, marshal(t, tmpl.Statements)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_ElementAttributes(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.Element{
			Tag: "input",
			Attrs: []syntax.Attr{
				{Name: "type", Value: syntax.Lit("checkbox")},
				{Name: "checked", Value: syntax.Lit(true)},
				{Name: "disabled", Value: syntax.Lit(false)},
				{Name: "xlink:href", Value: syntax.Lit("#a")},
				{Name: "title", Value: &syntax.Concat{Parts: []syntax.Expression{syntax.Lit("n-"), syntax.Path("this.n").(syntax.Expression)}}},
				{Name: "...attributes", Value: &syntax.Splat{}},
			},
		},
	}

	tmpl, err := compiler.Compile(statements, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := `[[11,"input"],[14,"type","checkbox"],[14,"checked",""],` +
		`[14,"xlink:href","#a","http://www.w3.org/1999/xlink"],` +
		`[15,"title",[29,["n-",[30,0,["n"]]]]],[17,1],[12],[13]]`
	if diff := cmp.Diff(want, marshal(t, tmpl.Statements)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"&attrs"}, tmpl.Symbols); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_ElementWithArgumentsIsComponent(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.Element{
			Tag: "Card",
			Attrs: []syntax.Attr{
				{Name: "class", Value: syntax.Lit("wide")},
				{Name: "@title", Value: syntax.Lit("Hi")},
			},
			Body: []syntax.Statement{&syntax.Literal{Value: "body"}},
		},
	}

	tmpl, err := compiler.Compile(statements, compiler.Scope{
		CustomizeComponentName: func(name string) string { return "ui-" + name },
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	comp, ok := tmpl.Statements[0].(*wire.Component)
	if !ok {
		t.Fatalf("expected component, got %T", tmpl.Statements[0])
	}
	if comp.Args.Len() != 1 || comp.Args.Keys[0] != "@title" {
		t.Fatalf("unexpected args %+v", comp.Args)
	}
	if diff := cmp.Diff([]string{"ui-Card"}, tmpl.Upvars); diff != "" {
		t.Fatalf("upvars mismatch (-want +got):\n%s", diff)
	}
	want := `[8,[39,0],[[14,"class","wide"]],[["@title"],["Hi"]],[["default"],[[[[1,"body"]],[]]]]]`
	if diff := cmp.Diff(want, marshal(t, comp)); diff != "" {
		t.Fatalf("component mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name string
		stmt syntax.Statement
		want error
		kind string
	}{
		{"modifier", &syntax.Modifier{Head: syntax.Path("on")}, compiler.ErrUnimplemented, "modifier"},
		{"dynamic component", &syntax.DynamicComponent{Head: bare("c")}, compiler.ErrUnimplemented, "dynamic component"},
		{"unknown keyword", &syntax.Keyword{Name: "with", Params: []syntax.Expression{bare("x")}}, compiler.ErrUnimplemented, "keyword"},
		{"missing if cond", &syntax.Keyword{Name: "if"}, compiler.ErrMissingParams, "keyword"},
		{"numeric attribute", &syntax.Element{Tag: "p", Attrs: []syntax.Attr{{Name: "tabindex", Value: syntax.Lit(1.0)}}}, compiler.ErrUnexpectedLiteral, "attribute"},
		{"undefined attribute", &syntax.Element{Tag: "p", Attrs: []syntax.Attr{{Name: "id", Value: syntax.Undefined()}}}, compiler.ErrUnexpectedLiteral, "attribute"},
		{"unbound local", &syntax.AppendExpr{Expr: &syntax.GetVar{Var: syntax.Variable{Kind: syntax.Local, Name: "row"}}}, compiler.ErrUnresolvedLocal, "local"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compiler.Compile([]syntax.Statement{tc.stmt}, compiler.Scope{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var cerr *compiler.Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *compiler.Error, got %T", err)
			}
			if cerr.Kind != tc.kind {
				t.Fatalf("expected kind %q, got %q", tc.kind, cerr.Kind)
			}
		})
	}
}

func TestCompile_ExplicitLocalInsideBlock(t *testing.T) {
	statements := []syntax.Statement{
		&syntax.Keyword{
			Name:        "let",
			Params:      []syntax.Expression{syntax.Lit(1.0)},
			BlockParams: []string{"row"},
			Blocks: syntax.Blocks{{Name: "default", Body: []syntax.Statement{
				&syntax.AppendExpr{Expr: &syntax.GetVar{Var: syntax.Variable{Kind: syntax.Local, Name: "row"}}},
			}}},
		},
	}
	if _, err := compiler.Compile(statements, compiler.Scope{}); err != nil {
		t.Fatalf("compile: %v", err)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	src := testsupport.MustParseTemplate(t, eachTemplate)

	first, err := compiler.CompileTemplate(src, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := compiler.CompileTemplate(src, compiler.Scope{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if diff := cmp.Diff(marshal(t, first), marshal(t, second)); diff != "" {
		t.Fatalf("compile is not deterministic (-first +second):\n%s", diff)
	}
}
