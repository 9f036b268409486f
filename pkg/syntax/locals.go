package syntax

import (
	"strings"
)

var keywords = map[string]struct{}{
	"action": {}, "array": {}, "component": {}, "concat": {}, "debugger": {},
	"each": {}, "each-in": {}, "fn": {}, "get": {}, "has-block": {},
	"has-block-params": {}, "hash": {}, "helper": {}, "if": {}, "in-element": {},
	"let": {}, "log": {}, "modifier": {}, "mount": {}, "mut": {}, "on": {},
	"outlet": {}, "readonly": {}, "unbound": {}, "unless": {}, "with": {},
	"yield": {},
}

// IsKeyword reports whether name is a reserved template keyword.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Keywords returns the reserved keyword names.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for name := range keywords {
		out = append(out, name)
	}
	return out
}

// LocalsOptions tunes TemplateLocals.
type LocalsOptions struct {
	IncludeKeywords     bool
	IncludeHTMLElements bool
}

// TemplateLocals returns, in first-reference order, the identifiers a
// template reads from its enclosing scope. Block params, arguments and this
// are excluded, as are keywords unless opts.IncludeKeywords is set. Lower case
// element tags are only reported with opts.IncludeHTMLElements.
func TemplateLocals(statements []Statement, opts LocalsOptions) []string {
	w := &localsWalker{opts: opts, seen: make(map[string]struct{})}
	w.statements(statements)

	if opts.IncludeKeywords {
		return w.tokens
	}
	out := w.tokens[:0:0]
	for _, token := range w.tokens {
		if !IsKeyword(token) {
			out = append(out, token)
		}
	}
	return out
}

type localsWalker struct {
	opts   LocalsOptions
	scoped []string
	seen   map[string]struct{}
	tokens []string
}

func (w *localsWalker) add(name string) {
	if name == "" || name[0] == '@' {
		return
	}
	for _, s := range w.scoped {
		if s == name {
			return
		}
	}
	if _, ok := w.seen[name]; ok {
		return
	}
	w.seen[name] = struct{}{}
	w.tokens = append(w.tokens, name)
}

func (w *localsWalker) push(params []string) {
	w.scoped = append(w.scoped, params...)
}

func (w *localsWalker) pop(params []string) {
	w.scoped = w.scoped[:len(w.scoped)-len(params)]
}

func (w *localsWalker) variable(v Variable) {
	switch v.Kind {
	case Bare, Free, Local:
		w.add(v.Name)
	}
}

func (w *localsWalker) statements(statements []Statement) {
	for _, stmt := range statements {
		w.statement(stmt)
	}
}

func (w *localsWalker) statement(stmt Statement) {
	switch s := stmt.(type) {
	case *AppendPath:
		w.expression(s.Path)
	case *AppendExpr:
		w.expression(s.Expr)
	case *Call:
		w.expression(s.Head)
		w.expressions(s.Params)
		w.hash(s.Hash)
	case *Literal, *Comment:
	case *Block:
		w.expression(s.Head)
		w.expressions(s.Params)
		w.hash(s.Hash)
		w.blocks(s.Blocks, s.BlockParams)
	case *Keyword:
		w.add(s.Name)
		w.expressions(s.Params)
		w.hash(s.Hash)
		w.blocks(s.Blocks, s.BlockParams)
	case *Element:
		w.element(s)
		for _, attr := range s.Attrs {
			w.expression(attr.Value)
		}
		w.statements(s.Body)
	case *Modifier:
		w.expression(s.Head)
		w.expressions(s.Params)
		w.hash(s.Hash)
	case *DynamicComponent:
		w.expression(s.Head)
		w.expressions(s.Params)
		w.hash(s.Hash)
		w.blocks(s.Blocks, nil)
	}
}

func (w *localsWalker) element(el *Element) {
	tag := el.Tag
	switch {
	case tag == "":
		return
	case tag[0] == ':' || tag[0] == '@':
		return
	case strings.HasPrefix(tag, "this."):
		return
	case !w.opts.IncludeHTMLElements && !strings.Contains(tag, ".") && strings.ToLower(tag) == tag:
		return
	}
	head, _, _ := strings.Cut(tag, ".")
	w.add(head)
}

func (w *localsWalker) blocks(blocks Blocks, params []string) {
	for _, block := range blocks {
		if block.Name == "default" {
			w.push(params)
			w.statements(block.Body)
			w.pop(params)
			continue
		}
		w.statements(block.Body)
	}
}

func (w *localsWalker) hash(hash Hash) {
	for _, pair := range hash {
		w.expression(pair.Value)
	}
}

func (w *localsWalker) expressions(exprs []Expression) {
	for _, expr := range exprs {
		w.expression(expr)
	}
}

func (w *localsWalker) expression(expr Expression) {
	switch e := expr.(type) {
	case *GetPath:
		w.variable(e.Head)
	case *GetVar:
		w.variable(e.Var)
	case *Concat:
		w.expressions(e.Parts)
	case *CallExpr:
		w.expression(e.Head)
		w.expressions(e.Params)
		w.hash(e.Hash)
	case *HasBlock:
		w.add("has-block")
	case *HasBlockParams:
		w.add("has-block-params")
	}
}
