package compiler

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-hydrate/pkg/symbols"
	"github.com/goliatone/go-hydrate/pkg/syntax"
	"github.com/goliatone/go-hydrate/pkg/wire"
)

// Scope describes the environment a template is compiled in.
type Scope struct {
	// Locals are the names already in play in the enclosing scope. A bare
	// identifier naming one of them is bound to a named slot.
	Locals []string
	// Keywords resolve as strict free variables wherever they appear.
	Keywords []string
	// Lexical reports names supplied by the lexical environment.
	Lexical func(name string) bool
	// CustomizeComponentName rewrites angle-bracket component names.
	CustomizeComponentName func(name string) string
}

// Compile turns a statement tree into its wire form. It is a pure function of
// its inputs: identical statements and scope produce identical output and
// slot allocation order.
func Compile(statements []syntax.Statement, scope Scope) (*wire.Template, error) {
	program := symbols.NewProgram(symbols.Options{
		Locals:                 scope.Locals,
		Keywords:               scope.Keywords,
		Lexical:                scope.Lexical,
		CustomizeComponentName: scope.CustomizeComponentName,
	})

	out, err := compileStatements(statements, program)
	if err != nil {
		return nil, err
	}

	return &wire.Template{
		Statements: nonNilStatements(out),
		Symbols:    nonNil(program.Symbols()),
		Upvars:     nonNil(program.Upvars()),
		UsedLocals: program.UsedLocals(),
	}, nil
}

// CompileTemplate compiles a decoded template, using its declared locals.
func CompileTemplate(tmpl *syntax.Template, scope Scope) (*wire.Template, error) {
	if tmpl == nil {
		return nil, &Error{Kind: "template", Err: ErrUnimplemented}
	}
	if len(scope.Locals) == 0 {
		scope.Locals = tmpl.Locals
	}
	return Compile(tmpl.Statements, scope)
}

// context is the syntactic position an expression is compiled in.
type context int

const (
	ctxStrict context = iota
	ctxAppend
	ctxTrustedAppend
	ctxAttrValue
	ctxSubExpression
	ctxComponentHead
	ctxAngleBracketHead
	ctxModifierHead
)

func compileStatements(statements []syntax.Statement, table symbols.Table) ([]wire.Statement, error) {
	var out []wire.Statement
	for _, stmt := range statements {
		built, err := compileStatement(stmt, table)
		if err != nil {
			return nil, err
		}
		out = append(out, built...)
	}
	return out, nil
}

func compileStatement(stmt syntax.Statement, table symbols.Table) ([]wire.Statement, error) {
	switch s := stmt.(type) {
	case *syntax.AppendPath:
		path, err := compilePath(s.Path, table)
		if err != nil {
			return nil, err
		}
		return []wire.Statement{appendOf(path, s.Trusted)}, nil

	case *syntax.AppendExpr:
		ctx := ctxAppend
		if s.Trusted {
			ctx = ctxTrustedAppend
		}
		expr, err := compileExpression(s.Expr, ctx, table)
		if err != nil {
			return nil, err
		}
		return []wire.Statement{appendOf(expr, s.Trusted)}, nil

	case *syntax.Call:
		ctx := ctxAppend
		if s.Trusted {
			ctx = ctxTrustedAppend
		}
		head, err := compileHead(s.Head, ctx, table)
		if err != nil {
			return nil, err
		}
		params, err := compileParams(s.Params, table)
		if err != nil {
			return nil, err
		}
		hash, err := compileHash(s.Hash, table)
		if err != nil {
			return nil, err
		}
		return []wire.Statement{appendOf(&wire.Call{Head: head, Params: params, Hash: hash}, s.Trusted)}, nil

	case *syntax.Literal:
		return []wire.Statement{&wire.Append{Value: &wire.Literal{Value: s.Value}}}, nil

	case *syntax.Comment:
		return []wire.Statement{&wire.Comment{Value: s.Value}}, nil

	case *syntax.Block:
		head, err := compileHead(s.Head, ctxComponentHead, table)
		if err != nil {
			return nil, err
		}
		params, err := compileParams(s.Params, table)
		if err != nil {
			return nil, err
		}
		hash, err := compileHash(s.Hash, table)
		if err != nil {
			return nil, err
		}
		blocks, err := compileBlocks(s.Blocks, s.BlockParams, table)
		if err != nil {
			return nil, err
		}
		return []wire.Statement{&wire.Block{Head: head, Params: params, Hash: hash, Blocks: blocks}}, nil

	case *syntax.Keyword:
		built, err := compileKeyword(s, table)
		if err != nil {
			return nil, err
		}
		return []wire.Statement{built}, nil

	case *syntax.Element:
		return compileElement(s, table)

	case *syntax.Modifier:
		return nil, unimplemented("modifier", headName(s.Head))

	case *syntax.DynamicComponent:
		return nil, unimplemented("dynamic component", "")

	case nil:
		return nil, unimplemented("statement", "<nil>")

	default:
		return nil, unimplemented("statement", stmt.Kind())
	}
}

func appendOf(value wire.Expression, trusted bool) wire.Statement {
	if trusted {
		return &wire.TrustingAppend{Value: value}
	}
	return &wire.Append{Value: value}
}

func compileKeyword(kw *syntax.Keyword, table symbols.Table) (wire.Statement, error) {
	params, err := compileParams(kw.Params, table)
	if err != nil {
		return nil, err
	}
	// Hash values are referenced before the block, so their slots come first.
	var key wire.Expression
	if keyExpr, ok := kw.Hash.Get("key"); ok && kw.Name == "each" {
		key, err = compileExpression(keyExpr, ctxStrict, table)
		if err != nil {
			return nil, err
		}
	}

	child := table.Child(kw.BlockParams)
	var body []syntax.Statement
	if block, ok := kw.Blocks.Get("default"); ok {
		body = block.Body
	}
	block, err := compileBlock(body, child, child.Slots())
	if err != nil {
		return nil, err
	}

	var inverse *wire.SerializedBlock
	if elseBlock, ok := kw.Blocks.Get("else"); ok {
		inverse, err = compileBlock(elseBlock.Body, table, nil)
		if err != nil {
			return nil, err
		}
	}

	switch kw.Name {
	case "let":
		if len(params) == 0 {
			return nil, &Error{Kind: "keyword", Name: kw.Name, Err: ErrMissingParams}
		}
		return &wire.Let{Params: params, Block: block}, nil
	case "if":
		if len(params) == 0 {
			return nil, &Error{Kind: "keyword", Name: kw.Name, Err: ErrMissingParams}
		}
		return &wire.If{Condition: params[0], Block: block, Inverse: inverse}, nil
	case "unless":
		if len(params) == 0 {
			return nil, &Error{Kind: "keyword", Name: kw.Name, Err: ErrMissingParams}
		}
		if inverse == nil {
			inverse = &wire.SerializedBlock{}
		}
		return &wire.If{Condition: params[0], Block: inverse, Inverse: block}, nil
	case "each":
		if len(params) == 0 {
			return nil, &Error{Kind: "keyword", Name: kw.Name, Err: ErrMissingParams}
		}
		return &wire.Each{List: params[0], Key: key, Block: block, Inverse: inverse}, nil
	default:
		return nil, unimplemented("keyword", kw.Name)
	}
}

func compileBlocks(blocks syntax.Blocks, blockParams []string, table symbols.Table) (*wire.Blocks, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	out := &wire.Blocks{}
	for _, named := range blocks {
		var (
			built *wire.SerializedBlock
			err   error
		)
		if named.Name == "default" {
			child := table.Child(blockParams)
			built, err = compileBlock(named.Body, child, child.Slots())
		} else {
			built, err = compileBlock(named.Body, table, nil)
		}
		if err != nil {
			return nil, err
		}
		out.Names = append(out.Names, named.Name)
		out.Blocks = append(out.Blocks, built)
	}
	return out, nil
}

func compileBlock(body []syntax.Statement, table symbols.Table, params []int) (*wire.SerializedBlock, error) {
	statements, err := compileStatements(body, table)
	if err != nil {
		return nil, err
	}
	return &wire.SerializedBlock{Statements: statements, Parameters: params}, nil
}

func compileElement(el *syntax.Element, table symbols.Table) ([]wire.Statement, error) {
	params, args, splat, err := compileElementParams(el.Attrs, table)
	if err != nil {
		return nil, err
	}

	if args != nil {
		head, err := componentHead(el.Tag, table)
		if err != nil {
			return nil, err
		}
		body, err := compileStatements(el.Body, table)
		if err != nil {
			return nil, err
		}
		return []wire.Statement{&wire.Component{
			Head:  head,
			Attrs: params,
			Args:  args,
			Blocks: &wire.Blocks{
				Names:  []string{"default"},
				Blocks: []*wire.SerializedBlock{{Statements: body}},
			},
		}}, nil
	}

	var out []wire.Statement
	if splat {
		out = append(out, &wire.OpenElementWithSplat{Tag: el.Tag})
	} else {
		out = append(out, &wire.OpenElement{Tag: el.Tag})
	}
	out = append(out, params...)
	out = append(out, &wire.FlushElement{})

	body, err := compileStatements(el.Body, table)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	out = append(out, &wire.CloseElement{})
	return out, nil
}

func componentHead(tag string, table symbols.Table) (wire.Expression, error) {
	head, tail, err := syntax.ParsePath(tag)
	if err != nil {
		return nil, &Error{Kind: "component", Name: tag, Err: err}
	}
	return compileVariable(head, ctxAngleBracketHead, table, tail)
}

func compileElementParams(attrs []syntax.Attr, table symbols.Table) ([]wire.Statement, *wire.Hash, bool, error) {
	var (
		params []wire.Statement
		args   *wire.Hash
		splat  bool
	)
	for _, attr := range attrs {
		switch {
		case isSplat(attr.Value):
			splat = true
			params = append(params, &wire.AttrSplat{Symbol: table.AllocateBlock("attrs")})
		case strings.HasPrefix(attr.Name, "@"):
			value, err := compileExpression(attr.Value, ctxStrict, table)
			if err != nil {
				return nil, nil, false, err
			}
			if args == nil {
				args = &wire.Hash{}
			}
			args.Keys = append(args.Keys, attr.Name)
			args.Values = append(args.Values, value)
		default:
			built, err := compileAttribute(attr.Name, attr.Value, extractNamespace(attr.Name), table)
			if err != nil {
				return nil, nil, false, err
			}
			params = append(params, built...)
		}
	}
	return params, args, splat, nil
}

func isSplat(expr syntax.Expression) bool {
	_, ok := expr.(*syntax.Splat)
	return ok
}

func compileAttribute(name string, value syntax.Expression, namespace string, table symbols.Table) ([]wire.Statement, error) {
	if lit, ok := value.(*syntax.LiteralExpr); ok {
		if lit.Undefined {
			return nil, &Error{Kind: "attribute", Name: name, Err: ErrUnexpectedLiteral}
		}
		switch v := lit.Value.(type) {
		case bool:
			if !v {
				return nil, nil
			}
			return []wire.Statement{&wire.StaticAttr{Name: name, Value: "", Namespace: namespace}}, nil
		case string:
			return []wire.Statement{&wire.StaticAttr{Name: name, Value: v, Namespace: namespace}}, nil
		default:
			return nil, &Error{Kind: "attribute", Name: name, Err: ErrUnexpectedLiteral}
		}
	}

	expr, err := compileExpression(value, ctxAttrValue, table)
	if err != nil {
		return nil, err
	}
	return []wire.Statement{&wire.DynamicAttr{Name: name, Value: expr, Namespace: namespace}}, nil
}

var namespacedName = regexp.MustCompile(`^([^:]*):([^:]*)$`)

func extractNamespace(name string) string {
	if name == "xmlns" {
		return wire.NamespaceXMLNS
	}
	match := namespacedName.FindStringSubmatch(name)
	if match == nil {
		return ""
	}
	switch match[1] {
	case "xlink":
		return wire.NamespaceXLink
	case "xml":
		return wire.NamespaceXML
	case "xmlns":
		return wire.NamespaceXMLNS
	}
	return ""
}

func compileParams(exprs []syntax.Expression, table symbols.Table) ([]wire.Expression, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]wire.Expression, 0, len(exprs))
	for _, expr := range exprs {
		built, err := compileExpression(expr, ctxStrict, table)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

func compileHash(hash syntax.Hash, table symbols.Table) (*wire.Hash, error) {
	if len(hash) == 0 {
		return nil, nil
	}
	out := &wire.Hash{}
	for _, pair := range hash {
		built, err := compileExpression(pair.Value, ctxStrict, table)
		if err != nil {
			return nil, err
		}
		out.Keys = append(out.Keys, pair.Key)
		out.Values = append(out.Values, built)
	}
	return out, nil
}

func compileExpression(expr syntax.Expression, ctx context, table symbols.Table) (wire.Expression, error) {
	switch e := expr.(type) {
	case *syntax.GetPath:
		return compilePath(e, table)

	case *syntax.GetVar:
		return compileVariable(e.Var, ctx, table, nil)

	case *syntax.Concat:
		parts := make([]wire.Expression, 0, len(e.Parts))
		for _, part := range e.Parts {
			built, err := compileExpression(part, ctxAttrValue, table)
			if err != nil {
				return nil, err
			}
			parts = append(parts, built)
		}
		return &wire.Concat{Parts: parts}, nil

	case *syntax.CallExpr:
		params, err := compileParams(e.Params, table)
		if err != nil {
			return nil, err
		}
		hash, err := compileHash(e.Hash, table)
		if err != nil {
			return nil, err
		}
		headCtx := ctx
		if ctx == ctxStrict {
			headCtx = ctxSubExpression
		}
		head, err := compileHead(e.Head, headCtx, table)
		if err != nil {
			return nil, err
		}
		return &wire.Call{Head: head, Params: params, Hash: hash}, nil

	case *syntax.HasBlock:
		return &wire.HasBlock{Block: &wire.Get{Kind: wire.OpGetSymbol, Symbol: table.AllocateBlock(e.Name)}}, nil

	case *syntax.HasBlockParams:
		return &wire.HasBlockParams{Block: &wire.Get{Kind: wire.OpGetSymbol, Symbol: table.AllocateBlock(e.Name)}}, nil

	case *syntax.LiteralExpr:
		if e.Undefined {
			return &wire.Undefined{}, nil
		}
		return &wire.Literal{Value: e.Value}, nil

	case nil:
		return nil, unimplemented("expression", "<nil>")

	default:
		return nil, unimplemented("expression", expr.Kind())
	}
}

func compileHead(head syntax.Head, ctx context, table symbols.Table) (wire.Expression, error) {
	switch h := head.(type) {
	case *syntax.GetVar:
		return compileVariable(h.Var, ctx, table, nil)
	case *syntax.GetPath:
		return compilePath(h, table)
	case nil:
		return nil, unimplemented("head", "<nil>")
	default:
		return nil, unimplemented("head", head.Kind())
	}
}

// compilePath resolves only the head of a path; the tail is carried as is.
func compilePath(path *syntax.GetPath, table symbols.Table) (wire.Expression, error) {
	return compileVariable(path.Head, ctxStrict, table, path.Tail)
}

func compileVariable(v syntax.Variable, ctx context, table symbols.Table, path []string) (wire.Expression, error) {
	get := func(op wire.Op, symbol int) wire.Expression {
		return &wire.Get{Kind: op, Symbol: symbol, Path: clonePath(path)}
	}

	switch v.Kind {
	case syntax.This:
		return get(wire.OpGetSymbol, 0), nil
	case syntax.Arg:
		return get(wire.OpGetSymbol, table.AllocateNamed("@"+v.Name)), nil
	case syntax.BlockVar:
		return get(wire.OpGetSymbol, table.AllocateBlock(v.Name)), nil
	case syntax.Local:
		slot, ok := table.Local(v.Name)
		if !ok {
			return nil, &Error{Kind: "local", Name: v.Name, Err: ErrUnresolvedLocal}
		}
		return get(wire.OpGetSymbol, slot), nil
	case syntax.Free:
		op, symbol := resolveFree(v.Name, ctx, table, len(path) > 0)
		return get(op, symbol), nil
	case syntax.Bare:
		if slot, ok := table.Local(v.Name); ok {
			return get(wire.OpGetSymbol, slot), nil
		}
		root := table.Root()
		if _, named := root.Named()[v.Name]; named || table.Has(v.Name) {
			root.Get(v.Name)
			return get(wire.OpGetSymbol, table.AllocateNamed(v.Name)), nil
		}
		op, symbol := resolveFree(v.Name, ctx, table, len(path) > 0)
		return get(op, symbol), nil
	default:
		return nil, unimplemented("variable", v.Kind.String())
	}
}

// resolveFree registers name as an upvar and picks the lookup opcode from
// its syntactic position.
func resolveFree(name string, ctx context, table symbols.Table, hasPath bool) (wire.Op, int) {
	if table.HasKeyword(name) {
		return wire.OpGetStrictKeyword, table.GetKeyword(name)
	}
	if table.HasLexical(name) {
		idx, _ := table.Root().Get(name)
		return wire.OpGetLexicalSymbol, idx
	}

	var (
		op         wire.Op
		resolution symbols.Resolution
	)
	switch ctx {
	case ctxAppend:
		op, resolution = wire.OpGetFreeAsComponentOrHelperHead, symbols.ComponentOrHelperHead
	case ctxTrustedAppend, ctxAttrValue, ctxSubExpression:
		op, resolution = wire.OpGetFreeAsHelperHead, symbols.HelperHead
	case ctxComponentHead:
		op, resolution = wire.OpGetFreeAsComponentHead, symbols.ComponentHead
	case ctxAngleBracketHead:
		op, resolution = wire.OpGetFreeAsComponentHead, symbols.AngleBracketComponentHead
	case ctxModifierHead:
		op, resolution = wire.OpGetFreeAsModifierHead, symbols.ModifierHead
	default:
		op, resolution = wire.OpGetStrictKeyword, symbols.Strict
		// A keyword never carries a path; a free path head reads a value.
		if hasPath {
			op, resolution = wire.OpGetFreeAsHelperHead, symbols.HelperHead
		}
	}
	return op, table.AllocateFree(name, resolution)
}

func headName(head syntax.Head) string {
	switch h := head.(type) {
	case *syntax.GetVar:
		return h.Var.String()
	case *syntax.GetPath:
		return h.Head.String() + "." + strings.Join(h.Tail, ".")
	}
	return ""
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	return append([]string(nil), path...)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilStatements(in []wire.Statement) []wire.Statement {
	if in == nil {
		return []wire.Statement{}
	}
	return in
}
