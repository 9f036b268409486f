package syntax

import (
	"fmt"
	"strings"
)

// VariableKind classifies the head of a path.
type VariableKind int

const (
	// Bare is an identifier whose binding is decided by scope precedence.
	Bare VariableKind = iota
	// Free is a forced free variable (^name).
	Free
	// Arg is a named argument (@name).
	Arg
	// BlockVar is a named block (&name).
	BlockVar
	// Local is an explicit block local ($name). It must be bound by a scope.
	Local
	// This is the template's own context.
	This
)

func (k VariableKind) String() string {
	switch k {
	case Bare:
		return "bare"
	case Free:
		return "free"
	case Arg:
		return "arg"
	case BlockVar:
		return "block"
	case Local:
		return "local"
	case This:
		return "this"
	default:
		return fmt.Sprintf("variable(%d)", int(k))
	}
}

// Variable is a resolved-or-not identifier.
type Variable struct {
	Kind VariableKind
	Name string
}

func (v Variable) String() string {
	switch v.Kind {
	case Free:
		return "^" + v.Name
	case Arg:
		return "@" + v.Name
	case BlockVar:
		return "&" + v.Name
	case Local:
		return "$" + v.Name
	case This:
		return "this"
	default:
		return v.Name
	}
}

// ParsePath splits a path string into its head variable and literal tail.
//
//	this.a.b   -> This, [a b]
//	@title     -> Arg "title"
//	&else      -> BlockVar "else"
//	^helper    -> Free "helper"
//	$item.name -> Local "item", [name]
//	item.name  -> Bare "item", [name]
func ParsePath(path string) (Variable, []string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Variable{}, nil, fmt.Errorf("syntax: empty path")
	}
	parts := strings.Split(path, ".")
	for _, part := range parts {
		if part == "" {
			return Variable{}, nil, fmt.Errorf("syntax: malformed path %q", path)
		}
	}
	head, tail := parts[0], parts[1:]
	if len(tail) == 0 {
		tail = nil
	}

	var v Variable
	switch {
	case head == "this":
		v = Variable{Kind: This}
	case strings.HasPrefix(head, "@"):
		v = Variable{Kind: Arg, Name: head[1:]}
	case strings.HasPrefix(head, "&"):
		v = Variable{Kind: BlockVar, Name: head[1:]}
	case strings.HasPrefix(head, "^"):
		v = Variable{Kind: Free, Name: head[1:]}
	case strings.HasPrefix(head, "$"):
		v = Variable{Kind: Local, Name: head[1:]}
	default:
		v = Variable{Kind: Bare, Name: head}
	}
	if v.Kind != This && v.Name == "" {
		return Variable{}, nil, fmt.Errorf("syntax: malformed path %q", path)
	}
	return v, tail, nil
}

// Statement is a node in content position.
type Statement interface {
	statementNode()
	Kind() string
}

// Expression is a node in value position.
type Expression interface {
	expressionNode()
	Kind() string
}

// Head is a callable expression head: *GetVar or *GetPath.
type Head interface {
	Expression
	headNode()
}

// HashPair is one named parameter.
type HashPair struct {
	Key   string
	Value Expression
}

// Hash is an ordered list of named parameters.
type Hash []HashPair

// Get returns the value stored under key.
func (h Hash) Get(key string) (Expression, bool) {
	for _, pair := range h {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return nil, false
}

// NamedBlock is a block body attached to an invocation.
type NamedBlock struct {
	Name string
	Body []Statement
}

// Blocks is an ordered set of named blocks.
type Blocks []NamedBlock

// Get returns the block named name.
func (b Blocks) Get(name string) (NamedBlock, bool) {
	for _, block := range b {
		if block.Name == name {
			return block, true
		}
	}
	return NamedBlock{}, false
}

// Attr is an element attribute or argument. Names starting with @ are
// arguments. A Splat value stands for ...attributes.
type Attr struct {
	Name  string
	Value Expression
}

// Statements.
type (
	// AppendPath appends the value of a path.
	AppendPath struct {
		Path    *GetPath
		Trusted bool
	}

	// AppendExpr appends the value of an arbitrary expression.
	AppendExpr struct {
		Expr    Expression
		Trusted bool
	}

	// Call invokes a helper or component in content position.
	Call struct {
		Head    Head
		Params  []Expression
		Hash    Hash
		Trusted bool
	}

	// Literal is static text.
	Literal struct {
		Value string
	}

	// Comment is a static comment.
	Comment struct {
		Value string
	}

	// Block is a curly block invocation of a component.
	Block struct {
		Head        Head
		Params      []Expression
		Hash        Hash
		BlockParams []string
		Blocks      Blocks
	}

	// Keyword is a control-flow keyword invocation (if, each, let).
	Keyword struct {
		Name        string
		Params      []Expression
		Hash        Hash
		BlockParams []string
		Blocks      Blocks
	}

	// Element is an element with attributes and an optional body. Body is
	// nil for elements without content.
	Element struct {
		Tag   string
		Attrs []Attr
		Body  []Statement
	}

	// Modifier attaches behaviour to the enclosing element.
	Modifier struct {
		Head   Head
		Params []Expression
		Hash   Hash
	}

	// DynamicComponent invokes a component chosen at runtime.
	DynamicComponent struct {
		Head   Expression
		Params []Expression
		Hash   Hash
		Blocks Blocks
	}
)

func (*AppendPath) statementNode()       {}
func (*AppendExpr) statementNode()       {}
func (*Call) statementNode()             {}
func (*Literal) statementNode()          {}
func (*Comment) statementNode()          {}
func (*Block) statementNode()            {}
func (*Keyword) statementNode()          {}
func (*Element) statementNode()          {}
func (*Modifier) statementNode()         {}
func (*DynamicComponent) statementNode() {}

func (*AppendPath) Kind() string       { return "append-path" }
func (*AppendExpr) Kind() string       { return "append-expr" }
func (*Call) Kind() string             { return "call" }
func (*Literal) Kind() string          { return "literal" }
func (*Comment) Kind() string          { return "comment" }
func (*Block) Kind() string            { return "block" }
func (*Keyword) Kind() string          { return "keyword" }
func (*Element) Kind() string          { return "element" }
func (*Modifier) Kind() string         { return "modifier" }
func (*DynamicComponent) Kind() string { return "dynamic-component" }

// Expressions.
type (
	// GetPath reads Tail off the value of Head.
	GetPath struct {
		Head Variable
		Tail []string
	}

	// GetVar reads a variable.
	GetVar struct {
		Var Variable
	}

	// Concat joins its parts as strings.
	Concat struct {
		Parts []Expression
	}

	// CallExpr is a helper sub-expression.
	CallExpr struct {
		Head   Head
		Params []Expression
		Hash   Hash
	}

	// HasBlock tests whether the named block was supplied.
	HasBlock struct {
		Name string
	}

	// HasBlockParams tests whether the named block declares params.
	HasBlockParams struct {
		Name string
	}

	// LiteralExpr is a string, bool, number, nil or undefined value.
	LiteralExpr struct {
		Value     any
		Undefined bool
	}

	// Splat marks ...attributes in an attribute list.
	Splat struct{}
)

func (*GetPath) expressionNode()        {}
func (*GetVar) expressionNode()         {}
func (*Concat) expressionNode()         {}
func (*CallExpr) expressionNode()       {}
func (*HasBlock) expressionNode()       {}
func (*HasBlockParams) expressionNode() {}
func (*LiteralExpr) expressionNode()    {}
func (*Splat) expressionNode()          {}

func (*GetPath) headNode() {}
func (*GetVar) headNode()  {}

func (*GetPath) Kind() string        { return "get-path" }
func (*GetVar) Kind() string         { return "get-var" }
func (*Concat) Kind() string         { return "concat" }
func (*CallExpr) Kind() string       { return "call-expr" }
func (*HasBlock) Kind() string       { return "has-block" }
func (*HasBlockParams) Kind() string { return "has-block-params" }
func (*LiteralExpr) Kind() string    { return "literal" }
func (*Splat) Kind() string          { return "splat" }

// Path builds a GetPath or GetVar from a path string. It panics on malformed
// input and is meant for statically known paths.
func Path(path string) Head {
	head, tail, err := ParsePath(path)
	if err != nil {
		panic(err)
	}
	if len(tail) == 0 {
		return &GetVar{Var: head}
	}
	return &GetPath{Head: head, Tail: tail}
}

// Lit wraps a literal value.
func Lit(value any) *LiteralExpr {
	return &LiteralExpr{Value: value}
}

// Undefined is the undefined literal.
func Undefined() *LiteralExpr {
	return &LiteralExpr{Undefined: true}
}

// Template is a decoded template document.
type Template struct {
	Name       string
	Locals     []string
	Statements []Statement
}
