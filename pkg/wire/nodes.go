package wire

import (
	"encoding/json"
)

// Statement is a compiled content instruction.
type Statement interface {
	Op() Op
	json.Marshaler
}

// Expression is a compiled value. Literals are represented by *Literal.
type Expression interface {
	Op() Op
	json.Marshaler
}

// Hash is an ordered set of named expressions. A nil *Hash marshals as null.
type Hash struct {
	Keys   []string
	Values []Expression
}

// Len returns the number of pairs.
func (h *Hash) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Keys)
}

// Get returns the expression stored under key.
func (h *Hash) Get(key string) (Expression, bool) {
	if h == nil {
		return nil, false
	}
	for i, k := range h.Keys {
		if k == key {
			return h.Values[i], true
		}
	}
	return nil, false
}

func (h *Hash) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]any{h.Keys, h.Values})
}

// SerializedBlock is an inline block body with the slots of its params.
type SerializedBlock struct {
	Statements []Statement
	Parameters []int
}

func (b *SerializedBlock) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	statements := b.Statements
	if statements == nil {
		statements = []Statement{}
	}
	params := b.Parameters
	if params == nil {
		params = []int{}
	}
	return json.Marshal([]any{statements, params})
}

// Blocks is an ordered set of named inline blocks.
type Blocks struct {
	Names  []string
	Blocks []*SerializedBlock
}

// Get returns the block named name.
func (b *Blocks) Get(name string) (*SerializedBlock, bool) {
	if b == nil {
		return nil, false
	}
	for i, n := range b.Names {
		if n == name {
			return b.Blocks[i], true
		}
	}
	return nil, false
}

func (b *Blocks) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]any{b.Names, b.Blocks})
}

func params(exprs []Expression) any {
	if len(exprs) == 0 {
		return nil
	}
	return exprs
}

// Statements.
type (
	Append struct {
		Value Expression
	}

	TrustingAppend struct {
		Value Expression
	}

	Comment struct {
		Value string
	}

	OpenElement struct {
		Tag string
	}

	OpenElementWithSplat struct {
		Tag string
	}

	FlushElement struct{}

	CloseElement struct{}

	StaticAttr struct {
		Name      string
		Value     string
		Namespace string
	}

	DynamicAttr struct {
		Name      string
		Value     Expression
		Namespace string
	}

	AttrSplat struct {
		Symbol int
	}

	// Block is a curly block invocation of a component.
	Block struct {
		Head   Expression
		Params []Expression
		Hash   *Hash
		Blocks *Blocks
	}

	// Component is an angle bracket invocation.
	Component struct {
		Head   Expression
		Attrs  []Statement
		Args   *Hash
		Blocks *Blocks
	}

	If struct {
		Condition Expression
		Block     *SerializedBlock
		Inverse   *SerializedBlock
	}

	Each struct {
		List    Expression
		Key     Expression
		Block   *SerializedBlock
		Inverse *SerializedBlock
	}

	Let struct {
		Params []Expression
		Block  *SerializedBlock
	}
)

func (*Append) Op() Op               { return OpAppend }
func (*TrustingAppend) Op() Op       { return OpTrustingAppend }
func (*Comment) Op() Op              { return OpComment }
func (*OpenElement) Op() Op          { return OpOpenElement }
func (*OpenElementWithSplat) Op() Op { return OpOpenElementWithSplat }
func (*FlushElement) Op() Op         { return OpFlushElement }
func (*CloseElement) Op() Op         { return OpCloseElement }
func (*StaticAttr) Op() Op           { return OpStaticAttr }
func (*DynamicAttr) Op() Op          { return OpDynamicAttr }
func (*AttrSplat) Op() Op            { return OpAttrSplat }
func (*Block) Op() Op                { return OpBlock }
func (*Component) Op() Op            { return OpComponent }
func (*If) Op() Op                   { return OpIf }
func (*Each) Op() Op                 { return OpEach }
func (*Let) Op() Op                  { return OpLet }

func (s *Append) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Value})
}

func (s *TrustingAppend) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Value})
}

func (s *Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Value})
}

func (s *OpenElement) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Tag})
}

func (s *OpenElementWithSplat) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Tag})
}

func (s *FlushElement) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op()})
}

func (s *CloseElement) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op()})
}

func (s *StaticAttr) MarshalJSON() ([]byte, error) {
	if s.Namespace == "" {
		return json.Marshal([]any{s.Op(), s.Name, s.Value})
	}
	return json.Marshal([]any{s.Op(), s.Name, s.Value, s.Namespace})
}

func (s *DynamicAttr) MarshalJSON() ([]byte, error) {
	if s.Namespace == "" {
		return json.Marshal([]any{s.Op(), s.Name, s.Value})
	}
	return json.Marshal([]any{s.Op(), s.Name, s.Value, s.Namespace})
}

func (s *AttrSplat) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Symbol})
}

func (s *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Head, params(s.Params), s.Hash, s.Blocks})
}

func (s *Component) MarshalJSON() ([]byte, error) {
	var attrs any
	if len(s.Attrs) > 0 {
		attrs = s.Attrs
	}
	return json.Marshal([]any{s.Op(), s.Head, attrs, s.Args, s.Blocks})
}

func (s *If) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Condition, s.Block, s.Inverse})
}

func (s *Each) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.List, s.Key, s.Block, s.Inverse})
}

func (s *Let) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Op(), s.Params, s.Block})
}

// Expressions.
type (
	// Get reads a symbol, lexical symbol or upvar selected by Kind, then
	// walks Path.
	Get struct {
		Kind   Op
		Symbol int
		Path   []string
	}

	Undefined struct{}

	Concat struct {
		Parts []Expression
	}

	Call struct {
		Head   Expression
		Params []Expression
		Hash   *Hash
	}

	HasBlock struct {
		Block Expression
	}

	HasBlockParams struct {
		Block Expression
	}

	// Literal is a string, number, bool or null value.
	Literal struct {
		Value any
	}
)

func (e *Get) Op() Op          { return e.Kind }
func (*Undefined) Op() Op      { return OpUndefined }
func (*Concat) Op() Op         { return OpConcat }
func (*Call) Op() Op           { return OpCall }
func (*HasBlock) Op() Op       { return OpHasBlock }
func (*HasBlockParams) Op() Op { return OpHasBlockParams }

// Op of a literal is zero: literals are bare JSON values on the wire.
func (*Literal) Op() Op { return 0 }

func (e *Get) MarshalJSON() ([]byte, error) {
	if len(e.Path) == 0 {
		return json.Marshal([]any{e.Kind, e.Symbol})
	}
	return json.Marshal([]any{e.Kind, e.Symbol, e.Path})
}

func (e *Undefined) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Op()})
}

func (e *Concat) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Op(), e.Parts})
}

func (e *Call) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Op(), e.Head, params(e.Params), e.Hash})
}

func (e *HasBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Op(), e.Block})
}

func (e *HasBlockParams) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Op(), e.Block})
}

func (e *Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value)
}

// Template is the persisted compiled form.
type Template struct {
	Statements []Statement `json:"statements"`
	Symbols    []string    `json:"symbols"`
	Upvars     []string    `json:"upvars"`
	UsedLocals []string    `json:"usedLocals,omitempty"`
}
