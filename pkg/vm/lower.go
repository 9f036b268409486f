package vm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/goliatone/go-hydrate/pkg/reference"
	"github.com/goliatone/go-hydrate/pkg/wire"
)

// Lower encodes a compiled template into a Program. Nested blocks become
// handles on the program heap. Each iteration gets its own site block so it
// can be re-entered on its own when the list flips between empty and
// non-empty.
func Lower(tmpl *wire.Template) (*Program, error) {
	if tmpl == nil {
		return nil, errors.New("vm: template is required")
	}
	l := &lowerer{program: &Program{
		Symbols:    slices.Clone(tmpl.Symbols),
		Upvars:     slices.Clone(tmpl.Upvars),
		UsedLocals: slices.Clone(tmpl.UsedLocals),
	}}
	main, err := l.block(tmpl.Statements, nil)
	if err != nil {
		return nil, err
	}
	l.program.Main = main
	return l.program, nil
}

type lowerer struct {
	program *Program
}

func (l *lowerer) reserve() int {
	l.program.Blocks = append(l.program.Blocks, Block{})
	return len(l.program.Blocks) - 1
}

func (l *lowerer) block(statements []wire.Statement, params []int) (int, error) {
	handle := l.reserve()
	var (
		ops []Instruction
		err error
	)
	for _, statement := range statements {
		if ops, err = l.statement(ops, statement); err != nil {
			return 0, err
		}
	}
	ops = append(ops, Instruction{Op: OpHalt})
	l.program.Blocks[handle] = Block{Ops: ops, Params: slices.Clone(params)}
	return handle, nil
}

func (l *lowerer) serialized(block *wire.SerializedBlock) (int, error) {
	if block == nil {
		return l.block(nil, nil)
	}
	return l.block(block.Statements, block.Parameters)
}

func unsupported(op wire.Op) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, op)
}

func (l *lowerer) statement(ops []Instruction, statement wire.Statement) ([]Instruction, error) {
	var err error
	switch s := statement.(type) {
	case *wire.Append:
		if lit, ok := s.Value.(*wire.Literal); ok {
			return append(ops, Instruction{Op: OpText, Name: normalizeText(lit.Value)}), nil
		}
		if ops, err = l.expression(ops, s.Value, false); err != nil {
			return nil, err
		}
		return append(ops, Instruction{Op: OpAppend}), nil
	case *wire.TrustingAppend:
		if ops, err = l.expression(ops, s.Value, false); err != nil {
			return nil, err
		}
		return append(ops, Instruction{Op: OpAppend, Flag: true}), nil
	case *wire.Comment:
		return append(ops, Instruction{Op: OpComment, Name: s.Value}), nil
	case *wire.OpenElement:
		return append(ops, Instruction{Op: OpOpenElement, Name: s.Tag}), nil
	case *wire.StaticAttr:
		return append(ops, Instruction{Op: OpStaticAttr, Name: s.Name, Value: s.Value, Namespace: s.Namespace}), nil
	case *wire.DynamicAttr:
		if ops, err = l.expression(ops, s.Value, false); err != nil {
			return nil, err
		}
		return append(ops, Instruction{Op: OpDynamicAttr, Name: s.Name, Namespace: s.Namespace}), nil
	case *wire.FlushElement:
		return append(ops, Instruction{Op: OpFlushElement}), nil
	case *wire.CloseElement:
		return append(ops, Instruction{Op: OpCloseElement}), nil
	case *wire.If:
		return l.conditional(ops, s)
	case *wire.Let:
		return l.let(ops, s)
	case *wire.Each:
		return l.each(ops, s)
	case nil:
		return nil, errors.New("vm: nil statement")
	default:
		return nil, unsupported(statement.Op())
	}
}

func (l *lowerer) conditional(ops []Instruction, s *wire.If) ([]Instruction, error) {
	ops, err := l.expression(ops, s.Condition, false)
	if err != nil {
		return nil, err
	}
	then, err := l.serialized(s.Block)
	if err != nil {
		return nil, err
	}
	inverse := -1
	if s.Inverse != nil {
		if inverse, err = l.serialized(s.Inverse); err != nil {
			return nil, err
		}
	}
	return append(ops, Instruction{Op: OpConditional, A: then, B: inverse}), nil
}

func (l *lowerer) let(ops []Instruction, s *wire.Let) ([]Instruction, error) {
	var err error
	for _, param := range s.Params {
		if ops, err = l.expression(ops, param, false); err != nil {
			return nil, err
		}
	}
	body, err := l.serialized(s.Block)
	if err != nil {
		return nil, err
	}
	ops = append(ops, Instruction{Op: OpLet, A: body, B: len(s.Params)})
	return ops, nil
}

// each pushes the list and key, then invokes a site block laid out as:
//
//	0  EnterList   else
//	1  Iterate     exit, row
//	2  Jump        1
//	   InvokeBlock inverse   (else)
//	   ExitList              (exit)
//	   Halt
func (l *lowerer) each(ops []Instruction, s *wire.Each) ([]Instruction, error) {
	ops, err := l.expression(ops, s.List, false)
	if err != nil {
		return nil, err
	}
	if s.Key == nil {
		ops = append(ops, Instruction{Op: OpPushConst, Value: reference.KeyIdentity})
	} else if ops, err = l.expression(ops, s.Key, false); err != nil {
		return nil, err
	}

	site := l.reserve()
	row, err := l.serialized(s.Block)
	if err != nil {
		return nil, err
	}
	body := []Instruction{
		{Op: OpEnterList},
		{Op: OpIterate, B: row},
		{Op: OpJump, A: 1},
	}
	elseAt := len(body)
	if s.Inverse != nil {
		inverse, err := l.serialized(s.Inverse)
		if err != nil {
			return nil, err
		}
		body = append(body, Instruction{Op: OpInvokeBlock, A: inverse})
	}
	exitAt := len(body)
	body = append(body, Instruction{Op: OpExitList}, Instruction{Op: OpHalt})
	body[0].A = elseAt
	body[1].A = exitAt
	l.program.Blocks[site] = Block{Ops: body}

	return append(ops, Instruction{Op: OpInvokeBlock, A: site}), nil
}

func (l *lowerer) expression(ops []Instruction, expr wire.Expression, callee bool) ([]Instruction, error) {
	var err error
	switch e := expr.(type) {
	case *wire.Literal:
		return append(ops, Instruction{Op: OpPushConst, Value: e.Value}), nil
	case *wire.Undefined:
		return append(ops, Instruction{Op: OpPushConst}), nil
	case *wire.Get:
		if ops, err = l.get(ops, e, callee); err != nil {
			return nil, err
		}
		for _, part := range e.Path {
			ops = append(ops, Instruction{Op: OpGetProperty, Name: part})
		}
		return ops, nil
	case *wire.Concat:
		for _, part := range e.Parts {
			if ops, err = l.expression(ops, part, false); err != nil {
				return nil, err
			}
		}
		return append(ops, Instruction{Op: OpConcat, A: len(e.Parts)}), nil
	case *wire.Call:
		if ops, err = l.expression(ops, e.Head, true); err != nil {
			return nil, err
		}
		for _, param := range e.Params {
			if ops, err = l.expression(ops, param, false); err != nil {
				return nil, err
			}
		}
		var names []string
		if e.Hash != nil {
			names = slices.Clone(e.Hash.Keys)
			for _, value := range e.Hash.Values {
				if ops, err = l.expression(ops, value, false); err != nil {
					return nil, err
				}
			}
		}
		return append(ops, Instruction{Op: OpCall, A: len(e.Params), Names: names}), nil
	case nil:
		return nil, errors.New("vm: nil expression")
	default:
		return nil, unsupported(expr.Op())
	}
}

func (l *lowerer) get(ops []Instruction, e *wire.Get, callee bool) ([]Instruction, error) {
	switch e.Kind {
	case wire.OpGetSymbol:
		if e.Symbol < 0 || e.Symbol >= l.program.Size() {
			return nil, fmt.Errorf("vm: symbol %d out of range", e.Symbol)
		}
		return append(ops, Instruction{Op: OpPushSymbol, A: e.Symbol}), nil
	case wire.OpGetLexicalSymbol:
		if e.Symbol < 0 || e.Symbol >= len(l.program.UsedLocals) {
			return nil, fmt.Errorf("vm: lexical symbol %d out of range", e.Symbol)
		}
		return append(ops, Instruction{
			Op:   OpPushFree,
			A:    e.Symbol,
			B:    int(freeLexical),
			Name: l.program.UsedLocals[e.Symbol],
		}), nil
	case wire.OpGetStrictKeyword, wire.OpGetFreeAsComponentOrHelperHead, wire.OpGetFreeAsHelperHead:
		if e.Symbol < 0 || e.Symbol >= len(l.program.Upvars) {
			return nil, fmt.Errorf("vm: upvar %d out of range", e.Symbol)
		}
		mode := freeValue
		switch {
		case callee && len(e.Path) == 0:
			mode = freeCallee
		case e.Kind != wire.OpGetStrictKeyword && len(e.Path) == 0:
			mode = freeInvoke
		}
		return append(ops, Instruction{
			Op:   OpPushFree,
			A:    e.Symbol,
			B:    int(mode),
			Name: l.program.Upvars[e.Symbol],
		}), nil
	default:
		return nil, unsupported(e.Kind)
	}
}
