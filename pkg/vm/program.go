package vm

import (
	"fmt"
	"io"
	"strings"
)

// Opcode is an executable instruction kind. Opcodes are internal to a
// lowered Program and never persisted.
type Opcode int

const (
	OpText Opcode = iota + 1
	OpComment
	OpOpenElement
	OpStaticAttr
	OpDynamicAttr
	OpFlushElement
	OpCloseElement
	OpAppend
	OpPushSymbol
	OpPushFree
	OpPushConst
	OpGetProperty
	OpConcat
	OpCall
	OpConditional
	OpLet
	OpEnterList
	OpIterate
	OpExitList
	OpInvokeBlock
	OpJump
	OpPop
	OpHalt
)

var opcodeNames = map[Opcode]string{
	OpText:         "Text",
	OpComment:      "Comment",
	OpOpenElement:  "OpenElement",
	OpStaticAttr:   "StaticAttr",
	OpDynamicAttr:  "DynamicAttr",
	OpFlushElement: "FlushElement",
	OpCloseElement: "CloseElement",
	OpAppend:       "Append",
	OpPushSymbol:   "PushSymbol",
	OpPushFree:     "PushFree",
	OpPushConst:    "PushConst",
	OpGetProperty:  "GetProperty",
	OpConcat:       "Concat",
	OpCall:         "Call",
	OpConditional:  "Conditional",
	OpLet:          "Let",
	OpEnterList:    "EnterList",
	OpIterate:      "Iterate",
	OpExitList:     "ExitList",
	OpInvokeBlock:  "InvokeBlock",
	OpJump:         "Jump",
	OpPop:          "Pop",
	OpHalt:         "Halt",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// freeMode selects how PushFree resolves an upvar.
type freeMode int

const (
	// freeValue reads the name from the environment.
	freeValue freeMode = iota
	// freeInvoke calls a helper of that name with no arguments, falling back
	// to the environment.
	freeInvoke
	// freeCallee pushes the helper itself as the head of a Call.
	freeCallee
	// freeLexical reads a template local.
	freeLexical
)

// Instruction is one lowered operation. Operand meaning depends on Op:
//
//	Text, Comment        Name = content
//	OpenElement          Name = tag
//	StaticAttr           Name, Value (string), Namespace
//	DynamicAttr          Name, Namespace; pops the value
//	Append               Flag = trusted; pops the value
//	PushSymbol           A = slot
//	PushFree             A = upvar index, B = mode, Name = upvar
//	PushConst            Value
//	GetProperty          Name
//	Concat               A = part count
//	Call                 A = positional count, Names = hash keys
//	Conditional          A = then handle, B = else handle or -1
//	Let                  A = block handle, B = value count
//	EnterList            A = else target
//	Iterate              A = break target, B = row handle
//	InvokeBlock, Jump    A = handle or target
type Instruction struct {
	Op        Opcode
	A, B      int
	Name      string
	Namespace string
	Names     []string
	Value     any
	Flag      bool
}

func (in Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	switch in.Op {
	case OpText, OpComment, OpOpenElement, OpGetProperty:
		fmt.Fprintf(&b, " %q", in.Name)
	case OpStaticAttr:
		fmt.Fprintf(&b, " %s=%q", in.Name, in.Value)
	case OpDynamicAttr:
		fmt.Fprintf(&b, " %s", in.Name)
	case OpAppend:
		if in.Flag {
			b.WriteString(" trusted")
		}
	case OpPushFree:
		fmt.Fprintf(&b, " %s mode=%d", in.Name, in.B)
	case OpPushConst:
		fmt.Fprintf(&b, " %#v", in.Value)
	case OpCall:
		fmt.Fprintf(&b, " positional=%d named=%v", in.A, in.Names)
	case OpConditional, OpLet, OpIterate:
		fmt.Fprintf(&b, " %d %d", in.A, in.B)
	case OpPushSymbol, OpConcat, OpEnterList, OpInvokeBlock, OpJump:
		fmt.Fprintf(&b, " %d", in.A)
	}
	return b.String()
}

// Block is a lowered statement list. Params are the symbol slots bound when
// the block is invoked with values.
type Block struct {
	Ops    []Instruction
	Params []int
}

// Program is a lowered template. Blocks is the heap of handles; Main is the
// entry block.
type Program struct {
	Blocks     []Block
	Main       int
	Symbols    []string
	Upvars     []string
	UsedLocals []string
}

// Size returns the number of symbol slots including this.
func (p *Program) Size() int {
	return len(p.Symbols) + 1
}

// Dump writes a listing of every block.
func (p *Program) Dump(w io.Writer) error {
	for handle, block := range p.Blocks {
		marker := ""
		if handle == p.Main {
			marker = " (main)"
		}
		if _, err := fmt.Fprintf(w, "block %d%s params=%v\n", handle, marker, block.Params); err != nil {
			return err
		}
		for pc, in := range block.Ops {
			if _, err := fmt.Fprintf(w, "  %3d  %s\n", pc, in); err != nil {
				return err
			}
		}
	}
	return nil
}
