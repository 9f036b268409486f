package symbols

import (
	"fmt"
	"slices"
)

// Resolution selects how a free variable is looked up by the consumer of the
// compiled form.
type Resolution int

const (
	Strict Resolution = iota
	ComponentOrHelperHead
	HelperHead
	ModifierHead
	ComponentHead
	// AngleBracketComponentHead is a ComponentHead written as an element tag.
	// Its name goes through the component name customization hook.
	AngleBracketComponentHead
	Lexical
)

func (r Resolution) String() string {
	switch r {
	case Strict:
		return "strict"
	case ComponentOrHelperHead:
		return "component-or-helper-head"
	case HelperHead:
		return "helper-head"
	case ModifierHead:
		return "modifier-head"
	case ComponentHead:
		return "component-head"
	case AngleBracketComponentHead:
		return "angle-bracket-component-head"
	case Lexical:
		return "lexical"
	default:
		return fmt.Sprintf("resolution(%d)", int(r))
	}
}

// Table is the uniform lookup interface shared by program and block scopes.
type Table interface {
	Root() *Program

	// Has reports whether name is bound in a block scope or is a template
	// local in play.
	Has(name string) bool
	// Get resolves name. isRoot reports a template local rather than a block
	// local slot.
	Get(name string) (symbol int, isRoot bool)

	HasKeyword(name string) bool
	GetKeyword(name string) int
	HasLexical(name string) bool

	// HasLocal reports whether name is bound by this or an enclosing block.
	HasLocal(name string) bool
	// Local returns the slot of the innermost block binding of name.
	Local(name string) (int, bool)

	LocalsMap() map[string]int
	DebugInfo() DebugInfo

	AllocateFree(name string, resolution Resolution) int
	AllocateNamed(name string) int
	AllocateBlock(name string) int
	Allocate(identifier string) int

	Child(locals []string) *Block
}

// DebugInfo maps names to slots for diagnostics.
type DebugInfo struct {
	Locals map[string]int
	Upvars map[string]int
}

// Options configures a program table.
type Options struct {
	// Locals are the template locals in play from the enclosing scope.
	Locals []string
	// Keywords are resolved as strict free variables.
	Keywords []string
	// Lexical reports names provided by the lexical environment.
	Lexical func(name string) bool
	// CustomizeComponentName rewrites angle-bracket component names.
	CustomizeComponentName func(name string) string
}

// Program is the root scope of one compile. Slot 0 is reserved for this.
type Program struct {
	opts Options

	symbols    []string
	upvars     []string
	named      map[string]int
	blocks     map[string]int
	usedLocals []string
	size       int
}

var _ Table = (*Program)(nil)
var _ Table = (*Block)(nil)

// NewProgram creates the root table for one compile.
func NewProgram(opts Options) *Program {
	if opts.Lexical == nil {
		opts.Lexical = func(string) bool { return false }
	}
	if opts.CustomizeComponentName == nil {
		opts.CustomizeComponentName = func(name string) string { return name }
	}
	return &Program{
		opts:   opts,
		named:  make(map[string]int),
		blocks: make(map[string]int),
		size:   1,
	}
}

func (p *Program) Root() *Program { return p }

func (p *Program) Has(name string) bool {
	return slices.Contains(p.opts.Locals, name)
}

// Get records name as a used template local and returns its index in
// first-use order.
func (p *Program) Get(name string) (int, bool) {
	if idx := slices.Index(p.usedLocals, name); idx != -1 {
		return idx, true
	}
	p.usedLocals = append(p.usedLocals, name)
	return len(p.usedLocals) - 1, true
}

func (p *Program) HasKeyword(name string) bool {
	return slices.Contains(p.opts.Keywords, name)
}

func (p *Program) GetKeyword(name string) int {
	return p.AllocateFree(name, Strict)
}

func (p *Program) HasLexical(name string) bool {
	return p.opts.Lexical(name)
}

func (p *Program) HasLocal(string) bool { return false }

func (p *Program) Local(string) (int, bool) { return 0, false }

func (p *Program) LocalsMap() map[string]int {
	return map[string]int{}
}

func (p *Program) DebugInfo() DebugInfo {
	return DebugInfo{Locals: p.LocalsMap(), Upvars: cloneSlots(p.named)}
}

// AllocateFree registers name as an upvar, deduplicated program-wide.
func (p *Program) AllocateFree(name string, resolution Resolution) int {
	if resolution == AngleBracketComponentHead {
		name = p.opts.CustomizeComponentName(name)
	}
	if idx := slices.Index(p.upvars, name); idx != -1 {
		return idx
	}
	p.upvars = append(p.upvars, name)
	return len(p.upvars) - 1
}

// AllocateNamed returns the slot of a named argument, allocating it on first
// use.
func (p *Program) AllocateNamed(name string) int {
	if slot, ok := p.named[name]; ok {
		return slot
	}
	slot := p.Allocate(name)
	p.named[name] = slot
	return slot
}

// AllocateBlock returns the slot of a named block. inverse is an alias of else.
func (p *Program) AllocateBlock(name string) int {
	if name == "inverse" {
		name = "else"
	}
	if slot, ok := p.blocks[name]; ok {
		return slot
	}
	slot := p.Allocate("&" + name)
	p.blocks[name] = slot
	return slot
}

// Allocate appends a fresh slot.
func (p *Program) Allocate(identifier string) int {
	p.symbols = append(p.symbols, identifier)
	slot := p.size
	p.size++
	return slot
}

func (p *Program) Child(locals []string) *Block {
	return newBlock(p, locals)
}

// Symbols returns the declared symbol names in slot order, without this.
func (p *Program) Symbols() []string {
	return slices.Clone(p.symbols)
}

// Upvars returns the free variable names in first-reference order.
func (p *Program) Upvars() []string {
	return slices.Clone(p.upvars)
}

// UsedLocals returns the template locals read so far in first-use order.
func (p *Program) UsedLocals() []string {
	return slices.Clone(p.usedLocals)
}

// Named returns a copy of the named argument slots.
func (p *Program) Named() map[string]int {
	return cloneSlots(p.named)
}

// BlockSlots returns a copy of the named block slots.
func (p *Program) BlockSlots() map[string]int {
	return cloneSlots(p.blocks)
}

// Size returns the next free slot, which is also the number of slots in use
// including this.
func (p *Program) Size() int {
	return p.size
}

// Block is a nested scope binding block params. Its slots are allocated in
// the root when the block is created.
type Block struct {
	parent  Table
	symbols []string
	slots   []int
}

func newBlock(parent Table, locals []string) *Block {
	slots := make([]int, len(locals))
	for i, name := range locals {
		slots[i] = parent.Allocate(name)
	}
	return &Block{parent: parent, symbols: slices.Clone(locals), slots: slots}
}

func (b *Block) Root() *Program { return b.parent.Root() }

// Locals returns the names bound by this block.
func (b *Block) Locals() []string { return slices.Clone(b.symbols) }

// Slots returns the slots of Locals, in the same order.
func (b *Block) Slots() []int { return slices.Clone(b.slots) }

func (b *Block) Has(name string) bool {
	return slices.Contains(b.symbols, name) || b.parent.Has(name)
}

func (b *Block) Get(name string) (int, bool) {
	if slot, ok := b.own(name); ok {
		return slot, false
	}
	return b.parent.Get(name)
}

func (b *Block) own(name string) (int, bool) {
	idx := slices.Index(b.symbols, name)
	if idx == -1 {
		return 0, false
	}
	return b.slots[idx], true
}

func (b *Block) HasKeyword(name string) bool { return b.parent.HasKeyword(name) }

func (b *Block) GetKeyword(name string) int { return b.parent.GetKeyword(name) }

func (b *Block) HasLexical(name string) bool { return b.parent.HasLexical(name) }

func (b *Block) HasLocal(name string) bool {
	if _, ok := b.own(name); ok {
		return true
	}
	return b.parent.HasLocal(name)
}

func (b *Block) Local(name string) (int, bool) {
	if slot, ok := b.own(name); ok {
		return slot, true
	}
	return b.parent.Local(name)
}

func (b *Block) LocalsMap() map[string]int {
	out := b.parent.LocalsMap()
	for i, name := range b.symbols {
		out[name] = b.slots[i]
	}
	return out
}

func (b *Block) DebugInfo() DebugInfo {
	locals := b.LocalsMap()
	root := b.Root()
	for name, slot := range root.named {
		locals[name] = slot
	}
	upvars := make(map[string]int, len(root.upvars))
	for i, name := range root.upvars {
		upvars[name] = i
	}
	return DebugInfo{Locals: locals, Upvars: upvars}
}

func (b *Block) AllocateFree(name string, resolution Resolution) int {
	return b.parent.AllocateFree(name, resolution)
}

func (b *Block) AllocateNamed(name string) int { return b.parent.AllocateNamed(name) }

func (b *Block) AllocateBlock(name string) int { return b.parent.AllocateBlock(name) }

func (b *Block) Allocate(identifier string) int { return b.parent.Allocate(identifier) }

func (b *Block) Child(locals []string) *Block {
	return newBlock(b, locals)
}

func cloneSlots(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
