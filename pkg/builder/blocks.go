package builder

import "github.com/goliatone/go-hydrate/pkg/dom"

// LiveBlock tracks the bounds of a region while it is being built.
type LiveBlock interface {
	Bounds

	openElement(element *dom.Node)
	closeElement()
	didAppendNode(node *dom.Node)
	didAppendBounds(bounds Bounds)
	finalize(b *ElementBuilder)
}

// SimpleBlock records the first and last top-level nodes appended to it.
// Nodes inside elements opened in the block do not move its bounds.
type SimpleBlock struct {
	parent  *dom.Node
	first   Bounds
	last    Bounds
	nesting int
}

func newSimpleBlock(parent *dom.Node) *SimpleBlock {
	return &SimpleBlock{parent: parent}
}

func (b *SimpleBlock) ParentElement() *dom.Node { return b.parent }

func (b *SimpleBlock) FirstNode() *dom.Node {
	if b.first == nil {
		return nil
	}
	return b.first.FirstNode()
}

func (b *SimpleBlock) LastNode() *dom.Node {
	if b.last == nil {
		return nil
	}
	return b.last.LastNode()
}

func (b *SimpleBlock) openElement(element *dom.Node) {
	b.didAppendNode(element)
	b.nesting++
}

func (b *SimpleBlock) closeElement() {
	b.nesting--
}

func (b *SimpleBlock) didAppendNode(node *dom.Node) {
	if b.nesting != 0 {
		return
	}
	if b.first == nil {
		b.first = single(b.parent, node)
	}
	b.last = single(b.parent, node)
}

func (b *SimpleBlock) didAppendBounds(bounds Bounds) {
	if b.nesting != 0 {
		return
	}
	if b.first == nil {
		b.first = bounds
	}
	b.last = bounds
}

// An empty block still needs a node to anchor later updates.
func (b *SimpleBlock) finalize(eb *ElementBuilder) {
	if b.first == nil {
		eb.AppendComment("")
	}
}

// UpdatableBlock is a block whose content can be cleared and rebuilt.
type UpdatableBlock struct {
	SimpleBlock
}

// Reset removes the block's nodes and returns the node that followed them.
func (b *UpdatableBlock) Reset() *dom.Node {
	var next *dom.Node
	if b.first != nil {
		next = Clear(b)
	}
	b.first = nil
	b.last = nil
	b.nesting = 0
	return next
}

// RemoteBlock is a block rendered into an out-of-band element.
type RemoteBlock struct {
	SimpleBlock
}

// Clear removes the content rendered into the remote element.
func (b *RemoteBlock) Clear() {
	if b.first != nil {
		Clear(b)
	}
	b.first = nil
	b.last = nil
}

// BoundsList is an ordered sequence of row bounds.
type BoundsList interface {
	Head() Bounds
	Tail() Bounds
}

// BlockList is a block whose bounds are those of its rows. Rows are pushed as
// their own blocks, so the list never records nodes directly.
type BlockList struct {
	parent *dom.Node
	rows   BoundsList
}

func (b *BlockList) ParentElement() *dom.Node { return b.parent }

func (b *BlockList) FirstNode() *dom.Node {
	head := b.rows.Head()
	if head == nil {
		return nil
	}
	return head.FirstNode()
}

func (b *BlockList) LastNode() *dom.Node {
	tail := b.rows.Tail()
	if tail == nil {
		return nil
	}
	return tail.LastNode()
}

func (b *BlockList) openElement(*dom.Node) {
	panic("BUG: cannot open an element directly inside a block list")
}

func (b *BlockList) closeElement() {}

func (b *BlockList) didAppendNode(*dom.Node) {
	panic("BUG: cannot append a node directly inside a block list")
}

func (b *BlockList) didAppendBounds(Bounds) {}

func (b *BlockList) finalize(*ElementBuilder) {}
