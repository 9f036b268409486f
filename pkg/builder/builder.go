package builder

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/goliatone/go-hydrate/internal/logging"
	"github.com/goliatone/go-hydrate/pkg/dom"
)

// Builder is the construction interface the execution engine drives. All
// modes share it: live construction, server serialization and rehydration.
type Builder interface {
	Document() *dom.Document
	Element() *dom.Node
	NextSibling() *dom.Node

	OpenElement(tag string) *dom.Node
	SetStaticAttribute(name, value, namespace string)
	SetDynamicAttribute(name string, value any, namespace string) *DynamicAttribute
	FlushElement()
	CloseElement()

	AppendText(text string) *dom.Node
	AppendComment(text string) *dom.Node
	AppendTrustedHTML(markup string) (Bounds, error)

	PushSimpleBlock() *SimpleBlock
	PushUpdatableBlock() *UpdatableBlock
	PushBlockList(rows BoundsList) *BlockList
	PopBlock() LiveBlock

	PushRemoteElement(element *dom.Node, guid string, insertBefore *dom.Node, replace bool) *RemoteBlock
	PopRemoteElement() LiveBlock

	Finalize() (LiveBlock, error)
}

var _ Builder = (*ElementBuilder)(nil)

// Option configures an ElementBuilder.
type Option func(*ElementBuilder)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *ElementBuilder) {
		b.logger = logging.OrDiscard(logger)
	}
}

// cursor is an insertion point. The rehydration fields are unused by the
// other modes.
type cursor struct {
	element     *dom.Node
	nextSibling *dom.Node

	candidate           *dom.Node
	openBlockDepth      int
	startingBlockDepth  int
	injectedOmittedNode bool
}

// ElementBuilder appends nodes at the top cursor and tracks block bounds. The
// cursor and block stacks belong to a single render.
type ElementBuilder struct {
	doc          *dom.Document
	cursors      []*cursor
	blocks       []LiveBlock
	constructing *dom.Node
	mode         mode
	logger       *slog.Logger
}

func newElementBuilder(doc *dom.Document, m mode, options ...Option) *ElementBuilder {
	b := &ElementBuilder{doc: doc, mode: m, logger: logging.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// NewLive returns a builder that constructs fresh nodes inside parent,
// before nextSibling.
func NewLive(doc *dom.Document, parent, nextSibling *dom.Node, options ...Option) *ElementBuilder {
	b := newElementBuilder(doc, &live{}, options...)
	b.mode.pushElement(b, parent, nextSibling)
	b.PushSimpleBlock()
	return b
}

// Resume returns a live builder that rebuilds the content of block in place.
// The caller pops block and finalizes the builder when done.
func Resume(doc *dom.Document, block *UpdatableBlock, options ...Option) *ElementBuilder {
	parent := block.ParentElement()
	next := block.Reset()
	b := NewLive(doc, parent, next, options...)
	b.pushLiveBlock(block, false)
	return b
}

// Document returns the document nodes are created in.
func (b *ElementBuilder) Document() *dom.Document {
	return b.doc
}

func (b *ElementBuilder) current() *cursor {
	if len(b.cursors) == 0 {
		return nil
	}
	return b.cursors[len(b.cursors)-1]
}

// Element returns the element children are currently appended to.
func (b *ElementBuilder) Element() *dom.Node {
	if c := b.current(); c != nil {
		return c.element
	}
	return nil
}

// NextSibling returns the node new children are inserted before.
func (b *ElementBuilder) NextSibling() *dom.Node {
	if c := b.current(); c != nil {
		return c.nextSibling
	}
	return nil
}

// Depth returns the number of open cursors.
func (b *ElementBuilder) Depth() int {
	return len(b.cursors)
}

// Stats returns rehydration counters. Other modes report zero values.
func (b *ElementBuilder) Stats() Stats {
	if r, ok := b.mode.(*rehydrator); ok {
		return r.stats
	}
	return Stats{}
}

func (b *ElementBuilder) block() LiveBlock {
	if len(b.blocks) == 0 {
		panic("BUG: no open block")
	}
	return b.blocks[len(b.blocks)-1]
}

// OpenElement starts an element. Attributes are set until FlushElement.
func (b *ElementBuilder) OpenElement(tag string) *dom.Node {
	element := b.mode.openElement(b, tag)
	b.constructing = element
	return element
}

// SetStaticAttribute sets an attribute on the element under construction.
func (b *ElementBuilder) SetStaticAttribute(name, value, namespace string) {
	b.mode.setAttribute(b, name, value, namespace)
}

// SetDynamicAttribute sets an attribute whose value can change later and
// returns its handle.
func (b *ElementBuilder) SetDynamicAttribute(name string, value any, namespace string) *DynamicAttribute {
	attr := &DynamicAttribute{element: b.constructing, name: name, namespace: namespace}
	if normalized, ok := NormalizeAttributeValue(value); ok {
		b.mode.setAttribute(b, name, normalized, namespace)
		attr.last, attr.present = normalized, true
	}
	return attr
}

// FlushElement inserts the element under construction and descends into it.
func (b *ElementBuilder) FlushElement() {
	parent := b.Element()
	element := b.constructing
	if element == nil {
		panic("BUG: flush without an open element")
	}
	b.mode.flushElement(b, parent, element)
	b.constructing = nil
	b.mode.pushElement(b, element, nil)
	b.block().openElement(element)
}

// CloseElement ascends out of the current element.
func (b *ElementBuilder) CloseElement() {
	b.mode.closeElement(b)
}

func (b *ElementBuilder) closeElement() {
	b.mode.willCloseElement(b)
	b.popElement()
}

func (b *ElementBuilder) popElement() {
	if len(b.cursors) == 0 {
		panic("BUG: pop on an empty cursor stack")
	}
	b.cursors = b.cursors[:len(b.cursors)-1]
}

// AppendText appends a text node.
func (b *ElementBuilder) AppendText(text string) *dom.Node {
	node := b.mode.appendText(b, text)
	b.block().didAppendNode(node)
	return node
}

// AppendComment appends a comment node.
func (b *ElementBuilder) AppendComment(text string) *dom.Node {
	node := b.mode.appendComment(b, text)
	b.block().didAppendNode(node)
	return node
}

// AppendTrustedHTML appends raw markup without escaping.
func (b *ElementBuilder) AppendTrustedHTML(markup string) (Bounds, error) {
	bounds, err := b.mode.appendHTML(b, markup)
	if err != nil {
		return nil, err
	}
	b.block().didAppendBounds(bounds)
	return bounds, nil
}

// PushSimpleBlock opens a block with fixed content.
func (b *ElementBuilder) PushSimpleBlock() *SimpleBlock {
	block := newSimpleBlock(b.Element())
	b.pushLiveBlock(block, false)
	return block
}

// PushUpdatableBlock opens a block that can later be reset and rebuilt.
func (b *ElementBuilder) PushUpdatableBlock() *UpdatableBlock {
	block := &UpdatableBlock{SimpleBlock: *newSimpleBlock(b.Element())}
	b.pushLiveBlock(block, false)
	return block
}

// PushBlockList opens a block whose bounds are given by rows.
func (b *ElementBuilder) PushBlockList(rows BoundsList) *BlockList {
	block := &BlockList{parent: b.Element(), rows: rows}
	b.pushLiveBlock(block, false)
	return block
}

func (b *ElementBuilder) pushLiveBlock(block LiveBlock, remote bool) {
	if len(b.blocks) > 0 && !remote {
		b.block().didAppendBounds(block)
	}
	b.mode.openBlock(b)
	b.blocks = append(b.blocks, block)
}

// PopBlock closes the innermost block.
func (b *ElementBuilder) PopBlock() LiveBlock {
	block := b.block()
	block.finalize(b)
	b.mode.closeBlock(b)
	b.blocks = b.blocks[:len(b.blocks)-1]
	return block
}

// PushRemoteElement redirects output into element, an out-of-band target.
// With replace set the element's existing content is cleared first.
func (b *ElementBuilder) PushRemoteElement(element *dom.Node, guid string, insertBefore *dom.Node, replace bool) *RemoteBlock {
	return b.mode.pushRemoteElement(b, element, guid, insertBefore, replace)
}

// PopRemoteElement closes the block opened by PushRemoteElement.
func (b *ElementBuilder) PopRemoteElement() LiveBlock {
	block := b.PopBlock()
	b.popElement()
	return block
}

// Finalize closes the root block and checks that every cursor was unwound.
func (b *ElementBuilder) Finalize() (LiveBlock, error) {
	if len(b.blocks) != 1 {
		return nil, fmt.Errorf("%w: %d blocks open", ErrUnbalancedCursors, len(b.blocks))
	}
	root := b.PopBlock()
	if len(b.cursors) != 1 {
		return nil, fmt.Errorf("%w: %d cursors open", ErrUnbalancedCursors, len(b.cursors))
	}
	b.popElement()
	return root, nil
}

// DynamicAttribute is an attribute whose value is tracked after the initial
// render.
type DynamicAttribute struct {
	element   *dom.Node
	name      string
	namespace string
	last      string
	present   bool
}

// Element returns the element the attribute belongs to.
func (a *DynamicAttribute) Element() *dom.Node {
	return a.element
}

// Name returns the attribute name.
func (a *DynamicAttribute) Name() string {
	return a.name
}

// Update writes value to the live element when it changed. Values that
// normalize to absent remove the attribute.
func (a *DynamicAttribute) Update(value any) {
	normalized, ok := NormalizeAttributeValue(value)
	if !ok {
		if a.present {
			a.element.RemoveAttribute(a.name)
			a.present = false
		}
		return
	}
	if a.present && a.last == normalized {
		return
	}
	a.element.SetAttribute(a.name, normalized, a.namespace)
	a.last, a.present = normalized, true
}

// NormalizeAttributeValue converts value to its attribute text. nil and false
// mean the attribute is absent; true is the empty string.
func NormalizeAttributeValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		return "", v
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
