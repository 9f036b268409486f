package builder

import (
	"strings"

	"github.com/goliatone/go-hydrate/pkg/dom"
)

// mode holds the operations whose behaviour differs between live
// construction, serialization and rehydration.
type mode interface {
	openBlock(b *ElementBuilder)
	closeBlock(b *ElementBuilder)
	openElement(b *ElementBuilder, tag string) *dom.Node
	setAttribute(b *ElementBuilder, name, value, namespace string)
	flushElement(b *ElementBuilder, parent, element *dom.Node)
	closeElement(b *ElementBuilder)
	willCloseElement(b *ElementBuilder)
	appendText(b *ElementBuilder, text string) *dom.Node
	appendComment(b *ElementBuilder, text string) *dom.Node
	appendHTML(b *ElementBuilder, markup string) (Bounds, error)
	pushElement(b *ElementBuilder, element, nextSibling *dom.Node)
	pushRemoteElement(b *ElementBuilder, element *dom.Node, guid string, insertBefore *dom.Node, replace bool) *RemoteBlock
}

// live always constructs fresh nodes.
type live struct{}

func (live) openBlock(*ElementBuilder)  {}
func (live) closeBlock(*ElementBuilder) {}

func (live) openElement(b *ElementBuilder, tag string) *dom.Node {
	parent := b.Element()
	namespace := ""
	if strings.EqualFold(tag, "svg") ||
		(parent != nil && parent.Namespace == dom.NamespaceSVG && !parent.IsElement("foreignObject")) {
		namespace = dom.NamespaceSVG
	}
	return b.doc.CreateElementNS(namespace, tag)
}

func (live) setAttribute(b *ElementBuilder, name, value, namespace string) {
	b.constructing.SetAttribute(name, value, namespace)
}

func (live) flushElement(b *ElementBuilder, parent, element *dom.Node) {
	parent.InsertBefore(element, b.NextSibling())
}

func (live) closeElement(b *ElementBuilder) {
	b.closeElement()
}

func (live) willCloseElement(b *ElementBuilder) {
	b.block().closeElement()
}

func (live) appendText(b *ElementBuilder, text string) *dom.Node {
	node := b.doc.CreateText(text)
	b.Element().InsertBefore(node, b.NextSibling())
	return node
}

func (live) appendComment(b *ElementBuilder, text string) *dom.Node {
	node := b.doc.CreateComment(text)
	b.Element().InsertBefore(node, b.NextSibling())
	return node
}

func (live) appendHTML(b *ElementBuilder, markup string) (Bounds, error) {
	parent := b.Element()
	first, last, err := b.doc.CreateRawHTMLSection(parent, b.NextSibling(), markup)
	if err != nil {
		return nil, err
	}
	return NodeBounds{Parent: parent, First: first, Last: last}, nil
}

func (live) pushElement(b *ElementBuilder, element, nextSibling *dom.Node) {
	b.cursors = append(b.cursors, &cursor{element: element, nextSibling: nextSibling})
}

func (live) pushRemoteElement(b *ElementBuilder, element *dom.Node, _ string, insertBefore *dom.Node, replace bool) *RemoteBlock {
	if replace {
		for element.FirstChild != nil {
			element.RemoveChild(element.FirstChild)
		}
		insertBefore = nil
	}
	b.mode.pushElement(b, element, insertBefore)
	block := &RemoteBlock{SimpleBlock: *newSimpleBlock(element)}
	b.pushLiveBlock(block, true)
	return block
}
