package dom

import (
	"fmt"
	"strings"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
	FragmentNode
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case FragmentNode:
		return "fragment"
	default:
		return fmt.Sprintf("node(%d)", int(t))
	}
}

// Namespace URIs.
const (
	NamespaceHTML = "http://www.w3.org/1999/xhtml"
	NamespaceSVG  = "http://www.w3.org/2000/svg"
)

// Attribute is a name/value pair on an element.
type Attribute struct {
	Name      string
	Value     string
	Namespace string
}

// Node is an element, text, comment or fragment in a document tree. Nodes are
// created through a Document so that structural changes can be counted.
type Node struct {
	Type      NodeType
	Tag       string
	Namespace string
	Data      string

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node

	attrs []Attribute
	doc   *Document
}

// Document returns the document that created n.
func (n *Node) Document() *Document {
	return n.doc
}

// IsElement reports whether n is an element with the given tag. Tags compare
// case-insensitively outside the SVG namespace.
func (n *Node) IsElement(tag string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	if n.Namespace == NamespaceSVG {
		return n.Tag == tag
	}
	return strings.EqualFold(n.Tag, tag)
}

// IsComment reports whether n is a comment with the given data.
func (n *Node) IsComment(data string) bool {
	return n != nil && n.Type == CommentNode && n.Data == data
}

// ChildNodes returns the children of n in order.
func (n *Node) ChildNodes() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// InsertBefore inserts child before ref, or appends it when ref is nil. A
// fragment child moves its children instead of itself. child is detached from
// its current parent first.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == nil {
		return
	}
	if ref != nil && ref.Parent != n {
		panic("dom: insert before a node of another parent")
	}
	if child.Type == FragmentNode {
		for c := child.FirstChild; c != nil; {
			next := c.NextSibling
			n.InsertBefore(c, ref)
			c = next
		}
		return
	}
	if child.Parent != nil {
		child.Parent.unlink(child)
	}

	child.Parent = n
	child.NextSibling = ref
	if ref == nil {
		child.PrevSibling = n.LastChild
		if n.LastChild != nil {
			n.LastChild.NextSibling = child
		} else {
			n.FirstChild = child
		}
		n.LastChild = child
	} else {
		child.PrevSibling = ref.PrevSibling
		if ref.PrevSibling != nil {
			ref.PrevSibling.NextSibling = child
		} else {
			n.FirstChild = child
		}
		ref.PrevSibling = child
	}
	if n.doc != nil {
		n.doc.changes.Inserted++
	}
}

// AppendChild appends child to n.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// RemoveChild detaches child from n and returns its former next sibling.
func (n *Node) RemoveChild(child *Node) *Node {
	if child == nil || child.Parent != n {
		panic("dom: remove a node that is not a child")
	}
	next := child.NextSibling
	n.unlink(child)
	if n.doc != nil {
		n.doc.changes.Removed++
	}
	return next
}

func (n *Node) unlink(child *Node) {
	if child.PrevSibling != nil {
		child.PrevSibling.NextSibling = child.NextSibling
	} else {
		n.FirstChild = child.NextSibling
	}
	if child.NextSibling != nil {
		child.NextSibling.PrevSibling = child.PrevSibling
	} else {
		n.LastChild = child.PrevSibling
	}
	child.Parent = nil
	child.PrevSibling = nil
	child.NextSibling = nil
}

// SetData replaces the value of a text or comment node.
func (n *Node) SetData(data string) {
	if n.Data == data {
		return
	}
	n.Data = data
	if n.doc != nil {
		n.doc.changes.DataWrites++
	}
}

// Attributes returns a copy of the element's attributes in document order.
func (n *Node) Attributes() []Attribute {
	return append([]Attribute(nil), n.attrs...)
}

// GetAttribute returns the value of the named attribute.
func (n *Node) GetAttribute(name string) (string, bool) {
	for _, attr := range n.attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// SetAttribute sets the named attribute, appending it when absent.
func (n *Node) SetAttribute(name, value, namespace string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			n.attrs[i].Namespace = namespace
			n.countAttrWrite()
			return
		}
	}
	n.attrs = append(n.attrs, Attribute{Name: name, Value: value, Namespace: namespace})
	n.countAttrWrite()
}

// RemoveAttribute deletes the named attribute if present.
func (n *Node) RemoveAttribute(name string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			n.countAttrWrite()
			return
		}
	}
}

func (n *Node) countAttrWrite() {
	if n.doc != nil {
		n.doc.changes.AttrWrites++
	}
}

// Find returns the first descendant of n, in document order, that matches.
func (n *Node) Find(match func(*Node) bool) *Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// String describes n for diagnostics.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case ElementNode:
		return "<" + n.Tag + ">"
	case TextNode:
		return fmt.Sprintf("text %q", n.Data)
	case CommentNode:
		return fmt.Sprintf("<!--%s-->", n.Data)
	case FragmentNode:
		return "#fragment"
	}
	return n.Type.String()
}
