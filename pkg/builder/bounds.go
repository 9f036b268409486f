package builder

import "github.com/goliatone/go-hydrate/pkg/dom"

// Bounds is a contiguous run of sibling nodes.
type Bounds interface {
	ParentElement() *dom.Node
	FirstNode() *dom.Node
	LastNode() *dom.Node
}

// NodeBounds is a fixed Bounds.
type NodeBounds struct {
	Parent *dom.Node
	First  *dom.Node
	Last   *dom.Node
}

func (b NodeBounds) ParentElement() *dom.Node { return b.Parent }
func (b NodeBounds) FirstNode() *dom.Node     { return b.First }
func (b NodeBounds) LastNode() *dom.Node      { return b.Last }

func single(parent, node *dom.Node) NodeBounds {
	return NodeBounds{Parent: parent, First: node, Last: node}
}

// Clear removes every node of b from its parent and returns the node that
// followed the last one.
func Clear(b Bounds) *dom.Node {
	parent := b.ParentElement()
	first, last := b.FirstNode(), b.LastNode()
	if first == nil || last == nil {
		return nil
	}
	next := last.NextSibling
	node := first
	for node != nil {
		following := node.NextSibling
		parent.RemoveChild(node)
		if node == last {
			break
		}
		node = following
	}
	return next
}

// Move reinserts the nodes of b before ref in parent, keeping their order.
func Move(b Bounds, parent, ref *dom.Node) {
	first, last := b.FirstNode(), b.LastNode()
	if first == nil || last == nil {
		return
	}
	var nodes []*dom.Node
	for node := first; node != nil; node = node.NextSibling {
		nodes = append(nodes, node)
		if node == last {
			break
		}
	}
	for _, node := range nodes {
		parent.InsertBefore(node, ref)
	}
}
