package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Changes counts the mutations a document has seen.
type Changes struct {
	Created    int
	Inserted   int
	Removed    int
	AttrWrites int
	DataWrites int
}

// Document creates nodes and records changes made through them.
type Document struct {
	changes Changes
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Changes returns the mutation counters.
func (d *Document) Changes() Changes {
	return d.changes
}

// ResetChanges zeroes the mutation counters.
func (d *Document) ResetChanges() {
	d.changes = Changes{}
}

// CreateElement creates an HTML element.
func (d *Document) CreateElement(tag string) *Node {
	return d.CreateElementNS("", tag)
}

// CreateElementNS creates an element in namespace. SVG children inherit the
// namespace of their parent through the builder, not here.
func (d *Document) CreateElementNS(namespace, tag string) *Node {
	if strings.EqualFold(tag, "svg") && namespace == "" {
		namespace = NamespaceSVG
	}
	if namespace != NamespaceSVG {
		tag = strings.ToLower(tag)
	}
	return d.create(&Node{Type: ElementNode, Tag: tag, Namespace: namespace})
}

// CreateText creates a text node.
func (d *Document) CreateText(data string) *Node {
	return d.create(&Node{Type: TextNode, Data: data})
}

// CreateComment creates a comment node.
func (d *Document) CreateComment(data string) *Node {
	return d.create(&Node{Type: CommentNode, Data: data})
}

// CreateFragment creates an empty fragment.
func (d *Document) CreateFragment() *Node {
	return &Node{Type: FragmentNode, doc: d}
}

func (d *Document) create(n *Node) *Node {
	n.doc = d
	d.changes.Created++
	return n
}

// CreateRawHTMLSection parses markup in the context of parent and inserts the
// resulting nodes before ref. It returns the first and last inserted nodes. An
// empty section inserts an empty comment so the bounds are never empty.
func (d *Document) CreateRawHTMLSection(parent, ref *Node, markup string) (first, last *Node, err error) {
	if markup == "" {
		comment := d.CreateComment("")
		parent.InsertBefore(comment, ref)
		return comment, comment, nil
	}

	fragment, err := d.parseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return nil, nil, fmt.Errorf("dom: raw html: %w", err)
	}
	first, last = fragment.FirstChild, fragment.LastChild
	if first == nil {
		comment := d.CreateComment("")
		parent.InsertBefore(comment, ref)
		return comment, comment, nil
	}
	parent.InsertBefore(fragment, ref)
	return first, last, nil
}

func contextNode(parent *Node) *html.Node {
	tag := "body"
	if parent != nil && parent.Type == ElementNode {
		tag = strings.ToLower(parent.Tag)
	}
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func (d *Document) fromHTML(src *html.Node) *Node {
	var n *Node
	switch src.Type {
	case html.ElementNode:
		ns := ""
		if src.Namespace == "svg" {
			ns = NamespaceSVG
		}
		n = d.create(&Node{Type: ElementNode, Tag: src.Data, Namespace: ns})
		for _, attr := range src.Attr {
			n.attrs = append(n.attrs, Attribute{Name: qualifiedName(attr), Value: attr.Val, Namespace: namespaceURI(attr.Namespace)})
		}
	case html.TextNode:
		n = d.create(&Node{Type: TextNode, Data: src.Data})
	case html.CommentNode:
		n = d.create(&Node{Type: CommentNode, Data: src.Data})
	default:
		n = d.CreateFragment()
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if child := d.fromHTML(c); child != nil {
			n.AppendChild(child)
		}
	}
	return n
}

func qualifiedName(attr html.Attribute) string {
	if attr.Namespace == "" {
		return attr.Key
	}
	return attr.Namespace + ":" + attr.Key
}

func namespaceURI(prefix string) string {
	switch prefix {
	case "xlink":
		return "http://www.w3.org/1999/xlink"
	case "xml":
		return "http://www.w3.org/XML/1998/namespace"
	case "xmlns":
		return "http://www.w3.org/2000/xmlns/"
	}
	return ""
}
