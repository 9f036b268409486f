package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads server markup into a fresh document and returns a fragment
// holding the parsed nodes. Markup is parsed as body content. Change counters
// start at zero after parsing.
func Parse(r io.Reader) (*Document, *Node, error) {
	doc := NewDocument()
	root, err := doc.ParseFragment(r, nil)
	if err != nil {
		return nil, nil, err
	}
	doc.ResetChanges()
	return doc, root, nil
}

// ParseString is Parse over a string.
func ParseString(markup string) (*Document, *Node, error) {
	return Parse(strings.NewReader(markup))
}

// ParseFragment parses markup in the context of parent (body when nil) into a
// new fragment owned by d.
func (d *Document) ParseFragment(r io.Reader, parent *Node) (*Node, error) {
	return d.parseFragment(r, parent)
}

func (d *Document) parseFragment(r io.Reader, parent *Node) (*Node, error) {
	nodes, err := html.ParseFragment(r, contextNode(parent))
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	fragment := d.CreateFragment()
	for _, n := range nodes {
		fragment.AppendChild(d.fromHTML(n))
	}
	return fragment, nil
}

// Serialize writes the markup of n. Fragments write their children.
func Serialize(w io.Writer, n *Node) error {
	if n == nil {
		return errors.New("dom: serialize: nil node")
	}
	if n.Type == FragmentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, toHTML(c, nil)); err != nil {
				return fmt.Errorf("dom: serialize: %w", err)
			}
		}
		return nil
	}
	if err := html.Render(w, toHTML(n, nil)); err != nil {
		return fmt.Errorf("dom: serialize: %w", err)
	}
	return nil
}

// OuterHTML returns the markup of n.
func OuterHTML(n *Node) string {
	var buf bytes.Buffer
	if err := Serialize(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML returns the markup of the children of n.
func InnerHTML(n *Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := Serialize(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// toHTML mirrors n into an x/net/html tree so the renderer can apply its
// escaping and raw-text rules. parent is the already converted parent.
func toHTML(n *Node, parent *html.Node) *html.Node {
	var out *html.Node
	switch n.Type {
	case ElementNode:
		out = &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
		if n.Namespace == NamespaceSVG {
			out.Namespace = "svg"
		}
		for _, attr := range n.attrs {
			out.Attr = append(out.Attr, html.Attribute{Key: attr.Name, Val: attr.Value})
		}
	case TextNode:
		out = &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		out = &html.Node{Type: html.CommentNode, Data: n.Data}
	default:
		out = &html.Node{Type: html.DocumentNode}
	}
	if parent != nil {
		parent.AppendChild(out)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		toHTML(c, out)
	}
	return out
}
