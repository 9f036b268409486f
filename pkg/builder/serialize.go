package builder

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-hydrate/pkg/dom"
)

// Serialization markers. They are written as comment data.
const (
	MarkerSeparator  = "%|%"
	MarkerEmpty      = "% %"
	MarkerRawHTML    = "%glmr%"
	MarkerFirstBlock = "%+b:0%"
	RemoteAttribute  = "glmr"

	openBlockPrefix  = "%+b:"
	closeBlockPrefix = "%-b:"
)

// NewSerializing returns a builder for server rendering. Its output carries
// the markers a rehydrating builder needs to reuse the markup.
func NewSerializing(doc *dom.Document, parent, nextSibling *dom.Node, options ...Option) *ElementBuilder {
	b := newElementBuilder(doc, &serializer{extraClose: make(map[*dom.Node]bool)}, options...)
	b.mode.pushElement(b, parent, nextSibling)
	b.PushSimpleBlock()
	return b
}

type serializer struct {
	live
	depth      int
	extraClose map[*dom.Node]bool
}

// Text inside these elements is raw and cannot carry comment markers.
func inRawTextElement(b *ElementBuilder) bool {
	element := b.Element()
	return element.IsElement("title") || element.IsElement("script") || element.IsElement("style")
}

func (s *serializer) openBlock(b *ElementBuilder) {
	if inRawTextElement(b) {
		return
	}
	depth := s.depth
	s.depth++
	s.live.appendComment(b, openBlockPrefix+strconv.Itoa(depth)+"%")
}

func (s *serializer) closeBlock(b *ElementBuilder) {
	if inRawTextElement(b) {
		return
	}
	s.depth--
	s.live.appendComment(b, closeBlockPrefix+strconv.Itoa(s.depth)+"%")
}

func (s *serializer) appendHTML(b *ElementBuilder, markup string) (Bounds, error) {
	if inRawTextElement(b) {
		return s.live.appendHTML(b, markup)
	}

	first := s.live.appendComment(b, MarkerRawHTML)
	if b.Element().IsElement("table") {
		if open := strings.Index(markup, "<"); open > -1 && strings.HasPrefix(markup[open+1:], "tr") {
			markup = "<tbody>" + markup + "</tbody>"
		}
	}
	if markup == "" {
		s.live.appendComment(b, MarkerEmpty)
	} else if _, err := s.live.appendHTML(b, markup); err != nil {
		return nil, err
	}
	last := s.live.appendComment(b, MarkerRawHTML)
	return NodeBounds{Parent: b.Element(), First: first, Last: last}, nil
}

func (s *serializer) appendText(b *ElementBuilder, text string) *dom.Node {
	if inRawTextElement(b) {
		return s.live.appendText(b, text)
	}
	if text == "" {
		return s.live.appendComment(b, MarkerEmpty)
	}
	if previous := previousNode(b.current()); previous != nil && previous.Type == dom.TextNode {
		s.live.appendComment(b, MarkerSeparator)
	}
	return s.live.appendText(b, text)
}

func previousNode(c *cursor) *dom.Node {
	if c.nextSibling == nil {
		return c.element.LastChild
	}
	return c.nextSibling.PrevSibling
}

// A tr outside a table section gets an explicit tbody so the parsed markup
// has the same shape as the rendered tree.
func (s *serializer) openElement(b *ElementBuilder, tag string) *dom.Node {
	if strings.EqualFold(tag, "tr") {
		parent := b.Element()
		if !parent.IsElement("tbody") && !parent.IsElement("thead") && !parent.IsElement("tfoot") {
			b.OpenElement("tbody")
			s.extraClose[b.constructing] = true
			b.FlushElement()
		}
	}
	return s.live.openElement(b, tag)
}

func (s *serializer) closeElement(b *ElementBuilder) {
	if element := b.Element(); s.extraClose[element] {
		delete(s.extraClose, element)
		b.closeElement()
	}
	b.closeElement()
}

// Remote targets get a script marker so rehydration can find where the
// remote content starts. Serialization never clears the target.
func (s *serializer) pushRemoteElement(b *ElementBuilder, element *dom.Node, guid string, insertBefore *dom.Node, _ bool) *RemoteBlock {
	script := b.doc.CreateElement("script")
	script.SetAttribute(RemoteAttribute, guid, "")
	element.InsertBefore(script, insertBefore)
	return s.live.pushRemoteElement(b, element, guid, insertBefore, false)
}
