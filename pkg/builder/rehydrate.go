package builder

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-hydrate/pkg/dom"
)

// Stats counts what a rehydrating builder did with the server tree.
type Stats struct {
	// Reused counts candidates matched by the render.
	Reused int
	// Mismatches counts candidates that did not match.
	Mismatches int
	// Cleared counts server nodes removed by mismatch handling.
	Cleared int
	// Markers counts serialization markers consumed.
	Markers int
}

// NewRehydrating returns a builder that reuses the server markup found in
// parent, starting at its <!--%+b:0%--> comment. Nodes that do not match the
// render are removed and rebuilt; mismatches are never reported as errors.
func NewRehydrating(doc *dom.Document, parent, nextSibling *dom.Node, options ...Option) (*ElementBuilder, error) {
	if nextSibling != nil {
		return nil, ErrNextSiblingUnsupported
	}

	r := &rehydrator{}
	b := newElementBuilder(doc, r, options...)
	r.pushElement(b, parent, nil)

	start := parent.FirstChild
	for start != nil && !start.IsComment(MarkerFirstBlock) {
		start = start.NextSibling
	}
	if start == nil {
		return nil, ErrMissingStartMarker
	}
	b.current().candidate = start

	b.PushSimpleBlock()
	return b, nil
}

type rehydrator struct {
	live

	blockDepth int
	// unmatched holds the attribute names of a reused element not yet set
	// by the render; matching is true while such an element is open.
	unmatched []string
	matching  bool

	stats Stats
}

func (r *rehydrator) candidate(b *ElementBuilder) *dom.Node {
	if c := b.current(); c != nil {
		return c.candidate
	}
	return nil
}

func (r *rehydrator) setCandidate(b *ElementBuilder, node *dom.Node) {
	b.current().candidate = node
}

// disable stops rehydration in the current cursor. New nodes are inserted
// before nextSibling until the cursor is popped or the expected close block
// marker turns up.
func (r *rehydrator) disable(b *ElementBuilder, nextSibling *dom.Node) {
	c := b.current()
	c.candidate = nil
	c.nextSibling = nextSibling
}

func (r *rehydrator) enable(b *ElementBuilder, candidate *dom.Node) {
	c := b.current()
	c.candidate = candidate
	c.nextSibling = nil
}

func (r *rehydrator) remove(node *dom.Node) *dom.Node {
	if node.Parent == nil {
		panic("BUG: cannot remove a detached node")
	}
	return node.Parent.RemoveChild(node)
}

func (r *rehydrator) removeMarker(node *dom.Node) *dom.Node {
	r.stats.Markers++
	return r.remove(node)
}

func (r *rehydrator) pushElement(b *ElementBuilder, element, nextSibling *dom.Node) {
	c := &cursor{
		element:            element,
		nextSibling:        nextSibling,
		startingBlockDepth: r.blockDepth,
		openBlockDepth:     r.blockDepth - 1,
	}
	if r.candidate(b) != nil {
		c.candidate = element.FirstChild
		r.setCandidate(b, element.NextSibling)
	}
	b.cursors = append(b.cursors, c)
}

// clearMismatch removes candidate and its following siblings up to the close
// marker of the innermost block opened in this cursor, or to the end of the
// element when no block was opened here, then disables rehydration.
func (r *rehydrator) clearMismatch(b *ElementBuilder, candidate *dom.Node) {
	c := b.current()
	if c == nil {
		return
	}
	r.stats.Mismatches++
	b.logger.Debug("rehydration mismatch",
		"candidate", candidate.String(),
		"depth", len(b.cursors),
		"open_block_depth", c.openBlockDepth,
	)

	current := candidate
	if c.openBlockDepth >= c.startingBlockDepth {
		for current != nil {
			if isCloseBlock(current) && c.openBlockDepth >= blockDepth(current) {
				break
			}
			current = r.clear(current)
		}
	} else {
		for current != nil {
			current = r.clear(current)
		}
	}
	r.disable(b, current)
}

func (r *rehydrator) clear(node *dom.Node) *dom.Node {
	r.stats.Cleared++
	return r.remove(node)
}

func (r *rehydrator) openBlock(b *ElementBuilder) {
	c := b.current()
	if c == nil {
		return
	}
	depth := r.blockDepth
	r.blockDepth++

	candidate := c.candidate
	if candidate == nil {
		return
	}
	if isOpenBlock(candidate) && blockDepth(candidate) == depth {
		c.candidate = r.removeMarker(candidate)
		c.openBlockDepth = depth
	} else if !inRawTextElement(b) {
		r.clearMismatch(b, candidate)
	}
}

func (r *rehydrator) closeBlock(b *ElementBuilder) {
	c := b.current()
	if c == nil {
		return
	}
	openBlockDepth := c.openBlockDepth
	r.blockDepth--

	rehydrating := false
	if candidate := c.candidate; candidate != nil {
		rehydrating = true
		if isCloseBlock(candidate) && blockDepth(candidate) == openBlockDepth {
			c.candidate = r.removeMarker(candidate)
			c.openBlockDepth--
		} else {
			r.clearMismatch(b, candidate)
			rehydrating = false
		}
	}

	if rehydrating {
		return
	}
	// Only the sibling right after the disabled region is checked: when it is
	// the close marker of this block, rehydration resumes one level up.
	if next := c.nextSibling; next != nil && isCloseBlock(next) && blockDepth(next) == r.blockDepth {
		r.enable(b, r.removeMarker(next))
		c.openBlockDepth--
	}
}

func (r *rehydrator) appendText(b *ElementBuilder, text string) *dom.Node {
	candidate := r.candidate(b)
	if candidate == nil {
		return r.live.appendText(b, text)
	}

	switch {
	case candidate.Type == dom.TextNode:
		candidate.SetData(text)
		r.setCandidate(b, candidate.NextSibling)
		r.stats.Reused++
		return candidate
	case candidate.IsComment(MarkerSeparator):
		r.setCandidate(b, r.removeMarker(candidate))
		return r.appendText(b, text)
	case candidate.IsComment(MarkerEmpty) && text == "":
		// The marker stands in for the empty text node the parser dropped.
		next := r.removeMarker(candidate)
		r.setCandidate(b, next)
		node := b.doc.CreateText("")
		b.Element().InsertBefore(node, next)
		return node
	default:
		r.clearMismatch(b, candidate)
		return r.live.appendText(b, text)
	}
}

func (r *rehydrator) appendComment(b *ElementBuilder, text string) *dom.Node {
	candidate := r.candidate(b)
	if candidate != nil && candidate.Type == dom.CommentNode {
		candidate.SetData(text)
		r.setCandidate(b, candidate.NextSibling)
		r.stats.Reused++
		return candidate
	}
	if candidate != nil {
		r.clearMismatch(b, candidate)
	}
	return r.live.appendComment(b, text)
}

func (r *rehydrator) openElement(b *ElementBuilder, tag string) *dom.Node {
	candidate := r.candidate(b)
	if candidate != nil && candidate.IsElement(tag) {
		r.unmatched = r.unmatched[:0]
		for _, attr := range candidate.Attributes() {
			r.unmatched = append(r.unmatched, attr.Name)
		}
		r.matching = true
		r.stats.Reused++
		return candidate
	}
	if candidate != nil {
		// The parser inserts a tbody the render never opens.
		if candidate.IsElement("tbody") {
			r.pushElement(b, candidate, nil)
			b.current().injectedOmittedNode = true
			return r.openElement(b, tag)
		}
		r.clearMismatch(b, candidate)
	}
	return r.live.openElement(b, tag)
}

func (r *rehydrator) setAttribute(b *ElementBuilder, name, value, namespace string) {
	if r.matching {
		for i, unmatched := range r.unmatched {
			if unmatched != name {
				continue
			}
			if current, _ := b.constructing.GetAttribute(name); current != value {
				b.constructing.SetAttribute(name, value, namespace)
			}
			r.unmatched = append(r.unmatched[:i], r.unmatched[i+1:]...)
			return
		}
	}
	r.live.setAttribute(b, name, value, namespace)
}

func (r *rehydrator) flushElement(b *ElementBuilder, parent, element *dom.Node) {
	if !r.matching {
		r.live.flushElement(b, parent, element)
		return
	}
	for _, name := range r.unmatched {
		element.RemoveAttribute(name)
	}
	r.unmatched = r.unmatched[:0]
	r.matching = false
}

func (r *rehydrator) willCloseElement(b *ElementBuilder) {
	if candidate := r.candidate(b); candidate != nil {
		r.clearMismatch(b, candidate)
	}
	if c := b.current(); c != nil && c.injectedOmittedNode {
		b.popElement()
	}
	r.live.willCloseElement(b)
}

func (r *rehydrator) appendHTML(b *ElementBuilder, markup string) (Bounds, error) {
	candidate := r.candidate(b)
	if candidate == nil || !candidate.IsComment(MarkerRawHTML) {
		if candidate != nil {
			r.clearMismatch(b, candidate)
		}
		return r.live.appendHTML(b, markup)
	}

	first := candidate
	last := first.NextSibling
	for last != nil && !last.IsComment(MarkerRawHTML) {
		last = last.NextSibling
	}
	if last == nil {
		panic("BUG: serialization markers must be paired")
	}

	parent := b.Element()
	after := last.NextSibling
	contentFirst, contentLast := first.NextSibling, last.PrevSibling
	r.removeMarker(first)
	r.removeMarker(last)
	r.setCandidate(b, after)

	if contentFirst == last || (contentFirst == contentLast && contentFirst.IsComment(MarkerEmpty)) {
		placeholder := b.doc.CreateComment("")
		parent.InsertBefore(placeholder, after)
		if contentFirst != last {
			r.removeMarker(contentFirst)
		}
		return single(parent, placeholder), nil
	}
	r.stats.Reused++
	return NodeBounds{Parent: parent, First: contentFirst, Last: contentLast}, nil
}

func (r *rehydrator) pushRemoteElement(b *ElementBuilder, element *dom.Node, guid string, insertBefore *dom.Node, replace bool) *RemoteBlock {
	marker := element.Find(func(n *dom.Node) bool {
		if !n.IsElement("script") {
			return false
		}
		value, ok := n.GetAttribute(RemoteAttribute)
		return ok && value == guid
	})
	if marker != nil && marker.Parent != element {
		panic("BUG: remote element marker must be a direct child of the remote element")
	}

	if replace {
		for element.FirstChild != nil && element.FirstChild != marker {
			r.clear(element.FirstChild)
		}
		insertBefore = nil
	}

	b.cursors = append(b.cursors, &cursor{
		element:            element,
		startingBlockDepth: r.blockDepth,
		openBlockDepth:     r.blockDepth - 1,
	})
	if marker == nil {
		r.disable(b, insertBefore)
	} else {
		r.setCandidate(b, r.removeMarker(marker))
	}

	block := &RemoteBlock{SimpleBlock: *newSimpleBlock(element)}
	b.pushLiveBlock(block, true)
	return block
}

func isOpenBlock(node *dom.Node) bool {
	return node.Type == dom.CommentNode && strings.HasPrefix(node.Data, openBlockPrefix)
}

func isCloseBlock(node *dom.Node) bool {
	return node.Type == dom.CommentNode && strings.HasPrefix(node.Data, closeBlockPrefix)
}

func blockDepth(node *dom.Node) int {
	depth, err := strconv.Atoi(strings.TrimSuffix(node.Data[len(openBlockPrefix):], "%"))
	if err != nil {
		return -1
	}
	return depth
}
