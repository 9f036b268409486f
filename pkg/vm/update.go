package vm

import (
	"context"

	"github.com/goliatone/go-hydrate/pkg/builder"
	"github.com/goliatone/go-hydrate/pkg/dom"
	"github.com/goliatone/go-hydrate/pkg/reference"
)

// updater is one node of the updating program built during the initial
// render.
type updater interface {
	update(ex *execution) error
}

func runUpdaters(ex *execution, updaters []updater) error {
	for _, u := range updaters {
		if err := u.update(ex); err != nil {
			return err
		}
		if ex.err != nil {
			return ex.err
		}
	}
	return nil
}

type attrUpdater struct {
	ref  *reference.Reference
	attr *builder.DynamicAttribute
}

func (u *attrUpdater) update(ex *execution) error {
	u.attr.Update(ex.graph.Value(u.ref))
	return nil
}

// contentUpdater keeps an appended value current. Text edits happen in
// place; markup changes and changes of kind rebuild the block.
type contentUpdater struct {
	ref     *reference.Reference
	trusted bool
	block   *builder.UpdatableBlock

	html bool
	last string
	node *dom.Node
}

func (c *contentUpdater) render(ex *execution, value any) error {
	markup, html := ex.markup(value, c.trusted)
	c.html, c.last, c.node = html, markup, nil
	if html {
		_, err := ex.b.AppendTrustedHTML(markup)
		return err
	}
	c.node = ex.b.AppendText(markup)
	return nil
}

func (c *contentUpdater) update(ex *execution) error {
	value := ex.graph.Value(c.ref)
	markup, html := ex.markup(value, c.trusted)
	if html == c.html && markup == c.last {
		return nil
	}
	if !html && !c.html {
		c.node.SetData(markup)
		c.last = markup
		return nil
	}
	return ex.resume(c.block, func() error {
		return c.render(ex, value)
	})
}

// conditionalUpdater re-renders its block when truthiness flips and
// otherwise forwards to the updaters of the branch on screen.
type conditionalUpdater struct {
	ref     *reference.Reference
	then    int
	inverse int
	scope   *scope
	block   *builder.UpdatableBlock

	truthy   bool
	updaters []updater
}

func (c *conditionalUpdater) render(ex *execution) error {
	c.truthy = ex.graph.Value(c.ref).(bool)
	c.updaters = nil
	handle := c.inverse
	if c.truthy {
		handle = c.then
	}
	if handle < 0 {
		return nil
	}
	return ex.withSink(&c.updaters, func() error {
		return ex.invoke(handle, c.scope, nil)
	})
}

func (c *conditionalUpdater) update(ex *execution) error {
	if ex.graph.Value(c.ref).(bool) != c.truthy {
		return ex.resume(c.block, func() error {
			return c.render(ex)
		})
	}
	return runUpdaters(ex, c.updaters)
}

// Result is a rendered program that can be brought up to date.
type Result struct {
	ex     *execution
	root   builder.LiveBlock
	closed bool
}

// Bounds returns the nodes produced by the render.
func (r *Result) Bounds() builder.Bounds {
	return r.root
}

// Graph returns the reference graph the result revalidates against.
func (r *Result) Graph() *reference.Graph {
	return r.ex.graph
}

// Rerender revalidates every dynamic part and patches the tree in place.
// Parts whose inputs did not change cost one tag comparison.
func (r *Result) Rerender(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ex := r.ex
	ex.ctx = ctx
	ex.err = nil
	ex.b = nil
	err := runUpdaters(ex, ex.updaters)
	if err == nil {
		err = ex.err
	}
	ex.err = nil
	return err
}

// Close releases the updating program. The rendered nodes stay in place.
func (r *Result) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.ex.updaters = nil
	r.ex.lists = nil
	r.ex.stack = nil
}
