package vm

import (
	"fmt"

	"github.com/goliatone/go-hydrate/pkg/builder"
	"github.com/goliatone/go-hydrate/pkg/dom"
	"github.com/goliatone/go-hydrate/pkg/reference"
	"github.com/goliatone/go-hydrate/pkg/validator"
)

// listState is one iteration site. It lives as long as the enclosing block
// and is re-entered in place when the list flips between empty and
// non-empty.
type listState struct {
	site  int
	scope *scope

	iter   *reference.Reference
	assert *reference.Reference

	block   *builder.UpdatableBlock
	rowList *builder.BlockList
	present bool
	resumed bool

	rowHandle int
	rows      []*row
	byKey     map[string]*row
	cursor    *reference.OpaqueIterator

	// inverse collects the updaters of the else block.
	inverse []updater
	saved   *[]updater
}

// row is one rendered item. value and memo are cells so a reused row
// revalidates only what reads them.
type row struct {
	key      string
	value    *validator.Cell
	memo     *validator.Cell
	block    *builder.UpdatableBlock
	updaters []updater
}

func (s *listState) Head() builder.Bounds {
	if len(s.rows) == 0 {
		return nil
	}
	return s.rows[0].block
}

func (s *listState) Tail() builder.Bounds {
	if len(s.rows) == 0 {
		return nil
	}
	return s.rows[len(s.rows)-1].block
}

// enterList pops the list and key, derives the iterator and its emptiness
// assertion, and reports whether to jump to the else branch.
func (ex *execution) enterList(site int, sc *scope) (bool, error) {
	state := ex.reentry
	ex.reentry = nil
	if state == nil {
		keyRef, err := ex.pop()
		if err != nil {
			return false, err
		}
		listRef, err := ex.pop()
		if err != nil {
			return false, err
		}
		key := normalizeText(ex.graph.Value(keyRef))
		state = &listState{site: site, scope: sc}
		state.iter = ex.graph.Iterator(listRef, key)
		state.assert = ex.graph.Compute(func() any {
			return !iteration(ex.graph.Value(state.iter)).IsEmpty()
		}, nil, "each "+listRef.Label())
		state.block = ex.b.PushUpdatableBlock()
		ex.track(state)
	} else {
		state.resumed = true
	}

	state.rows = nil
	state.byKey = make(map[string]*row)
	state.inverse = nil
	state.saved = ex.sink
	ex.sink = &state.inverse
	ex.lists = append(ex.lists, state)

	state.present = ex.graph.Value(state.assert).(bool)
	if !state.present {
		return true, nil
	}
	state.cursor = iteration(ex.graph.Value(state.iter)).Iterator()
	state.rowList = ex.b.PushBlockList(state)
	return false, nil
}

func iteration(value any) *reference.Iteration {
	it, _ := value.(*reference.Iteration)
	return it
}

func (ex *execution) currentList() (*listState, error) {
	if len(ex.lists) == 0 {
		return nil, fmt.Errorf("vm: no list entered")
	}
	return ex.lists[len(ex.lists)-1], nil
}

// iterate renders the next row, or reports that the iteration is done.
func (ex *execution) iterate(rowHandle int) (bool, error) {
	state, err := ex.currentList()
	if err != nil {
		return false, err
	}
	state.rowHandle = rowHandle
	item := state.cursor.Next()
	if item == nil {
		return true, nil
	}
	r, err := ex.renderRow(state, *item)
	if err != nil {
		return false, err
	}
	state.rows = append(state.rows, r)
	state.byKey[r.key] = r
	return false, nil
}

func (ex *execution) exitList() error {
	state, err := ex.currentList()
	if err != nil {
		return err
	}
	ex.lists = ex.lists[:len(ex.lists)-1]
	if state.present {
		ex.b.PopBlock()
	}
	if !state.resumed {
		ex.b.PopBlock()
	}
	state.resumed = false
	state.cursor = nil
	ex.sink = state.saved
	state.saved = nil
	return nil
}

func (ex *execution) renderRow(state *listState, item reference.IterationItem) (*row, error) {
	clock := ex.graph.Clock()
	r := &row{
		key:   item.Key,
		value: clock.NewCell(item.Value, validator.WithEquality(validator.IdentityEqual)),
		memo:  clock.NewCell(item.Memo, validator.WithEquality(validator.IdentityEqual)),
	}
	value := ex.graph.Compute(func() any { return r.value.Get() }, nil, "row "+item.Key)
	memo := ex.graph.Compute(func() any { return r.memo.Get() }, nil, "row "+item.Key+" memo")

	r.block = ex.b.PushUpdatableBlock()
	err := ex.withSink(&r.updaters, func() error {
		return ex.invoke(state.rowHandle, state.scope, []*reference.Reference{value, memo})
	})
	if err != nil {
		return nil, err
	}
	ex.b.PopBlock()
	return r, nil
}

// update revalidates the list. An emptiness flip rebuilds the whole site;
// otherwise rows are reconciled by key.
func (s *listState) update(ex *execution) error {
	present := ex.graph.Value(s.assert).(bool)
	if present != s.present {
		ex.reentry = s
		return ex.resume(s.block, func() error {
			return ex.invoke(s.site, s.scope, nil)
		})
	}
	if !present {
		return runUpdaters(ex, s.inverse)
	}
	return ex.reconcile(s, iteration(ex.graph.Value(s.iter)).Items())
}

// reconcile brings the rows in line with items. Rows whose key disappeared
// are removed first; surviving rows keep their nodes, get their cells
// updated and are moved only when out of place; new rows are rendered live
// at their position.
func (ex *execution) reconcile(s *listState, items []reference.IterationItem) error {
	parent := s.rowList.ParentElement()
	after := s.Tail().LastNode().NextSibling

	wanted := make(map[string]bool, len(items))
	for _, item := range items {
		wanted[item.Key] = true
	}
	removed := 0
	for _, r := range s.rows {
		if !wanted[r.key] {
			builder.Clear(r.block)
			delete(s.byKey, r.key)
			removed++
		}
	}

	rows := make([]*row, len(items))
	var reused []*row
	moved, inserted := 0, 0
	next := after
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		r, ok := s.byKey[item.Key]
		if ok {
			r.value.Set(item.Value)
			r.memo.Set(item.Memo)
			if r.block.LastNode().NextSibling != next {
				builder.Move(r.block, parent, next)
				moved++
			}
			reused = append(reused, r)
		} else {
			var err error
			if r, err = ex.insertRow(s, item, parent, next); err != nil {
				return err
			}
			s.byKey[r.key] = r
			inserted++
		}
		rows[i] = r
		next = r.block.FirstNode()
	}
	s.rows = rows

	ex.vm.logger.Debug("list reconciled",
		"rows", len(rows),
		"removed", removed,
		"moved", moved,
		"inserted", inserted,
	)

	for i := len(reused) - 1; i >= 0; i-- {
		if err := runUpdaters(ex, reused[i].updaters); err != nil {
			return err
		}
	}
	return nil
}

func (ex *execution) insertRow(s *listState, item reference.IterationItem, parent, next *dom.Node) (*row, error) {
	saved := ex.b
	b := builder.NewLive(ex.doc, parent, next, builder.WithLogger(ex.vm.logger))
	ex.b = b
	defer func() { ex.b = saved }()

	r, err := ex.renderRow(s, item)
	if err != nil {
		return nil, err
	}
	if _, err := b.Finalize(); err != nil {
		return nil, fmt.Errorf("vm: finalize row: %w", err)
	}
	return r, nil
}
