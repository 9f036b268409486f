package reference

import (
	"fmt"
	"iter"
	"reflect"
	"sort"
	"strconv"
)

// Iteration keys understood by Iterator.
const (
	KeyIdentity = "@identity"
	KeyIndex    = "@index"
	KeyKey      = "@key"
)

// Iterable is implemented by values that enumerate their own items.
type Iterable interface {
	Iterate(yield func(memo, value any) bool)
}

// IterationItem is one row of an iteration: a stable key, the value, and the
// memo (index for sequences, key for maps).
type IterationItem struct {
	Key   string
	Value any
	Memo  any
}

// Iteration is the immutable snapshot produced by an iterator reference.
type Iteration struct {
	items []IterationItem
}

// Items returns the snapshot rows.
func (it *Iteration) Items() []IterationItem {
	if it == nil {
		return nil
	}
	return it.items
}

// IsEmpty reports whether the snapshot has no rows.
func (it *Iteration) IsEmpty() bool {
	return it == nil || len(it.items) == 0
}

// Iterator returns a fresh cursor over the snapshot.
func (it *Iteration) Iterator() *OpaqueIterator {
	return &OpaqueIterator{iteration: it}
}

// OpaqueIterator walks an Iteration once.
type OpaqueIterator struct {
	iteration *Iteration
	pos       int
}

// IsEmpty reports whether the underlying snapshot has no rows.
func (o *OpaqueIterator) IsEmpty() bool {
	return o.iteration.IsEmpty()
}

// Next returns the next item, or nil when exhausted.
func (o *OpaqueIterator) Next() *IterationItem {
	items := o.iteration.Items()
	if o.pos >= len(items) {
		return nil
	}
	item := &items[o.pos]
	o.pos++
	return item
}

// Iterator derives a computed reference producing an *Iteration over the
// value of list. key is one of KeyIdentity, KeyIndex, KeyKey or a property
// path read from each item. Keys are unique within one snapshot: a repeated
// key k becomes k\x001, k\x002, and so on in encounter order.
func (g *Graph) Iterator(list *Reference, key string) *Reference {
	if key == "" {
		key = KeyIdentity
	}
	return g.Compute(func() any {
		keyFor := g.keyFor(key)
		items := make([]IterationItem, 0)
		g.enumerate(g.Value(list), func(memo, value any) {
			items = append(items, IterationItem{Key: keyFor(value, memo), Value: value, Memo: memo})
		})
		return &Iteration{items: items}
	}, nil, list.label+"[iterator]")
}

func (g *Graph) keyFor(key string) func(value, memo any) string {
	var base func(value, memo any) string
	switch key {
	case KeyKey:
		base = func(_, memo any) string { return fmt.Sprint(memo) }
	case KeyIndex:
		base = func(_, memo any) string { return fmt.Sprint(memo) }
	case KeyIdentity:
		base = func(value, _ any) string { return identityKey(value) }
	default:
		base = func(value, _ any) string { return fmt.Sprint(g.GetPath(value, key)) }
	}

	seen := make(map[string]int)
	return func(value, memo any) string {
		k := base(value, memo)
		count, ok := seen[k]
		seen[k] = count + 1
		if !ok {
			return k
		}
		return k + "\x00" + strconv.Itoa(count)
	}
}

func identityKey(value any) string {
	if value == nil {
		return "nil"
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return fmt.Sprintf("%s@%x", rv.Type(), rv.Pointer())
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprintf("%v", value)
}

func (g *Graph) enumerate(list any, emit func(memo, value any)) {
	switch v := list.(type) {
	case nil:
		return
	case Iterable:
		v.Iterate(func(memo, value any) bool {
			emit(memo, value)
			return true
		})
		return
	case iter.Seq2[any, any]:
		v(func(memo, value any) bool {
			emit(memo, value)
			return true
		})
		return
	case []any:
		for i, item := range v {
			emit(i, unwrapCell(item))
		}
		return
	}

	rv := indirect(reflect.ValueOf(list))
	if !rv.IsValid() {
		return
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			emit(i, unwrapCell(rv.Index(i).Interface()))
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			emit(k.Interface(), unwrapCell(rv.MapIndex(k).Interface()))
		}
	}
}
