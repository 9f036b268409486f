package reference

import "strings"

// Child returns the memoized reference to property path of parent. Children
// of unbound references are snapshotted; all others are computed through the
// parent and can be written back when the parent value carries properties.
func (g *Graph) Child(parent *Reference, path string) *Reference {
	if child, ok := parent.children[path]; ok {
		return child
	}

	var child *Reference
	if parent.kind == KindUnbound {
		value := g.Value(parent)
		if !isDict(value) {
			// Not memoized: the shared primitives must never be written to.
			return Undefined
		}
		child = Unbound(g.props.Get(value, path), parent.label+"."+path)
	} else {
		child = g.Compute(
			func() any {
				value := g.Value(parent)
				if !isDict(value) {
					return nil
				}
				return g.GetProp(value, path)
			},
			func(next any) error {
				value := g.Value(parent)
				if !isDict(value) {
					return nil
				}
				return g.SetProp(value, path, next)
			},
			parent.label+"."+path,
		)
	}

	if parent.children == nil {
		parent.children = make(map[string]*Reference)
	}
	parent.children[path] = child
	return child
}

// ChildFromParts folds Child over parts.
func (g *Graph) ChildFromParts(root *Reference, parts []string) *Reference {
	ref := root
	for _, part := range parts {
		ref = g.Child(ref, part)
	}
	return ref
}

// ChildFromPath folds Child over a dotted path.
func (g *Graph) ChildFromPath(root *Reference, path string) *Reference {
	if path == "" {
		return root
	}
	return g.ChildFromParts(root, strings.Split(path, "."))
}
