package validator

import "reflect"

// Revision is a monotonically increasing stamp handed out by a Clock.
type Revision uint64

const (
	// Constant is the revision of tags that never change.
	Constant Revision = 0
	// Initial is the revision every new tag and every fresh clock starts at.
	Initial Revision = 1
)

// Tag is a validity token. A value computed at snapshot s stays valid for as
// long as the tag's revision does not exceed s.
type Tag interface {
	Revision() Revision
}

type constantTag struct{}

func (constantTag) Revision() Revision { return Constant }

// ConstantTag is always valid.
var ConstantTag Tag = constantTag{}

// Validate reports whether a value recorded at snapshot is still current for tag.
func Validate(tag Tag, snapshot Revision) bool {
	if tag == nil {
		return false
	}
	return tag.Revision() <= snapshot
}

// IsConstant reports whether tag can never be invalidated.
func IsConstant(tag Tag) bool {
	_, ok := tag.(constantTag)
	return ok
}

// DirtyableTag is a tag owned by a single mutable source.
type DirtyableTag struct {
	clock    *Clock
	revision Revision
}

// Revision implements Tag.
func (t *DirtyableTag) Revision() Revision {
	return t.revision
}

// Dirty advances the owning clock and stamps the tag with the new revision,
// invalidating every value that consumed it.
func (t *DirtyableTag) Dirty() {
	t.revision = t.clock.bump()
}

type combinatorTag struct {
	tags []Tag
}

func (t *combinatorTag) Revision() Revision {
	max := Constant
	for _, tag := range t.tags {
		if rev := tag.Revision(); rev > max {
			max = rev
		}
	}
	return max
}

// Combine merges tags into one whose revision is the maximum of its members.
// Constant members are dropped; an empty set collapses to ConstantTag and a
// single member is returned as-is.
func Combine(tags []Tag) Tag {
	filtered := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		if tag == nil || IsConstant(tag) {
			continue
		}
		filtered = append(filtered, tag)
	}
	switch len(filtered) {
	case 0:
		return ConstantTag
	case 1:
		return filtered[0]
	default:
		return &combinatorTag{tags: filtered}
	}
}

// IdentityEqual compares two dynamic values without panicking on
// uncomparable types: maps, slices and funcs compare by identity.
func IdentityEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Pointer, reflect.Chan:
		if va.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}
