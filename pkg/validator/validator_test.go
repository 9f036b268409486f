package validator_test

import (
	"testing"

	"github.com/goliatone/go-hydrate/pkg/validator"
)

func TestTrack_RecordsConsumedTags(t *testing.T) {
	clock := validator.NewClock()
	a := clock.NewCell(1)
	b := clock.NewCell(2)

	tag := clock.Track(func() {
		_ = a.Get()
		_ = b.Get()
	})
	snapshot := tag.Revision()

	if !validator.Validate(tag, snapshot) {
		t.Fatalf("expected tag to be valid at its own revision")
	}

	b.Set(3)
	if validator.Validate(tag, snapshot) {
		t.Fatalf("expected tag to be invalid after dependency changed")
	}
	if clock.Depth() != 0 {
		t.Fatalf("expected frames to be unwound, depth=%d", clock.Depth())
	}
}

func TestTrack_NestedFramesPropagateOnlyWhenConsumed(t *testing.T) {
	clock := validator.NewClock()
	inner := clock.NewCell("x")

	var innerTag validator.Tag
	outer := clock.Track(func() {
		innerTag = clock.Track(func() {
			_ = inner.Get()
		})
	})

	if !validator.IsConstant(outer) {
		t.Fatalf("outer frame should not see tags consumed by the inner frame")
	}

	outer = clock.Track(func() {
		innerTag = clock.Track(func() {
			_ = inner.Get()
		})
		clock.Consume(innerTag)
	})
	snapshot := outer.Revision()
	inner.Set("y")
	if validator.Validate(outer, snapshot) {
		t.Fatalf("outer tag should be invalidated through the consumed inner tag")
	}
}

func TestUntrack_DiscardsConsumption(t *testing.T) {
	clock := validator.NewClock()
	cell := clock.NewCell(1)

	tag := clock.Track(func() {
		clock.Untrack(func() {
			_ = cell.Get()
		})
	})
	if !validator.IsConstant(tag) {
		t.Fatalf("untracked reads must not be recorded")
	}
}

func TestCell_WithEqualitySkipsDirty(t *testing.T) {
	clock := validator.NewClock()
	cell := clock.NewCell("a", validator.WithEquality(validator.IdentityEqual))
	before := cell.Tag().Revision()

	cell.Set("a")
	if cell.Tag().Revision() != before {
		t.Fatalf("setting an equal value should not dirty the cell")
	}

	cell.Set("b")
	if cell.Tag().Revision() <= before {
		t.Fatalf("setting a different value should dirty the cell")
	}
	if clock.Now() != cell.Tag().Revision() {
		t.Fatalf("dirty should stamp the current clock revision")
	}
}

func TestCombine(t *testing.T) {
	clock := validator.NewClock()
	if !validator.IsConstant(validator.Combine(nil)) {
		t.Fatalf("empty combine should be constant")
	}
	single := clock.NewTag()
	if validator.Combine([]validator.Tag{validator.ConstantTag, single}) != single {
		t.Fatalf("single member combine should collapse to the member")
	}

	other := clock.NewTag()
	combined := validator.Combine([]validator.Tag{single, other})
	other.Dirty()
	if combined.Revision() != other.Revision() {
		t.Fatalf("combined revision should be the max of its members")
	}
}

func TestIdentityEqual(t *testing.T) {
	m := map[string]any{"a": 1}
	s := []int{1, 2}

	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"same string", "x", "x", true},
		{"different types", 1, "1", false},
		{"same map", m, m, true},
		{"different map", m, map[string]any{"a": 1}, false},
		{"same slice", s, s, true},
		{"nil pair", nil, nil, true},
		{"nil and value", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := validator.IdentityEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("IdentityEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
