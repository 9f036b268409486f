package render_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-hydrate/pkg/render"
	"github.com/goliatone/go-hydrate/pkg/vm"
)

func constant(value any) vm.Helper {
	return func(vm.Arguments) (any, error) { return value, nil }
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := render.NewRegistry()
	if err := r.Register("greet", constant("hi")); err != nil {
		t.Fatalf("register: %v", err)
	}

	helper, err := r.Get("greet")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, _ := helper(vm.Arguments{})
	if got != "hi" {
		t.Fatalf("helper returned %v", got)
	}
	if !r.Has("greet") || r.Has("missing") {
		t.Fatalf("Has reported wrong membership")
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := render.NewRegistry()
	r.MustRegister("greet", constant("hi"))

	if err := r.Register("greet", constant("again")); !errors.Is(err, render.ErrHelperExists) {
		t.Fatalf("expected ErrHelperExists, got %v", err)
	}
	if err := r.Register(" ", constant("x")); !errors.Is(err, render.ErrInvalidHelper) {
		t.Fatalf("expected ErrInvalidHelper for blank name, got %v", err)
	}
	if err := r.Register("nil", nil); !errors.Is(err, render.ErrInvalidHelper) {
		t.Fatalf("expected ErrInvalidHelper for nil helper, got %v", err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, render.ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound, got %v", err)
	}
}

func TestRegistry_MergeOverwrites(t *testing.T) {
	r := render.NewRegistry()
	r.MustRegister("greet", constant("hi"))
	if err := r.Merge(map[string]vm.Helper{"greet": constant("hello"), "bye": constant("bye")}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	helper, _ := r.Helper("greet")
	got, _ := helper(vm.Arguments{})
	if got != "hello" {
		t.Fatalf("merge did not overwrite: %v", got)
	}
	if diff := cmp.Diff([]string{"bye", "greet"}, r.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_DefaultCarriesBuiltins(t *testing.T) {
	r := render.NewDefaultRegistry()
	for name := range render.Builtins() {
		if !r.Has(name) {
			t.Fatalf("default registry missing %q", name)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := render.NewDefaultRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Replace("dyn", constant(i))
			_, _ = r.Helper("concat")
			_ = r.List()
		}(i)
	}
	wg.Wait()
	if !r.Has("dyn") {
		t.Fatalf("expected concurrent registration to land")
	}
}
