package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-hydrate/pkg/vm"
)

// Registry stores template helpers by name. It is safe for concurrent use and
// can be shared by every render of a process.
type Registry struct {
	mu      sync.RWMutex
	helpers map[string]vm.Helper
}

var _ vm.HelperResolver = (*Registry)(nil)

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		helpers: make(map[string]vm.Helper),
	}
}

// NewDefaultRegistry returns a registry seeded with Builtins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for name, helper := range Builtins() {
		r.MustRegister(name, helper)
	}
	return r
}

// Register adds a helper. Duplicate names return ErrHelperExists.
func (r *Registry) Register(name string, helper vm.Helper) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("render: %w: name is required", ErrInvalidHelper)
	}
	if helper == nil {
		return fmt.Errorf("render: %w: %q has no function", ErrInvalidHelper, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.helpers[name]; exists {
		return fmt.Errorf("render: %w: %q", ErrHelperExists, name)
	}
	r.helpers[name] = helper
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(name string, helper vm.Helper) {
	if err := r.Register(name, helper); err != nil {
		panic(err)
	}
}

// Replace registers helper under name, overwriting any previous entry.
func (r *Registry) Replace(name string, helper vm.Helper) error {
	name = strings.TrimSpace(name)
	if name == "" || helper == nil {
		return fmt.Errorf("render: %w: name and function required", ErrInvalidHelper)
	}
	r.mu.Lock()
	r.helpers[name] = helper
	r.mu.Unlock()
	return nil
}

// Merge registers every helper in helpers, overwriting existing names.
func (r *Registry) Merge(helpers map[string]vm.Helper) error {
	for name, helper := range helpers {
		if err := r.Replace(name, helper); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a helper by name.
func (r *Registry) Get(name string) (vm.Helper, error) {
	helper, ok := r.Helper(name)
	if !ok {
		return nil, fmt.Errorf("render: %w: %q", ErrHelperNotFound, name)
	}
	return helper, nil
}

// Helper implements vm.HelperResolver.
func (r *Registry) Helper(name string) (vm.Helper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	helper, ok := r.helpers[name]
	return helper, ok
}

// List returns a sorted list of helper names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a helper is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Helper(name)
	return ok
}
