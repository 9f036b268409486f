package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-hydrate/pkg/render"
)

// LayoutRegistry stores page layouts by name.
type LayoutRegistry struct {
	mu      sync.RWMutex
	layouts map[string]render.Layout
}

// NewLayoutRegistry creates an empty layout registry.
func NewLayoutRegistry() *LayoutRegistry {
	return &LayoutRegistry{
		layouts: make(map[string]render.Layout),
	}
}

// Register adds a layout by its Name(). Duplicate names return an error.
func (r *LayoutRegistry) Register(layout render.Layout) error {
	if layout == nil {
		return fmt.Errorf("orchestrator: layout is required")
	}
	name := normalizeLayoutName(layout.Name())
	if name == "" {
		return fmt.Errorf("orchestrator: layout name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.layouts[name]; exists {
		return fmt.Errorf("orchestrator: layout %q already registered", name)
	}
	r.layouts[name] = layout
	return nil
}

// MustRegister panics on registration failure.
func (r *LayoutRegistry) MustRegister(layout render.Layout) {
	if err := r.Register(layout); err != nil {
		panic(err)
	}
}

// Get retrieves a layout by name.
func (r *LayoutRegistry) Get(name string) (render.Layout, error) {
	key := normalizeLayoutName(name)
	if key == "" {
		return nil, fmt.Errorf("orchestrator: layout name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	layout, ok := r.layouts[key]
	if !ok {
		return nil, fmt.Errorf("orchestrator: layout %q not found", key)
	}
	return layout, nil
}

// List returns a sorted list of layout names.
func (r *LayoutRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a layout is registered.
func (r *LayoutRegistry) Has(name string) bool {
	key := normalizeLayoutName(name)
	if key == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.layouts[key]
	return ok
}

func normalizeLayoutName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
