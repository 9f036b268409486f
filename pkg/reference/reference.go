package reference

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-hydrate/internal/logging"
	"github.com/goliatone/go-hydrate/pkg/validator"
)

// ErrNotUpdatable is returned when writing to a reference without a write-back
// function. It signals a programming error, not a recoverable condition.
var ErrNotUpdatable = errors.New("reference: called update on a non-updatable reference")

// Kind identifies the variant of a reference.
type Kind int

const (
	KindConstant Kind = iota
	KindCompute
	KindUnbound
	KindInvokable
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindCompute:
		return "compute"
	case KindUnbound:
		return "unbound"
	case KindInvokable:
		return "invokable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reference is a lazily computed, memoized value stamped with a validity tag.
type Reference struct {
	kind         Kind
	tag          validator.Tag
	lastRevision validator.Revision
	lastValue    any

	// children is owned by this reference; child references only keep a
	// back-link used to recompute, never to extend the parent's lifetime.
	children map[string]*Reference

	compute func() any
	update  func(value any) error

	label string
}

// Kind returns the reference variant.
func (r *Reference) Kind() Kind {
	return r.kind
}

// Label returns the debug label.
func (r *Reference) Label() string {
	return r.label
}

func (r *Reference) String() string {
	return fmt.Sprintf("Reference(%s %s)", r.kind, r.label)
}

// Shared primitive references.
var (
	Undefined = Primitive(nil)
	Null      = Primitive(nil)
	True      = Primitive(true)
	False     = Primitive(false)
)

// Primitive wraps a scalar in an unbound constant reference.
func Primitive(value any) *Reference {
	return &Reference{
		kind:      KindUnbound,
		tag:       validator.ConstantTag,
		lastValue: value,
		label:     fmt.Sprint(value),
	}
}

// Const wraps value in a constant reference. Children of a constant reference
// are computed lazily and track property tags.
func Const(value any, label string) *Reference {
	if label == "" {
		label = fmt.Sprint(value)
	}
	return &Reference{
		kind:      KindConstant,
		tag:       validator.ConstantTag,
		lastValue: value,
		label:     label,
	}
}

// Unbound wraps value in a reference whose children are snapshotted once.
func Unbound(value any, label string) *Reference {
	return &Reference{
		kind:      KindUnbound,
		tag:       validator.ConstantTag,
		lastValue: value,
		label:     label,
	}
}

// Option configures a Graph.
type Option func(*Graph)

// WithAccessor replaces the property accessor used by child references.
func WithAccessor(accessor PropertyAccessor) Option {
	return func(g *Graph) {
		if accessor != nil {
			g.props = accessor
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logging.OrDiscard(logger)
	}
}

// Graph evaluates references against a clock. It owns the property tags that
// make plain Go data observable and is exclusively owned by one render pass.
type Graph struct {
	clock  *validator.Clock
	props  PropertyAccessor
	logger *slog.Logger

	propertyTags map[propertyKey]*validator.DirtyableTag

	traceEnabled bool
	traced       map[*Reference][]*Reference
	traceStack   []*Reference
}

// NewGraph binds a graph to clock. A nil clock gets a fresh one.
func NewGraph(clock *validator.Clock, options ...Option) *Graph {
	if clock == nil {
		clock = validator.NewClock()
	}
	g := &Graph{
		clock:        clock,
		props:        DefaultAccessor(),
		logger:       logging.Discard(),
		propertyTags: make(map[propertyKey]*validator.DirtyableTag),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Clock returns the clock the graph validates against.
func (g *Graph) Clock() *validator.Clock {
	return g.clock
}

// Compute creates a computed reference. update may be nil for read-only refs.
func (g *Graph) Compute(compute func() any, update func(value any) error, label string) *Reference {
	if label == "" {
		label = "unknown"
	}
	return &Reference{
		kind:    KindCompute,
		compute: compute,
		update:  update,
		label:   label,
	}
}

// ReadOnly strips the write-back function from ref.
func (g *Graph) ReadOnly(ref *Reference) *Reference {
	if !IsUpdatable(ref) {
		return ref
	}
	return g.Compute(func() any { return g.Value(ref) }, nil, ref.label)
}

// Invokable marks inner as callable by consumers.
func (g *Graph) Invokable(inner *Reference) *Reference {
	ref := g.Compute(
		func() any { return g.Value(inner) },
		func(value any) error { return g.Update(inner, value) },
		inner.label,
	)
	ref.kind = KindInvokable
	return ref
}

// Alias wraps inner under a new debug label, keeping its kind and updatability.
func (g *Graph) Alias(label string, inner *Reference) *Reference {
	var update func(any) error
	if IsUpdatable(inner) {
		update = func(value any) error { return g.Update(inner, value) }
	}
	ref := g.Compute(func() any { return g.Value(inner) }, update, label)
	ref.kind = inner.kind
	return ref
}

// Value returns the current value of ref, recomputing only when the cached
// value is missing or its tag is no longer valid at the recorded revision.
// Every read consumes the reference's tag into the ambient tracking frame.
func (g *Graph) Value(ref *Reference) any {
	if g.traceEnabled && len(g.traceStack) > 0 {
		current := g.traceStack[len(g.traceStack)-1]
		g.traced[current] = append(g.traced[current], ref)
	}

	tag := ref.tag
	if tag != nil && validator.IsConstant(tag) {
		return ref.lastValue
	}

	if g.traceEnabled {
		g.traceStack = append(g.traceStack, ref)
		g.traced[ref] = nil
		defer func() { g.traceStack = g.traceStack[:len(g.traceStack)-1] }()
	}

	var value any
	if tag == nil || !validator.Validate(tag, ref.lastRevision) {
		compute := ref.compute
		tag = g.clock.Track(func() {
			value = compute()
		})
		ref.lastValue = value
		ref.tag = tag
		ref.lastRevision = tag.Revision()
		g.logger.Debug("reference recomputed", "label", ref.label, "revision", uint64(ref.lastRevision))
	} else {
		value = ref.lastValue
	}

	g.clock.Consume(tag)
	return value
}

// Update forwards value to the reference's write-back function. It never
// touches the cache; the next read revalidates.
func (g *Graph) Update(ref *Reference, value any) error {
	if ref.update == nil {
		return fmt.Errorf("%w (%s)", ErrNotUpdatable, ref.label)
	}
	return ref.update(value)
}

// MustUpdate is Update that panics on failure.
func (g *Graph) MustUpdate(ref *Reference, value any) {
	if err := g.Update(ref, value); err != nil {
		panic(err)
	}
}

// IsConst reports whether ref can never change.
func IsConst(ref *Reference) bool {
	return ref.tag != nil && validator.IsConstant(ref.tag)
}

// IsUpdatable reports whether ref has a write-back function.
func IsUpdatable(ref *Reference) bool {
	return ref.update != nil
}

// IsInvokable reports whether ref was marked callable.
func IsInvokable(ref *Reference) bool {
	return ref.kind == KindInvokable
}

// EnableTrace toggles recording of which references each read touched.
func (g *Graph) EnableTrace(enable bool) {
	g.traceEnabled = enable
	if enable && g.traced == nil {
		g.traced = make(map[*Reference][]*Reference)
	}
}

// Trace returns the recorded reads and clears them.
func (g *Graph) Trace() map[*Reference][]*Reference {
	out := make(map[*Reference][]*Reference, len(g.traced))
	for ref, reads := range g.traced {
		out[ref] = reads
	}
	g.traced = make(map[*Reference][]*Reference)
	return out
}
