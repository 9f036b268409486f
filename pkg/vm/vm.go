package vm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-hydrate/internal/logging"
	"github.com/goliatone/go-hydrate/pkg/builder"
	"github.com/goliatone/go-hydrate/pkg/dom"
	"github.com/goliatone/go-hydrate/pkg/reference"
)

// Option configures a VM.
type Option func(*VM)

// WithGraph evaluates against graph instead of a private one. Share a graph
// when the caller mutates data through Graph.SetProp between rerenders.
func WithGraph(graph *reference.Graph) Option {
	return func(m *VM) {
		if graph != nil {
			m.graph = graph
		}
	}
}

// WithHelpers resolves call heads and bare appends against helpers.
func WithHelpers(helpers HelperResolver) Option {
	return func(m *VM) {
		m.helpers = helpers
	}
}

// WithSanitizer filters the markup of trusting appends.
func WithSanitizer(sanitize func(string) string) Option {
	return func(m *VM) {
		m.sanitize = sanitize
	}
}

// WithLogger attaches a structured logger, also handed to update builders.
func WithLogger(logger *slog.Logger) Option {
	return func(m *VM) {
		m.logger = logging.OrDiscard(logger)
	}
}

// VM executes a lowered Program. A VM can render many times; each Render
// owns its operand stack and update tree.
type VM struct {
	program  *Program
	graph    *reference.Graph
	helpers  HelperResolver
	sanitize func(string) string
	logger   *slog.Logger
}

// New creates a VM for program.
func New(program *Program, options ...Option) *VM {
	m := &VM{program: program, logger: logging.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.graph == nil {
		m.graph = reference.NewGraph(nil, reference.WithLogger(m.logger))
	}
	return m
}

// Graph returns the reference graph the VM evaluates against.
func (m *VM) Graph() *reference.Graph {
	return m.graph
}

// Program returns the program the VM executes.
func (m *VM) Program() *Program {
	return m.program
}

// Data is the input of one render. Self binds this, Args binds @names,
// Locals binds template locals and Env answers free variables. Nil maps are
// replaced by empty ones.
type Data struct {
	Self   any
	Args   map[string]any
	Locals map[string]any
	Env    map[string]any
}

// Render runs the program into b and finalizes it.
func (m *VM) Render(ctx context.Context, b builder.Builder, data Data) (*Result, error) {
	if m.program == nil {
		return nil, fmt.Errorf("vm: program is required")
	}
	ex := newExecution(ctx, m, b, data)
	if err := ex.invoke(m.program.Main, ex.rootScope(), nil); err != nil {
		return nil, err
	}
	if len(ex.stack) != 0 {
		return nil, fmt.Errorf("vm: %d values left on the operand stack", len(ex.stack))
	}
	root, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("vm: finalize: %w", err)
	}
	m.logger.Debug("render complete", "updaters", len(ex.updaters))
	return &Result{ex: ex, root: root}, nil
}

type scope struct {
	slots []*reference.Reference
}

func (s *scope) fork() *scope {
	slots := make([]*reference.Reference, len(s.slots))
	copy(slots, s.slots)
	return &scope{slots: slots}
}

// execution is the state of one render and its later updates.
type execution struct {
	ctx     context.Context
	vm      *VM
	graph   *reference.Graph
	program *Program
	doc     *dom.Document
	b       builder.Builder

	stack []*reference.Reference
	lists []*listState
	// reentry is the list whose site block is being rebuilt.
	reentry *listState

	updaters []updater
	sink     *[]updater

	self   *reference.Reference
	args   *reference.Reference
	locals *reference.Reference
	env    *reference.Reference

	localValues map[string]any
	err         error
}

func newExecution(ctx context.Context, m *VM, b builder.Builder, data Data) *execution {
	if ctx == nil {
		ctx = context.Background()
	}
	ex := &execution{
		ctx:         ctx,
		vm:          m,
		graph:       m.graph,
		program:     m.program,
		doc:         b.Document(),
		b:           b,
		self:        reference.Const(data.Self, "this"),
		args:        reference.Const(orEmpty(data.Args), "@args"),
		locals:      reference.Const(orEmpty(data.Locals), "locals"),
		env:         reference.Const(orEmpty(data.Env), "env"),
		localValues: data.Locals,
	}
	ex.sink = &ex.updaters
	return ex
}

func orEmpty(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}

// rootScope binds this, @arguments and template locals. Block param slots
// start undefined and are bound on invocation.
func (ex *execution) rootScope() *scope {
	slots := make([]*reference.Reference, ex.program.Size())
	slots[0] = ex.self
	for i, name := range ex.program.Symbols {
		slot := i + 1
		switch {
		case strings.HasPrefix(name, "@"):
			slots[slot] = ex.graph.Child(ex.args, name[1:])
		case strings.HasPrefix(name, "&"):
			slots[slot] = reference.Undefined
		default:
			slots[slot] = ex.local(name)
		}
	}
	return &scope{slots: slots}
}

func (ex *execution) local(name string) *reference.Reference {
	if _, ok := ex.localValues[name]; ok {
		return ex.graph.Child(ex.locals, name)
	}
	return ex.graph.Child(ex.env, name)
}

func (ex *execution) fail(err error) {
	if ex.err == nil {
		ex.err = err
	}
}

func (ex *execution) track(u updater) {
	*ex.sink = append(*ex.sink, u)
}

// withSink collects the updaters created by fn into sink.
func (ex *execution) withSink(sink *[]updater, fn func() error) error {
	saved := ex.sink
	ex.sink = sink
	defer func() { ex.sink = saved }()
	return fn()
}

func (ex *execution) push(ref *reference.Reference) {
	ex.stack = append(ex.stack, ref)
}

func (ex *execution) pop() (*reference.Reference, error) {
	if len(ex.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	ref := ex.stack[len(ex.stack)-1]
	ex.stack = ex.stack[:len(ex.stack)-1]
	return ref, nil
}

// popN returns the top n values in push order.
func (ex *execution) popN(n int) ([]*reference.Reference, error) {
	if n > len(ex.stack) {
		return nil, ErrStackUnderflow
	}
	at := len(ex.stack) - n
	refs := make([]*reference.Reference, n)
	copy(refs, ex.stack[at:])
	ex.stack = ex.stack[:at]
	return refs, nil
}

// invoke runs block handle in sc. args bind the block's params in order;
// missing ones are undefined.
func (ex *execution) invoke(handle int, sc *scope, args []*reference.Reference) error {
	if err := ex.ctx.Err(); err != nil {
		return err
	}
	if handle < 0 || handle >= len(ex.program.Blocks) {
		return fmt.Errorf("vm: block handle %d out of range", handle)
	}
	block := ex.program.Blocks[handle]
	if len(block.Params) > 0 {
		sc = sc.fork()
		for i, slot := range block.Params {
			if i < len(args) {
				sc.slots[slot] = args[i]
			} else {
				sc.slots[slot] = reference.Undefined
			}
		}
	}

	for pc := 0; pc < len(block.Ops); {
		in := block.Ops[pc]
		pc++
		jump, err := ex.step(handle, in, sc)
		if err != nil {
			return fmt.Errorf("vm: block %d %s: %w", handle, in.Op, err)
		}
		if ex.err != nil {
			return ex.err
		}
		switch {
		case in.Op == OpHalt:
			return nil
		case in.Op == OpJump || jump:
			pc = in.A
		}
	}
	return nil
}

// step executes one instruction and reports whether to jump to in.A.
func (ex *execution) step(handle int, in Instruction, sc *scope) (bool, error) {
	switch in.Op {
	case OpText:
		ex.b.AppendText(in.Name)
	case OpComment:
		ex.b.AppendComment(in.Name)
	case OpOpenElement:
		ex.b.OpenElement(in.Name)
	case OpStaticAttr:
		value, _ := in.Value.(string)
		ex.b.SetStaticAttribute(in.Name, value, in.Namespace)
	case OpDynamicAttr:
		ref, err := ex.pop()
		if err != nil {
			return false, err
		}
		attr := ex.b.SetDynamicAttribute(in.Name, ex.graph.Value(ref), in.Namespace)
		if !reference.IsConst(ref) {
			ex.track(&attrUpdater{ref: ref, attr: attr})
		}
	case OpFlushElement:
		ex.b.FlushElement()
	case OpCloseElement:
		ex.b.CloseElement()
	case OpAppend:
		ref, err := ex.pop()
		if err != nil {
			return false, err
		}
		return false, ex.appendContent(ref, in.Flag)
	case OpPushSymbol:
		ref := sc.slots[in.A]
		if ref == nil {
			ref = reference.Undefined
		}
		ex.push(ref)
	case OpPushFree:
		ex.push(ex.free(in))
	case OpPushConst:
		ex.push(reference.Primitive(in.Value))
	case OpGetProperty:
		ref, err := ex.pop()
		if err != nil {
			return false, err
		}
		ex.push(ex.graph.Child(ref, in.Name))
	case OpConcat:
		parts, err := ex.popN(in.A)
		if err != nil {
			return false, err
		}
		ex.push(ex.concat(parts))
	case OpCall:
		named, err := ex.popN(len(in.Names))
		if err != nil {
			return false, err
		}
		positional, err := ex.popN(in.A)
		if err != nil {
			return false, err
		}
		callee, err := ex.pop()
		if err != nil {
			return false, err
		}
		ex.push(ex.call(callee, positional, in.Names, named))
	case OpConditional:
		cond, err := ex.pop()
		if err != nil {
			return false, err
		}
		return false, ex.conditional(cond, in.A, in.B, sc)
	case OpLet:
		values, err := ex.popN(in.B)
		if err != nil {
			return false, err
		}
		return false, ex.invoke(in.A, sc, values)
	case OpEnterList:
		return ex.enterList(handle, sc)
	case OpIterate:
		return ex.iterate(in.B)
	case OpExitList:
		return false, ex.exitList()
	case OpInvokeBlock:
		return false, ex.invoke(in.A, sc, nil)
	case OpPop:
		_, err := ex.pop()
		return false, err
	case OpJump, OpHalt:
	default:
		return false, fmt.Errorf("unknown opcode %d", int(in.Op))
	}
	return false, nil
}

func (ex *execution) helper(name string) (Helper, bool) {
	if ex.vm.helpers == nil {
		return nil, false
	}
	return ex.vm.helpers.Helper(name)
}

func (ex *execution) free(in Instruction) *reference.Reference {
	switch freeMode(in.B) {
	case freeLexical:
		return ex.local(in.Name)
	case freeCallee:
		if helper, ok := ex.helper(in.Name); ok {
			return reference.Const(namedHelper{name: in.Name, helper: helper}, in.Name)
		}
	case freeInvoke:
		if helper, ok := ex.helper(in.Name); ok {
			callee := reference.Const(namedHelper{name: in.Name, helper: helper}, in.Name)
			return ex.call(callee, nil, nil, nil)
		}
	}
	return ex.graph.Child(ex.env, in.Name)
}

func (ex *execution) concat(parts []*reference.Reference) *reference.Reference {
	return ex.graph.Compute(func() any {
		var b strings.Builder
		for _, part := range parts {
			b.WriteString(normalizeText(ex.graph.Value(part)))
		}
		return b.String()
	}, nil, "concat")
}

// call evaluates its arguments inside the computation, so the result is
// invalidated exactly when the head or an argument changes. Failures are
// recorded on the execution and surface from Render or Rerender.
func (ex *execution) call(callee *reference.Reference, positional []*reference.Reference, names []string, named []*reference.Reference) *reference.Reference {
	return ex.graph.Compute(func() any {
		var (
			name   = callee.Label()
			helper Helper
		)
		switch head := ex.graph.Value(callee).(type) {
		case namedHelper:
			name, helper = head.name, head.helper
		case Helper:
			helper = head
		case func(Arguments) (any, error):
			helper = head
		}
		if helper == nil {
			ex.fail(fmt.Errorf("%w: %s", ErrNotCallable, name))
			return nil
		}

		args := Arguments{Positional: make([]any, len(positional))}
		for i, ref := range positional {
			args.Positional[i] = ex.graph.Value(ref)
		}
		if len(names) > 0 {
			args.Named = make(map[string]any, len(names))
			for i, key := range names {
				args.Named[key] = ex.graph.Value(named[i])
			}
		}
		value, err := helper(args)
		if err != nil {
			ex.fail(&HelperError{Name: name, Err: err})
			return nil
		}
		return value
	}, nil, "call "+callee.Label())
}

// markup returns the content to insert for value and whether it is HTML.
func (ex *execution) markup(value any, trusted bool) (string, bool) {
	if safe, ok := value.(SafeString); ok {
		return string(safe), true
	}
	text := normalizeText(value)
	if !trusted {
		return text, false
	}
	if ex.vm.sanitize != nil {
		text = ex.vm.sanitize(text)
	}
	return text, true
}

// appendContent wraps dynamic content in its own block so a change of kind
// between text and markup can rebuild it in place.
func (ex *execution) appendContent(ref *reference.Reference, trusted bool) error {
	c := &contentUpdater{ref: ref, trusted: trusted}
	c.block = ex.b.PushUpdatableBlock()
	if err := c.render(ex, ex.graph.Value(ref)); err != nil {
		return err
	}
	ex.b.PopBlock()
	if !reference.IsConst(ref) {
		ex.track(c)
	}
	return nil
}

func (ex *execution) conditional(cond *reference.Reference, then, inverse int, sc *scope) error {
	truthy := ex.graph.Compute(func() any {
		return toBool(ex.graph.Value(cond))
	}, nil, "if "+cond.Label())
	c := &conditionalUpdater{ref: truthy, then: then, inverse: inverse, scope: sc}
	c.block = ex.b.PushUpdatableBlock()
	if err := c.render(ex); err != nil {
		return err
	}
	ex.b.PopBlock()
	if !reference.IsConst(truthy) {
		ex.track(c)
	}
	return nil
}

// resume rebuilds block with a live builder positioned where its content
// was, then restores the current builder.
func (ex *execution) resume(block *builder.UpdatableBlock, fn func() error) error {
	saved := ex.b
	b := builder.Resume(ex.doc, block, builder.WithLogger(ex.vm.logger))
	ex.b = b
	defer func() { ex.b = saved }()

	if err := fn(); err != nil {
		return err
	}
	b.PopBlock()
	if _, err := b.Finalize(); err != nil {
		return fmt.Errorf("vm: finalize update: %w", err)
	}
	return nil
}
