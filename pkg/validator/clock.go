package validator

// Clock owns the revision counter and the stack of tracking frames used while
// computing derived values. A render pass owns exactly one clock; it is not
// safe for concurrent use.
type Clock struct {
	now    Revision
	frames []*frame
}

type frame struct {
	tags    []Tag
	discard bool
}

func (f *frame) add(tag Tag) {
	if f.discard || IsConstant(tag) {
		return
	}
	for _, existing := range f.tags {
		if existing == tag {
			return
		}
	}
	f.tags = append(f.tags, tag)
}

// NewClock returns a clock positioned at Initial with no open frames.
func NewClock() *Clock {
	return &Clock{now: Initial}
}

// Now returns the current revision.
func (c *Clock) Now() Revision {
	return c.now
}

func (c *Clock) bump() Revision {
	c.now++
	return c.now
}

// NewTag creates a dirtyable tag bound to this clock.
func (c *Clock) NewTag() *DirtyableTag {
	return &DirtyableTag{clock: c, revision: Initial}
}

// Track runs fn inside a fresh frame and returns the combined tag of every
// tag consumed while it ran.
func (c *Clock) Track(fn func()) Tag {
	f := &frame{}
	c.frames = append(c.frames, f)
	defer c.pop(f)

	fn()
	return Combine(f.tags)
}

// Untrack runs fn without recording consumption into any enclosing frame.
func (c *Clock) Untrack(fn func()) {
	f := &frame{discard: true}
	c.frames = append(c.frames, f)
	defer c.pop(f)

	fn()
}

// Consume records tag into the innermost frame. Outside of Track it is a no-op.
func (c *Clock) Consume(tag Tag) {
	if tag == nil || len(c.frames) == 0 {
		return
	}
	c.frames[len(c.frames)-1].add(tag)
}

// IsTracking reports whether a recording frame is open.
func (c *Clock) IsTracking() bool {
	return len(c.frames) > 0 && !c.frames[len(c.frames)-1].discard
}

// Depth returns the number of open frames.
func (c *Clock) Depth() int {
	return len(c.frames)
}

func (c *Clock) pop(f *frame) {
	n := len(c.frames)
	if n == 0 || c.frames[n-1] != f {
		panic("validator: BUG: tracking frames popped out of order")
	}
	c.frames[n-1] = nil
	c.frames = c.frames[:n-1]
}
