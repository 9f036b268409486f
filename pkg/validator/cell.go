package validator

// Cell is a tracked storage slot. Reading it inside Clock.Track makes the
// tracked computation depend on it; writing it invalidates those computations.
type Cell struct {
	tag   *DirtyableTag
	value any
	equal func(a, b any) bool
}

// CellOption configures a Cell.
type CellOption func(*Cell)

// WithEquality skips invalidation when the new value equals the current one.
func WithEquality(equal func(a, b any) bool) CellOption {
	return func(c *Cell) {
		c.equal = equal
	}
}

// NewCell creates a cell holding value.
func (c *Clock) NewCell(value any, options ...CellOption) *Cell {
	cell := &Cell{tag: c.NewTag(), value: value}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cell)
	}
	return cell
}

// Get returns the value and consumes the cell's tag.
func (c *Cell) Get() any {
	c.tag.clock.Consume(c.tag)
	return c.value
}

// Peek returns the value without consuming the tag.
func (c *Cell) Peek() any {
	return c.value
}

// Set stores value and dirties the cell.
func (c *Cell) Set(value any) {
	if c.equal != nil && c.equal(c.value, value) {
		return
	}
	c.value = value
	c.tag.Dirty()
}

// Tag returns the cell's tag.
func (c *Cell) Tag() Tag {
	return c.tag
}
