// Package validator implements the revision clock behind the reactive
// reference graph. A Clock hands out revisions and keeps an explicit stack of
// tracking frames; tags stamp mutable sources; Track records every tag consumed
// while a computation runs so the computation can later be revalidated in O(1)
// by comparing the combined tag against the revision it was computed at.
package validator
