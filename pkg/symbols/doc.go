// Package symbols allocates template identifiers into integer slots. A
// Program owns the slot counter, the declared symbol list and the upvars; each
// Block binds block params to slots allocated in the Program when the block is
// created and delegates everything else to its parent.
package symbols
