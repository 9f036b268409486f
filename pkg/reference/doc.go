// Package reference implements the reactive reference graph. A Reference
// memoizes a computed value together with the tag it was computed under; a
// Graph reads references against a validator.Clock, recomputing only when the
// recorded tag has been invalidated since the value was cached.
//
// Plain Go data becomes observable through the Graph's property tags: reads
// through GetProp consume a per-object, per-key tag and writes through SetProp
// dirty it. Values held in a *validator.Cell are tracked by the cell itself.
package reference
