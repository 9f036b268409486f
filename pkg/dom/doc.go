// Package dom is a minimal document tree: elements, text, comments and
// fragments linked by parent and sibling pointers.
//
// Every node is created through a Document, which counts creations,
// insertions, removals and value writes. Rehydration tests use those counters
// to prove that a matching server tree was reused rather than rebuilt.
// Markup is parsed and rendered with golang.org/x/net/html.
package dom
