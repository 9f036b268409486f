// Package render holds what a template render needs from its environment:
// the helper registry resolved by free variable name, the sanitizer policies
// applied to trusted appends, translation helpers, and the Layout contract
// used to wrap rendered markup in a document.
package render
