// Package compiler lowers a syntax tree into the wire form.
//
// A bare identifier resolves, in order, to a block local of the current or an
// enclosing block, to a named slot (an identifier already allocated as named
// or declared in Scope.Locals), and finally to a free variable. Free variables
// are registered once per program and tagged with an opcode chosen by their
// syntactic position: appends resolve as component-or-helper heads, trusted
// appends, attribute values and sub-expressions as helper heads, and params
// as strict keywords.
package compiler
