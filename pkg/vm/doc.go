// Package vm executes compiled templates.
//
// Lower turns a wire.Template into a Program: flat instruction lists whose
// nested blocks are handles on a shared heap. A VM runs the program against a
// builder.Builder with an operand stack of references and a scope of symbol
// slots. Every dynamic part of the output registers an updater, so
// Result.Rerender revalidates the tree by comparing tags and touches only what
// changed.
//
// Lists are keyed. Rows keep their nodes across reorders, receive new values
// through tracked cells and are moved only when out of place. A list that
// flips between empty and non-empty rebuilds its whole site.
package vm
