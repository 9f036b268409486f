// Package builder constructs document trees for the execution engine.
//
// One ElementBuilder type serves three modes. NewLive always creates nodes.
// NewSerializing creates nodes and interleaves the comment markers a server
// response needs: %+b:N% and %-b:N% around blocks, %|% between adjacent text
// nodes, % % for empty text, %glmr% around raw markup, and a
// <script glmr="id"> element at the start of each remote container.
// NewRehydrating walks an existing server tree instead, reusing every node the
// render matches and rebuilding the rest.
//
// The builder owns an explicit cursor stack. OpenElement/FlushElement push a
// cursor, CloseElement pops it, and Finalize checks that the stack is empty
// at the end of the render.
package builder
