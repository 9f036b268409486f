package builder

import "errors"

var (
	// ErrNextSiblingUnsupported reports a rehydrating builder created with a
	// starting sibling.
	ErrNextSiblingUnsupported = errors.New("builder: rehydration with next sibling not supported")
	// ErrMissingStartMarker reports a server tree without the opening
	// <!--%+b:0%--> comment.
	ErrMissingStartMarker = errors.New("builder: missing opening <!--%+b:0%--> comment for rehydration")
	// ErrUnbalancedCursors reports elements or blocks left open at the end of
	// a render.
	ErrUnbalancedCursors = errors.New("builder: unbalanced cursor stack")
)
