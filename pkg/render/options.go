package render

// RenderOptions describe per-request settings a Layout can use without
// changing the rendered body.
type RenderOptions struct {
	// Template overrides the layout template name.
	Template string
	// Locale sets the document language.
	Locale string
	// Values are merged into the layout context after the page fields.
	Values map[string]any
	// EmbedState serializes Page.State into the document.
	EmbedState bool
}
