package render

import (
	"context"
)

// Layout wraps rendered template markup in a complete document.
type Layout interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, options RenderOptions) ([]byte, error)
}

// Page is the input of a Layout.
type Page struct {
	// Title is the document title.
	Title string
	// Body is the rendered template markup. Serialized output still carries
	// its rehydration markers.
	Body string
	// Mode names the builder that produced Body.
	Mode string
	// ThemeName and ThemeVariant identify the selected theme, if any.
	ThemeName    string
	ThemeVariant string
	// CSSVars are emitted as custom properties on the document root.
	CSSVars map[string]string
	// State is the data the page was rendered with, embedded for a client
	// side rehydration pass.
	State any
}
