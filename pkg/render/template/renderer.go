package template

import (
	"io"
)

// TemplateRenderer is the seam layouts render through. The go-template
// engine satisfies it.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
