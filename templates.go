package hydrate

import (
	"io/fs"

	"github.com/goliatone/go-hydrate/pkg/render/template/gotemplate"
)

// LayoutTemplates exposes the built-in page shell templates so callers can
// reuse or extend them without importing the layout package directly.
func LayoutTemplates() fs.FS {
	return gotemplate.ShellFS()
}
