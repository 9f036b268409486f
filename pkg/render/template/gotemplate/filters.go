package gotemplate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// filterCSSVars renders a map of custom properties as an inline style,
// sorted by name.
func filterCSSVars(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	vars := map[string]string{}
	switch m := in.Interface().(type) {
	case map[string]string:
		vars = m
	case map[string]any:
		for key, value := range m {
			vars[key] = fmt.Sprint(value)
		}
	default:
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(cssVarsStyle(vars)), nil
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		name := key
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		parts = append(parts, name+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
