// Package template defines the engine contract page layouts render through.
// The gotemplate subpackage renders the default document shell with
// github.com/goliatone/go-template.
package template
