// Package syntax defines the normalized template tree consumed by the
// compiler. Statements and expressions are closed sets: each kind is a pointer
// type implementing an unexported marker method, so a type switch over them
// is the complete dispatch.
//
// Templates are authored as JSON or YAML documents and decoded with Load or
// LoadFS.
package syntax
