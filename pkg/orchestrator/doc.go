// Package orchestrator wires the template pipeline: decode a template
// document, transform it, compile it to the wire format, lower it to a
// program, execute it through a serializing, live or rehydrating builder, and
// wrap the markup in a page layout. Theme selection and helper registration
// happen here so the lower packages stay free of configuration.
package orchestrator
