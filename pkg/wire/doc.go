// Package wire defines the compiled template form. Every statement and
// expression marshals to a JSON tuple whose first element is its opcode;
// literals are bare JSON values. Disassemble prints a template for humans.
package wire
