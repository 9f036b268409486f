package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type listingLine struct {
	depth    int
	op       string
	operands string
}

// Disassemble writes a readable listing of t: one instruction per line,
// nested blocks indented, operands aligned in a column after the opcode names.
func Disassemble(w io.Writer, t *Template) error {
	if t == nil {
		return fmt.Errorf("wire: disassemble nil template")
	}

	var lines []listingLine
	collect(&lines, t.Statements, 0)

	width := 0
	for _, line := range lines {
		if n := runewidth.StringWidth(indent(line.depth) + line.op); n > width {
			width = n
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "symbols: %s\n", strings.Join(t.Symbols, " "))
	fmt.Fprintf(bw, "upvars:  %s\n", strings.Join(t.Upvars, " "))
	if len(t.UsedLocals) > 0 {
		fmt.Fprintf(bw, "locals:  %s\n", strings.Join(t.UsedLocals, " "))
	}
	for _, line := range lines {
		head := runewidth.FillRight(indent(line.depth)+line.op, width)
		if line.operands == "" {
			fmt.Fprintln(bw, strings.TrimRight(head, " "))
			continue
		}
		fmt.Fprintf(bw, "%s  %s\n", head, line.operands)
	}
	return bw.Flush()
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func collect(lines *[]listingLine, statements []Statement, depth int) {
	for _, stmt := range statements {
		line := listingLine{depth: depth, op: stmt.Op().String()}
		switch s := stmt.(type) {
		case *If:
			line.operands = operand(s.Condition)
			*lines = append(*lines, line)
			collectBlock(lines, "default", s.Block, depth+1)
			collectBlock(lines, "else", s.Inverse, depth+1)
			continue
		case *Each:
			line.operands = operand(s.List)
			if s.Key != nil {
				line.operands += " key=" + operand(s.Key)
			}
			*lines = append(*lines, line)
			collectBlock(lines, "default", s.Block, depth+1)
			collectBlock(lines, "else", s.Inverse, depth+1)
			continue
		case *Let:
			line.operands = operand(s.Params)
			*lines = append(*lines, line)
			collectBlock(lines, "default", s.Block, depth+1)
			continue
		case *Block:
			line.operands = operand([]any{s.Head, params(s.Params), s.Hash})
			*lines = append(*lines, line)
			collectNamed(lines, s.Blocks, depth+1)
			continue
		case *Component:
			line.operands = operand([]any{s.Head, s.Args})
			*lines = append(*lines, line)
			collect(lines, s.Attrs, depth+1)
			collectNamed(lines, s.Blocks, depth+1)
			continue
		default:
			line.operands = operandsOf(stmt)
		}
		*lines = append(*lines, line)
	}
}

func collectNamed(lines *[]listingLine, blocks *Blocks, depth int) {
	if blocks == nil {
		return
	}
	for i, name := range blocks.Names {
		collectBlock(lines, name, blocks.Blocks[i], depth)
	}
}

func collectBlock(lines *[]listingLine, name string, block *SerializedBlock, depth int) {
	if block == nil {
		return
	}
	label := listingLine{depth: depth, op: name + ":"}
	if len(block.Parameters) > 0 {
		label.operands = operand(block.Parameters)
	}
	*lines = append(*lines, label)
	collect(lines, block.Statements, depth+1)
}

// operandsOf renders the tuple of stmt without its leading opcode.
func operandsOf(stmt Statement) string {
	raw, err := stmt.MarshalJSON()
	if err != nil {
		return "!" + err.Error()
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) < 2 {
		return ""
	}
	parts := make([]string, 0, len(tuple)-1)
	for _, item := range tuple[1:] {
		parts = append(parts, string(item))
	}
	return strings.Join(parts, " ")
}

func operand(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "!" + err.Error()
	}
	return string(raw)
}
