package wire_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-hydrate/pkg/wire"
)

func TestTemplate_MarshalsTuples(t *testing.T) {
	tmpl := &wire.Template{
		Statements: []wire.Statement{
			&wire.OpenElement{Tag: "div"},
			&wire.StaticAttr{Name: "class", Value: "a"},
			&wire.DynamicAttr{Name: "id", Value: &wire.Get{Kind: wire.OpGetSymbol, Symbol: 0, Path: []string{"id"}}},
			&wire.StaticAttr{Name: "xlink:href", Value: "#x", Namespace: wire.NamespaceXLink},
			&wire.FlushElement{},
			&wire.Append{Value: &wire.Literal{Value: "hi"}},
			&wire.CloseElement{},
			&wire.If{
				Condition: &wire.Get{Kind: wire.OpGetSymbol, Symbol: 1},
				Block:     &wire.SerializedBlock{Statements: []wire.Statement{&wire.Append{Value: &wire.Undefined{}}}},
			},
		},
		Symbols: []string{"show"},
		Upvars:  []string{},
	}

	got, err := json.Marshal(tmpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"statements":[[10,"div"],[14,"class","a"],[15,"id",[30,0,["id"]]],` +
		`[14,"xlink:href","#x","http://www.w3.org/1999/xlink"],[12],[1,"hi"],[13],` +
		`[41,[30,1],[[[1,[27]]],[]],null]],"symbols":["show"],"upvars":[]}`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestCall_MarshalsNullParams(t *testing.T) {
	call := &wire.Call{
		Head: &wire.Get{Kind: wire.OpGetFreeAsHelperHead, Symbol: 0},
		Hash: &wire.Hash{Keys: []string{"n"}, Values: []wire.Expression{&wire.Literal{Value: 1.0}}},
	}
	got, err := json.Marshal(call)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if diff := cmp.Diff(`[28,[37,0],null,[["n"],[1]]]`, string(got)); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestOpString(t *testing.T) {
	if wire.OpEach.String() != "each" {
		t.Fatalf("unexpected name %q", wire.OpEach.String())
	}
	if wire.Op(999).String() != "op(999)" {
		t.Fatalf("unexpected fallback %q", wire.Op(999).String())
	}
	if !wire.OpGetFreeAsHelperHead.IsFree() || wire.OpGetSymbol.IsFree() {
		t.Fatalf("IsFree misclassified")
	}
}

func TestDisassemble(t *testing.T) {
	tmpl := &wire.Template{
		Statements: []wire.Statement{
			&wire.OpenElement{Tag: "div"},
			&wire.FlushElement{},
			&wire.If{
				Condition: &wire.Get{Kind: wire.OpGetSymbol, Symbol: 1},
				Block:     &wire.SerializedBlock{Statements: []wire.Statement{&wire.Append{Value: &wire.Literal{Value: "x"}}}},
			},
			&wire.CloseElement{},
		},
		Symbols: []string{"x"},
	}

	var buf bytes.Buffer
	if err := wire.Disassemble(&buf, tmpl); err != nil {
		t.Fatalf("disassemble: %v", err)
	}

	want := strings.Join([]string{
		"symbols: x",
		"upvars:  ",
		`open-element   "div"`,
		"flush-element",
		"if             [30,1]",
		"  default:",
		`    append     "x"`,
		"close-element",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}

	if err := wire.Disassemble(&buf, nil); err == nil {
		t.Fatalf("expected error for nil template")
	}
}
