package symbols_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-hydrate/pkg/symbols"
)

func TestProgram_AllocateNamedReusesSlots(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{})

	b := p.AllocateNamed("b")
	a := p.AllocateNamed("a")
	again := p.AllocateNamed("b")

	if b != 1 || a != 2 || again != b {
		t.Fatalf("unexpected slots b=%d a=%d again=%d", b, a, again)
	}
	if diff := cmp.Diff([]string{"b", "a"}, p.Symbols()); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
	if p.Size() != 3 {
		t.Fatalf("expected size 3, got %d", p.Size())
	}
}

func TestProgram_FreeVariablesAreDeduplicated(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{})
	child := p.Child([]string{"item"}).Child([]string{"i"})

	first := p.AllocateFree("foo", symbols.HelperHead)
	second := child.AllocateFree("foo", symbols.ComponentOrHelperHead)
	other := child.AllocateFree("bar", symbols.Strict)

	if first != second || other != 1 {
		t.Fatalf("unexpected upvar slots first=%d second=%d other=%d", first, second, other)
	}
	if diff := cmp.Diff([]string{"foo", "bar"}, p.Upvars()); diff != "" {
		t.Fatalf("upvars mismatch (-want +got):\n%s", diff)
	}
}

func TestProgram_AllocateBlockAliasesInverse(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{})

	elseSlot := p.AllocateBlock("else")
	inverse := p.AllocateBlock("inverse")
	if elseSlot != inverse {
		t.Fatalf("inverse should alias else: %d != %d", inverse, elseSlot)
	}
	if diff := cmp.Diff([]string{"&else"}, p.Symbols()); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestProgram_CustomizesAngleBracketComponents(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{CustomizeComponentName: strings.ToLower})

	p.AllocateFree("MyButton", symbols.AngleBracketComponentHead)
	p.AllocateFree("Other", symbols.ComponentHead)

	if diff := cmp.Diff([]string{"mybutton", "Other"}, p.Upvars()); diff != "" {
		t.Fatalf("upvars mismatch (-want +got):\n%s", diff)
	}
}

func TestBlock_ResolvesInnermostBinding(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{Locals: []string{"title"}})
	outer := p.Child([]string{"item", "index"})
	inner := outer.Child([]string{"item"})

	outerItem, _ := outer.Local("item")
	innerItem, _ := inner.Local("item")
	index, ok := inner.Local("index")

	if outerItem == innerItem {
		t.Fatalf("inner binding should shadow outer binding")
	}
	if !ok || index != 2 {
		t.Fatalf("expected index delegated to parent at slot 2, got %d (%v)", index, ok)
	}
	if inner.HasLocal("title") {
		t.Fatalf("template locals are not block locals")
	}
	if !inner.Has("title") {
		t.Fatalf("template locals should be visible through Has")
	}
	if slot, isRoot := inner.Get("title"); !isRoot || slot != 0 {
		t.Fatalf("expected root template local index 0, got %d (%v)", slot, isRoot)
	}
	if diff := cmp.Diff([]string{"title"}, p.UsedLocals()); diff != "" {
		t.Fatalf("used locals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"item", "index", "item"}, p.Symbols()); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestBlock_DebugInfo(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{})
	p.AllocateNamed("title")
	p.AllocateFree("t", symbols.HelperHead)
	block := p.Child([]string{"row"})

	want := symbols.DebugInfo{
		Locals: map[string]int{"title": 1, "row": 2},
		Upvars: map[string]int{"t": 0},
	}
	if diff := cmp.Diff(want, block.DebugInfo()); diff != "" {
		t.Fatalf("debug info mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywordsAndLexical(t *testing.T) {
	p := symbols.NewProgram(symbols.Options{
		Keywords: []string{"if"},
		Lexical:  func(name string) bool { return name == "t" },
	})
	block := p.Child(nil)

	if !block.HasKeyword("if") || block.HasKeyword("each") {
		t.Fatalf("keyword lookup should delegate to the program")
	}
	if !block.HasLexical("t") {
		t.Fatalf("lexical lookup should delegate to the program")
	}
	if slot := block.GetKeyword("if"); slot != 0 {
		t.Fatalf("expected keyword upvar slot 0, got %d", slot)
	}
}
