package wire

import "fmt"

// Op is a wire-format opcode. Values are stable across releases because they
// are persisted in compiled templates.
type Op int

const (
	OpAppend                         Op = 1
	OpTrustingAppend                 Op = 2
	OpComment                        Op = 3
	OpModifier                       Op = 4
	OpBlock                          Op = 6
	OpComponent                      Op = 8
	OpOpenElement                    Op = 10
	OpOpenElementWithSplat           Op = 11
	OpFlushElement                   Op = 12
	OpCloseElement                   Op = 13
	OpStaticAttr                     Op = 14
	OpDynamicAttr                    Op = 15
	OpAttrSplat                      Op = 17
	OpUndefined                      Op = 27
	OpCall                           Op = 28
	OpConcat                         Op = 29
	OpGetSymbol                      Op = 30
	OpGetStrictKeyword               Op = 31
	OpGetLexicalSymbol               Op = 32
	OpGetFreeAsComponentOrHelperHead Op = 35
	OpGetFreeAsHelperHead            Op = 37
	OpGetFreeAsModifierHead          Op = 38
	OpGetFreeAsComponentHead         Op = 39
	OpIf                             Op = 41
	OpEach                           Op = 42
	OpLet                            Op = 44
	OpHasBlock                       Op = 48
	OpHasBlockParams                 Op = 49
)

func (op Op) String() string {
	switch op {
	case OpAppend:
		return "append"
	case OpTrustingAppend:
		return "trusting-append"
	case OpComment:
		return "comment"
	case OpModifier:
		return "modifier"
	case OpBlock:
		return "block"
	case OpComponent:
		return "component"
	case OpOpenElement:
		return "open-element"
	case OpOpenElementWithSplat:
		return "open-element-with-splat"
	case OpFlushElement:
		return "flush-element"
	case OpCloseElement:
		return "close-element"
	case OpStaticAttr:
		return "static-attr"
	case OpDynamicAttr:
		return "dynamic-attr"
	case OpAttrSplat:
		return "attr-splat"
	case OpUndefined:
		return "undefined"
	case OpCall:
		return "call"
	case OpConcat:
		return "concat"
	case OpGetSymbol:
		return "get-symbol"
	case OpGetStrictKeyword:
		return "get-strict-keyword"
	case OpGetLexicalSymbol:
		return "get-lexical-symbol"
	case OpGetFreeAsComponentOrHelperHead:
		return "get-free-as-component-or-helper-head"
	case OpGetFreeAsHelperHead:
		return "get-free-as-helper-head"
	case OpGetFreeAsModifierHead:
		return "get-free-as-modifier-head"
	case OpGetFreeAsComponentHead:
		return "get-free-as-component-head"
	case OpIf:
		return "if"
	case OpEach:
		return "each"
	case OpLet:
		return "let"
	case OpHasBlock:
		return "has-block"
	case OpHasBlockParams:
		return "has-block-params"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// IsGet reports whether op reads a variable.
func (op Op) IsGet() bool {
	switch op {
	case OpGetSymbol, OpGetStrictKeyword, OpGetLexicalSymbol,
		OpGetFreeAsComponentOrHelperHead, OpGetFreeAsHelperHead,
		OpGetFreeAsModifierHead, OpGetFreeAsComponentHead:
		return true
	}
	return false
}

// IsFree reports whether op reads an upvar.
func (op Op) IsFree() bool {
	switch op {
	case OpGetStrictKeyword, OpGetFreeAsComponentOrHelperHead, OpGetFreeAsHelperHead,
		OpGetFreeAsModifierHead, OpGetFreeAsComponentHead:
		return true
	}
	return false
}

// Namespaces for attributes.
const (
	NamespaceXLink = "http://www.w3.org/1999/xlink"
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
	NamespaceXMLNS = "http://www.w3.org/2000/xmlns/"
)
