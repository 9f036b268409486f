package render

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-hydrate/pkg/vm"
)

// Builtins returns the helpers every default registry carries.
//
//	concat a b ...        joins the text of every argument
//	array a b ...         returns the arguments as a slice
//	hash k=v ...          returns the named arguments as a map
//	eq a b                reports equality
//	not a                 negates truthiness
//	or a b ...            returns the first truthy argument
//	and a b ...           returns the first falsy argument, or the last one
//	default a b           returns a unless it is empty, else b
//	upper, lower, trim    transform text
//	lowerfirst            lowercases the first non-blank rune
//	join list sep=", "    joins a list
//	safe a                marks text as trusted markup
func Builtins() map[string]vm.Helper {
	return map[string]vm.Helper{
		"concat":     helperConcat,
		"array":      helperArray,
		"hash":       helperHash,
		"eq":         helperEq,
		"not":        helperNot,
		"or":         helperOr,
		"and":        helperAnd,
		"default":    helperDefault,
		"upper":      textHelper(strings.ToUpper),
		"lower":      textHelper(strings.ToLower),
		"trim":       textHelper(strings.TrimSpace),
		"lowerfirst": textHelper(lowerFirst),
		"join":       helperJoin,
		"safe":       helperSafe,
	}
}

func helperConcat(args vm.Arguments) (any, error) {
	var b strings.Builder
	for _, value := range args.Positional {
		b.WriteString(text(value))
	}
	return b.String(), nil
}

func helperArray(args vm.Arguments) (any, error) {
	out := make([]any, len(args.Positional))
	copy(out, args.Positional)
	return out, nil
}

func helperHash(args vm.Arguments) (any, error) {
	out := make(map[string]any, len(args.Named))
	for key, value := range args.Named {
		out[key] = value
	}
	return out, nil
}

func helperEq(args vm.Arguments) (any, error) {
	if len(args.Positional) != 2 {
		return nil, &ArgumentError{Helper: "eq", Reason: "expects two arguments"}
	}
	return reflect.DeepEqual(args.At(0), args.At(1)), nil
}

func helperNot(args vm.Arguments) (any, error) {
	return !truthy(args.At(0)), nil
}

func helperOr(args vm.Arguments) (any, error) {
	for _, value := range args.Positional {
		if truthy(value) {
			return value, nil
		}
	}
	if n := len(args.Positional); n > 0 {
		return args.Positional[n-1], nil
	}
	return nil, nil
}

func helperAnd(args vm.Arguments) (any, error) {
	for _, value := range args.Positional {
		if !truthy(value) {
			return value, nil
		}
	}
	if n := len(args.Positional); n > 0 {
		return args.Positional[n-1], nil
	}
	return true, nil
}

func helperDefault(args vm.Arguments) (any, error) {
	if truthy(args.At(0)) {
		return args.At(0), nil
	}
	return args.At(1), nil
}

func textHelper(fn func(string) string) vm.Helper {
	return func(args vm.Arguments) (any, error) {
		return fn(text(args.At(0))), nil
	}
}

func helperJoin(args vm.Arguments) (any, error) {
	sep := ", "
	if raw, ok := args.Named["sep"]; ok {
		sep = text(raw)
	}
	if len(args.Positional) > 1 {
		return joinValues(args.Positional, sep), nil
	}
	list := reflect.ValueOf(args.At(0))
	if !list.IsValid() {
		return "", nil
	}
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return text(args.At(0)), nil
	}
	values := make([]any, list.Len())
	for i := range values {
		values[i] = list.Index(i).Interface()
	}
	return joinValues(values, sep), nil
}

func helperSafe(args vm.Arguments) (any, error) {
	return vm.SafeString(text(args.At(0))), nil
}

func joinValues(values []any, sep string) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = text(value)
	}
	return strings.Join(parts, sep)
}

func lowerFirst(s string) string {
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		return s[:i] + string(unicode.ToLower(r)) + s[i+utf8.RuneLen(r):]
	}
	return s
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case vm.SafeString:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case vm.SafeString:
		return v != ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}
