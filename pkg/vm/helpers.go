package vm

import (
	"fmt"
	"reflect"
	"strconv"
)

// Arguments are the evaluated values passed to a helper.
type Arguments struct {
	Positional []any
	Named      map[string]any
}

// At returns positional argument i, or nil when absent.
func (a Arguments) At(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

// Helper computes a value from its arguments. Helpers run inside tracking
// frames, so a helper result is recomputed only when an argument changes.
type Helper func(args Arguments) (any, error)

// HelperResolver looks up helpers by free variable name.
type HelperResolver interface {
	Helper(name string) (Helper, bool)
}

// Helpers is a fixed HelperResolver.
type Helpers map[string]Helper

func (h Helpers) Helper(name string) (Helper, bool) {
	helper, ok := h[name]
	return helper, ok
}

// SafeString is markup a template author vouches for. Appending one inserts
// it as HTML instead of text.
type SafeString string

type namedHelper struct {
	name   string
	helper Helper
}

// toBool follows template truthiness: nil, false, zero numbers, empty
// strings and empty collections are false.
func toBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case SafeString:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
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
	case reflect.Float32:
		return rv.Float() != 0
	}
	return true
}

// normalizeText converts an appended value to its text content.
func normalizeText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case SafeString:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
