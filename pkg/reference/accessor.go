package reference

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unsafe"

	"github.com/goliatone/go-hydrate/pkg/validator"
)

// PropertyAccessor reads and writes named properties on dynamic values.
type PropertyAccessor interface {
	Get(obj any, key string) any
	Set(obj any, key string, value any) error
}

// PropertyGetter lets a value expose its own properties.
type PropertyGetter interface {
	GetProperty(key string) (any, bool)
}

// PropertySetter lets a value accept writes to its own properties.
type PropertySetter interface {
	SetProperty(key string, value any) error
}

type reflectAccessor struct{}

// DefaultAccessor returns the reflection based accessor. It understands
// string keyed maps, structs (field name or json tag), slices and arrays
// (numeric index and "length"), and values implementing PropertyGetter or
// PropertySetter. Properties holding a *validator.Cell are read and written
// through the cell.
func DefaultAccessor() PropertyAccessor {
	return reflectAccessor{}
}

func (reflectAccessor) Get(obj any, key string) any {
	switch v := obj.(type) {
	case nil:
		return nil
	case map[string]any:
		return unwrapCell(v[key])
	case PropertyGetter:
		value, _ := v.GetProperty(key)
		return unwrapCell(value)
	}

	rv := indirect(reflect.ValueOf(obj))
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		item := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !item.IsValid() {
			return nil
		}
		return unwrapCell(item.Interface())
	case reflect.Struct:
		field, ok := structField(rv, key)
		if !ok || !field.CanInterface() {
			return nil
		}
		return unwrapCell(field.Interface())
	case reflect.Slice, reflect.Array:
		if key == "length" {
			return rv.Len()
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil
		}
		return unwrapCell(rv.Index(idx).Interface())
	}
	return nil
}

func (reflectAccessor) Set(obj any, key string, value any) error {
	switch v := obj.(type) {
	case nil:
		return fmt.Errorf("reference: cannot set %q on nil", key)
	case map[string]any:
		if cell, ok := v[key].(*validator.Cell); ok {
			cell.Set(value)
			return nil
		}
		v[key] = value
		return nil
	case PropertySetter:
		return v.SetProperty(key, value)
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice {
		return fmt.Errorf("reference: cannot set %q on non-addressable %T", key, obj)
	}
	rv = indirect(rv)

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("reference: cannot set %q on %T", key, obj)
		}
		mapKey := reflect.ValueOf(key).Convert(rv.Type().Key())
		if existing := rv.MapIndex(mapKey); existing.IsValid() {
			if cell, ok := existing.Interface().(*validator.Cell); ok {
				cell.Set(value)
				return nil
			}
		}
		item, err := assignable(value, rv.Type().Elem())
		if err != nil {
			return fmt.Errorf("reference: set %q: %w", key, err)
		}
		rv.SetMapIndex(mapKey, item)
		return nil
	case reflect.Struct:
		field, ok := structField(rv, key)
		if !ok {
			return fmt.Errorf("reference: %T has no property %q", obj, key)
		}
		if field.CanInterface() {
			if cell, ok := field.Interface().(*validator.Cell); ok {
				cell.Set(value)
				return nil
			}
		}
		if !field.CanSet() {
			return fmt.Errorf("reference: property %q on %T is not settable", key, obj)
		}
		item, err := assignable(value, field.Type())
		if err != nil {
			return fmt.Errorf("reference: set %q: %w", key, err)
		}
		field.Set(item)
		return nil
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return fmt.Errorf("reference: index %q out of range for %T", key, obj)
		}
		elem := rv.Index(idx)
		if !elem.CanSet() {
			return fmt.Errorf("reference: index %q on %T is not settable", key, obj)
		}
		item, err := assignable(value, elem.Type())
		if err != nil {
			return fmt.Errorf("reference: set %q: %w", key, err)
		}
		elem.Set(item)
		return nil
	}
	return fmt.Errorf("reference: cannot set %q on %T", key, obj)
}

func unwrapCell(value any) any {
	if cell, ok := value.(*validator.Cell); ok {
		return cell.Get()
	}
	return value
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func structField(rv reflect.Value, key string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Name == key {
			return rv.Field(i), true
		}
		if tag := sf.Tag.Get("json"); tag != "" {
			name, _, _ := strings.Cut(tag, ",")
			if name == key {
				return rv.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func assignable(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %T to %s", value, target)
}

// isDict reports whether value can carry properties.
func isDict(value any) bool {
	if value == nil {
		return false
	}
	switch value.(type) {
	case PropertyGetter, PropertySetter:
		return true
	}
	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	}
	return false
}

type propertyKey struct {
	obj unsafe.Pointer
	key string
}

// identityOf returns a stable pointer for values with reference semantics.
func identityOf(obj any) (unsafe.Pointer, bool) {
	if obj == nil {
		return nil, false
	}
	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		return rv.UnsafePointer(), true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return nil, false
		}
		return rv.UnsafePointer(), true
	}
	return nil, false
}

func (g *Graph) tagFor(obj any, key string) *validator.DirtyableTag {
	ptr, ok := identityOf(obj)
	if !ok {
		return nil
	}
	pk := propertyKey{obj: ptr, key: key}
	tag, ok := g.propertyTags[pk]
	if !ok {
		tag = g.clock.NewTag()
		g.propertyTags[pk] = tag
	}
	return tag
}

// GetProp reads key from obj and consumes the property's tag.
func (g *Graph) GetProp(obj any, key string) any {
	if tag := g.tagFor(obj, key); tag != nil {
		g.clock.Consume(tag)
	}
	return g.props.Get(obj, key)
}

// SetProp writes key on obj and dirties the property's tag.
func (g *Graph) SetProp(obj any, key string, value any) error {
	if err := g.props.Set(obj, key, value); err != nil {
		return err
	}
	if tag := g.tagFor(obj, key); tag != nil {
		tag.Dirty()
	}
	return nil
}

// GetPath reads a dotted path from obj.
func (g *Graph) GetPath(obj any, path string) any {
	current := obj
	for _, part := range strings.Split(path, ".") {
		if !isDict(current) {
			return nil
		}
		current = g.GetProp(current, part)
	}
	return current
}
