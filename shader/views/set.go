package views

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/definitions"
)

// SetStructuredView writes a nested Go value through a view tree. Struct views take
// a map with string keys or a Go struct, whose fields are matched by their wgsl tag
// or else their name. Array views and typed arrays take slices or arrays. A typed
// array of one element also takes a bare number.
//
// Input may be sparse: missing map keys, nil pointers and nil slice entries leave the
// buffer untouched. Any other mismatch between the value and the view, including an
// unknown field or a slice longer than its view, fails with ErrShapeMismatch.
//
// Parameters:
//   - data: the value to write
//   - v: the view tree to write through
//
// Returns:
//   - error: ErrShapeMismatch if data does not fit the views
func SetStructuredView(data any, v View) error {
	return setView(reflect.ValueOf(data), v, "")
}

func setView(rv reflect.Value, v View, path string) error {
	rv = indirect(rv)
	if !rv.IsValid() {
		return nil
	}

	switch v := v.(type) {
	case *TypedArray:
		return setTypedArray(rv, v, path)
	case StructViews:
		return eachField(rv, path, func(name string, fv reflect.Value) error {
			sub, ok := v[name]
			if !ok {
				return shapeError(fieldPath(path, name), "unknown field")
			}
			return setView(fv, sub, fieldPath(path, name))
		})
	case ArrayViews:
		if !isList(rv) {
			return shapeError(path, "cannot set array from %s", rv.Type())
		}
		if rv.Len() > len(v) {
			return shapeError(path, "%d elements into array of %d", rv.Len(), len(v))
		}
		for i := range rv.Len() {
			if err := setView(rv.Index(i), v[i], indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return shapeError(path, "unsupported view %T", v)
}

func setTypedArray(rv reflect.Value, a *TypedArray, path string) error {
	if n, ok := number(rv); ok {
		if a.Len() != 1 {
			return shapeError(path, "scalar into %d elements", a.Len())
		}
		a.Set(0, n)
		return nil
	}
	if !isList(rv) {
		return shapeError(path, "cannot set %s elements from %s", a.Kind(), rv.Type())
	}
	if rv.Len() > a.Len() {
		return shapeError(path, "%d values into %d elements", rv.Len(), a.Len())
	}
	for i := range rv.Len() {
		ev := indirect(rv.Index(i))
		if !ev.IsValid() {
			continue
		}
		n, ok := number(ev)
		if !ok {
			return shapeError(indexPath(path, i), "cannot set %s element from %s", a.Kind(), ev.Type())
		}
		a.Set(i, n)
	}
	return nil
}

// SetTypedValues writes a nested Go value into buf at offset using only the
// definition, without building views. It accepts everything SetStructuredView
// accepts for the flattened views of def and writes the same bytes. An array of
// intrinsics additionally takes one slice per element, each written at the
// element's stride.
//
// Parameters:
//   - def: the variable or field definition describing data
//   - data: the value to write
//   - buf: the destination buffer
//   - offset: the byte offset of the value in buf
//
// Returns:
//   - error: ErrShapeMismatch, ErrUnknownType or ErrBufferTooSmall
func SetTypedValues(def definitions.Definition, data any, buf *ArrayBuffer, offset uint64) error {
	root := def.Root()
	if root == nil {
		return errUnresolved
	}
	w := &valueWriter{data: buf.data, base: offset, rootOffset: root.ByteOffset()}
	return w.set(reflect.ValueOf(data), root, 0, "")
}

type valueWriter struct {
	data       []byte
	base       uint64
	rootOffset uint64
}

func (w *valueWriter) position(fd definitions.FieldDefinition, shift uint64) uint64 {
	return w.base + fd.ByteOffset() - w.rootOffset + shift
}

func (w *valueWriter) set(rv reflect.Value, fd definitions.FieldDefinition, shift uint64, path string) error {
	rv = indirect(rv)
	if !rv.IsValid() {
		return nil
	}

	switch d := fd.(type) {
	case *definitions.IntrinsicDefinition:
		return w.intrinsic(rv, d, shift, path)
	case *definitions.StructDefinition:
		return eachField(rv, path, func(name string, fv reflect.Value) error {
			field, ok := d.Fields[name]
			if !ok {
				return shapeError(fieldPath(path, name), "unknown field")
			}
			if field == nil {
				return nil
			}
			return w.set(fv, field, shift, fieldPath(path, name))
		})
	case *definitions.ArrayDefinition:
		if !isList(rv) {
			return shapeError(path, "cannot set array from %s", rv.Type())
		}
		count := d.NumElements
		if d.IsRuntimeSized() {
			count = runtimeCount(uint64(len(w.data)), w.position(d, shift), d.Stride)
		}
		if uint64(rv.Len()) > count {
			return shapeError(path, "%d elements into array of %d", rv.Len(), count)
		}
		if d.Element == nil {
			return errUnresolved
		}
		for i := range rv.Len() {
			if err := w.set(rv.Index(i), d.Element, shift+uint64(i)*d.Stride, indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return errUnresolved
}

func (w *valueWriter) intrinsic(rv reflect.Value, d *definitions.IntrinsicDefinition, shift uint64, path string) error {
	in, kind, err := intrinsicKind(d.Type)
	if err != nil {
		return err
	}
	pos := w.position(d, shift)
	elemSize := kind.Size()
	perElement := in.Size / elemSize

	capacity := perElement
	count := uint64(1)
	if d.IsArray() {
		count = d.NumElements
		if d.IsRuntimeSized() {
			count = runtimeCount(uint64(len(w.data)), pos, d.Stride)
		}
		capacity = count * d.Stride / elemSize
	}

	if n, ok := number(rv); ok {
		if capacity != 1 {
			return shapeError(path, "scalar into %d elements", capacity)
		}
		return w.put(kind, pos, n)
	}
	if !isList(rv) {
		return shapeError(path, "cannot set %s from %s", d.Type, rv.Type())
	}

	if d.IsArray() && nested(rv) {
		if uint64(rv.Len()) > count {
			return shapeError(path, "%d elements into array of %d", rv.Len(), count)
		}
		for i := range rv.Len() {
			ev := indirect(rv.Index(i))
			if !ev.IsValid() {
				continue
			}
			if err := w.values(ev, kind, pos+uint64(i)*d.Stride, perElement, indexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return w.values(rv, kind, pos, capacity, path)
}

// values writes a flat list of numbers starting at pos.
func (w *valueWriter) values(rv reflect.Value, kind ElementKind, pos, capacity uint64, path string) error {
	if !isList(rv) {
		return shapeError(path, "cannot set %s elements from %s", kind, rv.Type())
	}
	if uint64(rv.Len()) > capacity {
		return shapeError(path, "%d values into %d elements", rv.Len(), capacity)
	}
	for i := range rv.Len() {
		ev := indirect(rv.Index(i))
		if !ev.IsValid() {
			continue
		}
		n, ok := number(ev)
		if !ok {
			return shapeError(indexPath(path, i), "cannot set %s element from %s", kind, ev.Type())
		}
		if err := w.put(kind, pos+uint64(i)*kind.Size(), n); err != nil {
			return err
		}
	}
	return nil
}

func (w *valueWriter) put(kind ElementKind, pos uint64, v float64) error {
	if pos+kind.Size() > uint64(len(w.data)) {
		return fmt.Errorf("%w: %s element at offset %d", ErrBufferTooSmall, kind, pos)
	}
	putElement(w.data, kind, pos, v)
	return nil
}

// eachField calls fn for every present entry of a string-keyed map or every exported
// field of a struct. Nil entries are skipped.
func eachField(rv reflect.Value, path string, fn func(name string, v reflect.Value) error) error {
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return shapeError(path, "map key must be a string, got %s", rv.Type().Key())
		}
		iter := rv.MapRange()
		for iter.Next() {
			if err := fn(iter.Key().String(), iter.Value()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		t := rv.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("wgsl"); ok {
				if tag == "-" {
					continue
				}
				name, _, _ = strings.Cut(tag, ",")
			}
			if err := fn(name, rv.Field(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return shapeError(path, "cannot set struct from %s", rv.Type())
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.IsNil() {
		return reflect.Value{}
	}
	return rv
}

func number(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func isList(rv reflect.Value) bool {
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// nested reports whether the first present element of a list is itself a list.
func nested(rv reflect.Value) bool {
	for i := range rv.Len() {
		if ev := indirect(rv.Index(i)); ev.IsValid() {
			return isList(ev)
		}
	}
	return false
}

func shapeError(path, format string, args ...any) error {
	if path == "" {
		path = "value"
	}
	return fmt.Errorf("%w: %s: %s", ErrShapeMismatch, path, fmt.Sprintf(format, args...))
}

func fieldPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
