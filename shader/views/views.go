// Package views builds typed views over byte buffers from data definitions and
// writes nested Go values through them.
package views

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/definitions"
	"github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"
)

var (
	// ErrUnknownType is returned when a definition names a type with no typed array
	// representation.
	ErrUnknownType = errors.New("unknown type")

	// ErrBufferTooSmall is returned when a view would extend past the end of its buffer.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrShapeMismatch is returned when a value's shape does not match the view or
	// definition it is written through.
	ErrShapeMismatch = errors.New("shape mismatch")

	errUnresolved = errors.New("definition has an unresolved type")
)

// View is one node of a view tree: a *TypedArray leaf, StructViews or ArrayViews.
type View interface {
	view()
}

// StructViews holds one view per resolved struct field.
type StructViews map[string]View

// ArrayViews holds one view per array element.
type ArrayViews []View

func (StructViews) view() {}
func (ArrayViews) view()  {}

// TypedArrayViews is a view tree together with the buffer it views.
type TypedArrayViews struct {
	Views  View
	Buffer *ArrayBuffer
}

// MakeTypedArrayViews builds a view tree over a buffer for a definition. Without
// WithBuffer a zeroed buffer of the definition's size is allocated. Runtime-sized
// arrays get as many elements as fit between their start and the end of the buffer.
//
// Parameters:
//   - def: the variable or field definition to view
//   - opts: view builder options
//
// Returns:
//   - *TypedArrayViews: the views and their buffer
//   - error: ErrUnknownType or ErrBufferTooSmall
func MakeTypedArrayViews(def definitions.Definition, opts ...ViewBuilderOption) (*TypedArrayViews, error) {
	root := def.Root()
	if root == nil {
		return nil, errUnresolved
	}

	o := newViewOptions(opts)
	buf := o.buffer
	if buf == nil {
		buf = NewArrayBuffer(o.offset + root.ByteSize())
	}
	if o.offset+root.ByteSize() > buf.ByteLength() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, root.ByteSize(), o.offset, buf.ByteLength())
	}

	b := &viewBuilder{opts: o, buf: buf, rootOffset: root.ByteOffset()}
	v, err := b.build(root, 0)
	if err != nil {
		return nil, err
	}
	return &TypedArrayViews{Views: v, Buffer: buf}, nil
}

type viewBuilder struct {
	opts       *viewOptions
	buf        *ArrayBuffer
	rootOffset uint64
}

// position maps a definition offset, shifted by shift bytes, to a buffer offset.
func (b *viewBuilder) position(fd definitions.FieldDefinition, shift uint64) uint64 {
	return b.opts.offset + fd.ByteOffset() - b.rootOffset + shift
}

func (b *viewBuilder) build(fd definitions.FieldDefinition, shift uint64) (View, error) {
	switch d := fd.(type) {
	case *definitions.IntrinsicDefinition:
		return b.intrinsic(d, shift)
	case *definitions.StructDefinition:
		views := make(StructViews, len(d.Fields))
		for name, field := range d.Fields {
			if field == nil {
				continue
			}
			v, err := b.build(field, shift)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", d.Name, name, err)
			}
			views[name] = v
		}
		return views, nil
	case *definitions.ArrayDefinition:
		if d.Element == nil {
			return nil, errUnresolved
		}
		count := d.NumElements
		if d.IsRuntimeSized() {
			count = runtimeCount(b.buf.ByteLength(), b.position(d, shift), d.Stride)
		}
		views := make(ArrayViews, count)
		for i := range count {
			v, err := b.build(d.Element, shift+i*d.Stride)
			if err != nil {
				return nil, err
			}
			views[i] = v
		}
		return views, nil
	}
	return nil, errUnresolved
}

func (b *viewBuilder) intrinsic(d *definitions.IntrinsicDefinition, shift uint64) (View, error) {
	in, kind, err := intrinsicKind(d.Type)
	if err != nil {
		return nil, err
	}
	pos := b.position(d, shift)
	perElement := int(in.Size / kind.Size())

	if !d.IsArray() {
		return b.typedArray(kind, pos, perElement)
	}

	count := d.NumElements
	if d.IsRuntimeSized() {
		count = runtimeCount(b.buf.ByteLength(), pos, d.Stride)
	}
	if !b.opts.expanded(in.Name) {
		return b.typedArray(kind, pos, int(count*d.Stride/kind.Size()))
	}

	views := make(ArrayViews, count)
	for i := range count {
		a, err := b.typedArray(kind, pos+i*d.Stride, perElement)
		if err != nil {
			return nil, err
		}
		views[i] = a
	}
	return views, nil
}

func (b *viewBuilder) typedArray(kind ElementKind, offset uint64, length int) (*TypedArray, error) {
	if offset+uint64(length)*kind.Size() > b.buf.ByteLength() {
		return nil, fmt.Errorf("%w: %d %s elements at offset %d", ErrBufferTooSmall, length, kind, offset)
	}
	return defaultCache.get(b.buf, kind, offset, length), nil
}

func intrinsicKind(typeName string) (reflection.Intrinsic, ElementKind, error) {
	in, ok := reflection.LookupIntrinsic(typeName)
	if !ok {
		return reflection.Intrinsic{}, 0, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	kind, ok := kindOf(in.Scalar)
	if !ok {
		return reflection.Intrinsic{}, 0, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return in, kind, nil
}

func runtimeCount(length, start, stride uint64) uint64 {
	if stride == 0 || start >= length {
		return 0
	}
	return (length - start) / stride
}

// StructuredView is a view tree whose values can be set from nested Go values.
type StructuredView struct {
	*TypedArrayViews
}

// MakeStructuredView builds a view tree like MakeTypedArrayViews and wraps it for
// setting.
//
// Parameters:
//   - def: the variable or field definition to view
//   - opts: view builder options
//
// Returns:
//   - *StructuredView: the settable views
//   - error: ErrUnknownType or ErrBufferTooSmall
func MakeStructuredView(def definitions.Definition, opts ...ViewBuilderOption) (*StructuredView, error) {
	v, err := MakeTypedArrayViews(def, opts...)
	if err != nil {
		return nil, err
	}
	return &StructuredView{TypedArrayViews: v}, nil
}

// Set writes data through the views. See SetStructuredView.
func (v *StructuredView) Set(data any) error {
	return SetStructuredView(data, v.Views)
}
