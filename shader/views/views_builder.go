package views

import "github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"

// ViewBuilderOption configures how typed array views are built.
type ViewBuilderOption func(*viewOptions)

type viewOptions struct {
	buffer *ArrayBuffer
	offset uint64

	// expand holds the per-type choice between one flat typed array over a whole
	// intrinsic array and one typed array per element. Types not listed flatten.
	expand map[string]bool
}

func newViewOptions(opts []ViewBuilderOption) *viewOptions {
	o := &viewOptions{expand: make(map[string]bool)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *viewOptions) expanded(typeName string) bool {
	return o.expand[canonicalType(typeName)]
}

func canonicalType(name string) string {
	if in, ok := reflection.LookupIntrinsic(name); ok {
		return in.Name
	}
	return name
}

// WithBuffer builds the views over an existing buffer instead of allocating one.
//
// Parameters:
//   - buf: the buffer to view
//
// Returns:
//   - ViewBuilderOption: a function that applies the buffer option
func WithBuffer(buf *ArrayBuffer) ViewBuilderOption {
	return func(o *viewOptions) {
		o.buffer = buf
	}
}

// WithOffset places the definition's first byte at offset within the buffer.
//
// Parameters:
//   - offset: the byte offset of the value in the buffer
//
// Returns:
//   - ViewBuilderOption: a function that applies the offset option
func WithOffset(offset uint64) ViewBuilderOption {
	return func(o *viewOptions) {
		o.offset = offset
	}
}

// WithFlattenedTypes views arrays of the given intrinsic types as a single typed
// array covering every element, padding included. This is the default.
//
// Parameters:
//   - types: intrinsic type names in either spelling, such as "vec3f" or "vec3<f32>"
//
// Returns:
//   - ViewBuilderOption: a function that applies the flatten option
func WithFlattenedTypes(types ...string) ViewBuilderOption {
	return func(o *viewOptions) {
		for _, t := range types {
			o.expand[canonicalType(t)] = false
		}
	}
}

// WithExpandedTypes views arrays of the given intrinsic types as one typed array per
// element. A later WithFlattenedTypes for the same type overrides it.
//
// Parameters:
//   - types: intrinsic type names in either spelling
//
// Returns:
//   - ViewBuilderOption: a function that applies the expand option
func WithExpandedTypes(types ...string) ViewBuilderOption {
	return func(o *viewOptions) {
		for _, t := range types {
			o.expand[canonicalType(t)] = true
		}
	}
}
