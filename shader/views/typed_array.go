package views

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ElementKind is the scalar element type of a typed array.
type ElementKind int

const (
	Float32 ElementKind = iota
	Int32
	Uint32
	Float16
)

var elementKindNames = [...]string{"float32", "int32", "uint32", "float16"}

func (k ElementKind) String() string {
	if int(k) < len(elementKindNames) {
		return elementKindNames[k]
	}
	return fmt.Sprintf("ElementKind(%d)", int(k))
}

// Size returns the byte size of one element.
func (k ElementKind) Size() uint64 {
	if k == Float16 {
		return 2
	}
	return 4
}

// kindOf maps a WGSL scalar type to its element kind. bool is stored as u32.
func kindOf(scalar string) (ElementKind, bool) {
	switch scalar {
	case "f32":
		return Float32, true
	case "i32":
		return Int32, true
	case "u32", "bool":
		return Uint32, true
	case "f16":
		return Float16, true
	}
	return 0, false
}

// TypedArray is a live, little-endian view of length elements of one kind starting
// at byteOffset. Reads and writes go straight to the underlying buffer.
type TypedArray struct {
	data       []byte
	kind       ElementKind
	byteOffset uint64
	length     int
}

func (*TypedArray) view() {}

// Kind returns the element kind.
func (a *TypedArray) Kind() ElementKind { return a.kind }

// Len returns the number of elements.
func (a *TypedArray) Len() int { return a.length }

// ByteOffset returns the offset of the first element in the buffer.
func (a *TypedArray) ByteOffset() uint64 { return a.byteOffset }

// ByteLength returns the number of bytes the view covers.
func (a *TypedArray) ByteLength() uint64 { return uint64(a.length) * a.kind.Size() }

// Bytes returns the bytes the view covers. The slice aliases the buffer.
func (a *TypedArray) Bytes() []byte {
	return a.data[a.byteOffset : a.byteOffset+a.ByteLength()]
}

// At returns element i. It panics if i is out of range.
func (a *TypedArray) At(i int) float64 {
	return getElement(a.data, a.kind, a.elementOffset(i))
}

// Set stores v in element i. It panics if i is out of range.
func (a *TypedArray) Set(i int, v float64) {
	putElement(a.data, a.kind, a.elementOffset(i), v)
}

// SetValues stores vals starting at element 0.
//
// Parameters:
//   - vals: the values to store, at most Len of them
//
// Returns:
//   - error: ErrShapeMismatch if vals is longer than the view
func (a *TypedArray) SetValues(vals ...float64) error {
	if len(vals) > a.length {
		return fmt.Errorf("%w: %d values into %d elements", ErrShapeMismatch, len(vals), a.length)
	}
	for i, v := range vals {
		a.Set(i, v)
	}
	return nil
}

// Values returns a copy of the elements.
func (a *TypedArray) Values() []float64 {
	out := make([]float64, a.length)
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

// Float32s returns a copy of the elements converted to float32.
func (a *TypedArray) Float32s() []float32 {
	out := make([]float32, a.length)
	for i := range out {
		out[i] = float32(a.At(i))
	}
	return out
}

// Subarray returns a view of elements [start, end) sharing the same bytes.
func (a *TypedArray) Subarray(start, end int) *TypedArray {
	if start < 0 || end > a.length || start > end {
		panic(fmt.Sprintf("views: subarray [%d:%d] out of range for length %d", start, end, a.length))
	}
	return &TypedArray{
		data:       a.data,
		kind:       a.kind,
		byteOffset: a.byteOffset + uint64(start)*a.kind.Size(),
		length:     end - start,
	}
}

func (a *TypedArray) elementOffset(i int) uint64 {
	if i < 0 || i >= a.length {
		panic(fmt.Sprintf("views: index %d out of range for length %d", i, a.length))
	}
	return a.byteOffset + uint64(i)*a.kind.Size()
}

func getElement(data []byte, kind ElementKind, off uint64) float64 {
	switch kind {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(data[off:])))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(data[off:]))
	case Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(data[off:])).Float32())
	}
	return 0
}

func putElement(data []byte, kind ElementKind, off uint64, v float64) {
	switch kind {
	case Float32:
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(float32(v)))
	case Int32:
		binary.LittleEndian.PutUint32(data[off:], uint32(int32(int64(v))))
	case Uint32:
		// Wrap through int64 so negative values keep their two's complement bits.
		binary.LittleEndian.PutUint32(data[off:], uint32(int64(v)))
	case Float16:
		binary.LittleEndian.PutUint16(data[off:], float16.Fromfloat32(float32(v)).Bits())
	}
}
