package common

import (
	"unsafe"
)

// Unsigned is the set of unsigned integer types accepted by RoundUp.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// RoundUp rounds value up to the next multiple of alignment. Alignments of zero
// leave value unchanged. Non power-of-two alignments, as produced by an explicit
// @stride, are handled with a division.
//
// Parameters:
//   - alignment: the required alignment
//   - value: the value to align
//
// Returns:
//   - T: value rounded up to the next multiple of alignment
func RoundUp[T Unsigned](alignment, value T) T {
	if alignment == 0 {
		return value
	}
	if alignment&(alignment-1) == 0 {
		return (value + alignment - 1) &^ (alignment - 1)
	}
	return (value + alignment - 1) / alignment * alignment
}

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}
