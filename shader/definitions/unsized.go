package definitions

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-wgsl/common"
	"github.com/Carmen-Shannon/oxy-wgsl/shader/reflection"
)

// ErrNoUnsizedArray is returned when a definition contains no runtime-sized array.
var ErrNoUnsizedArray = errors.New("definition has no runtime-sized array")

// SizeAndAlign is the stride and alignment of one runtime-sized array element.
type SizeAndAlign struct {
	Size  uint64 `json:"size" yaml:"size"`
	Align uint64 `json:"align" yaml:"align"`
}

// GetSizeAndAlignmentOfUnsizedArrayElement returns the element stride and alignment
// of the runtime-sized array in def, which is either def itself or the last member
// of a struct, searched recursively. Callers use it to size a buffer for N elements
// as fixedSize + N*Size.
//
// Parameters:
//   - def: a variable or field definition
//
// Returns:
//   - SizeAndAlign: the element stride and alignment
//   - error: ErrNoUnsizedArray if def holds no runtime-sized array
func GetSizeAndAlignmentOfUnsizedArrayElement(def Definition) (SizeAndAlign, error) {
	root := def.Root()
	if root == nil {
		return SizeAndAlign{}, ErrNoUnsizedArray
	}
	arr, ok := unsizedArray(root)
	if !ok {
		return SizeAndAlign{}, ErrNoUnsizedArray
	}
	return sizeAndAlignOf(arr)
}

func unsizedArray(fd FieldDefinition) (FieldDefinition, bool) {
	switch d := fd.(type) {
	case *IntrinsicDefinition:
		return d, d.IsRuntimeSized()
	case *ArrayDefinition:
		return d, d.IsRuntimeSized()
	case *StructDefinition:
		for _, name := range common.SortedKeys(d.Fields) {
			field := d.Fields[name]
			if field == nil {
				continue
			}
			if arr, ok := unsizedArray(field); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

func sizeAndAlignOf(arr FieldDefinition) (SizeAndAlign, error) {
	switch d := arr.(type) {
	case *IntrinsicDefinition:
		in, ok := reflection.LookupIntrinsic(d.Type)
		if !ok {
			return SizeAndAlign{}, fmt.Errorf("unknown element type %q", d.Type)
		}
		return SizeAndAlign{Size: d.Stride, Align: in.Align}, nil
	case *ArrayDefinition:
		return SizeAndAlign{Size: d.Stride, Align: d.Align}, nil
	}
	return SizeAndAlign{}, ErrNoUnsizedArray
}
