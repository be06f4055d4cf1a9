package reflection

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-wgsl/common"
)

// Intrinsic describes a built-in scalar, vector, matrix or atomic type and its host
// memory layout.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
type Intrinsic struct {
	// Name is the canonical spelling: the short form for vectors and matrices
	// ("vec3f", "mat4x4h"), the template form for atomics ("atomic<u32>").
	Name   string
	Scalar string
	Size   uint64
	Align  uint64

	// Columns is the matrix column count and Rows the vector width. Scalars have
	// one of each.
	Columns int
	Rows    int
	Atomic  bool
}

// ScalarSize returns the byte size of one component.
func (i Intrinsic) ScalarSize() uint64 {
	if i.Scalar == "f16" {
		return 2
	}
	return 4
}

// IsMatrix reports whether the type is a matCxR.
func (i Intrinsic) IsMatrix() bool {
	return i.Columns > 1
}

// IsVector reports whether the type is a vecN.
func (i Intrinsic) IsVector() bool {
	return i.Columns == 1 && i.Rows > 1
}

// scalarSuffixes maps component types to the suffix used by the short vector and
// matrix names. bool has no short form.
var scalarSuffixes = map[string]string{
	"f32": "f",
	"f16": "h",
	"i32": "i",
	"u32": "u",
}

// legacyScalars are the pre-release scalar spellings still accepted by older shaders.
var legacyScalars = map[string]string{
	"int32":   "i32",
	"uint32":  "u32",
	"float32": "f32",
	"float16": "f16",
}

// intrinsics is keyed by every accepted spelling of every intrinsic type. It is
// built once at package load and never modified.
var intrinsics = buildIntrinsics()

func buildIntrinsics() map[string]Intrinsic {
	table := make(map[string]Intrinsic, 160)
	add := func(info Intrinsic, spellings ...string) {
		for _, s := range spellings {
			table[s] = info
		}
	}

	scalars := []struct {
		name string
		size uint64
	}{
		{"f32", 4},
		{"i32", 4},
		{"u32", 4},
		{"f16", 2},
		{"bool", 4},
	}

	for _, s := range scalars {
		add(Intrinsic{Name: s.name, Scalar: s.name, Size: s.size, Align: s.size, Columns: 1, Rows: 1}, s.name)

		suffix, short := scalarSuffixes[s.name]
		for n := 2; n <= 4; n++ {
			vec := vectorLayout(s.name, s.size, n)
			spellings := []string{fmt.Sprintf("vec%d<%s>", n, s.name)}
			if short {
				vec.Name = fmt.Sprintf("vec%d%s", n, suffix)
				spellings = append(spellings, vec.Name)
			}
			add(vec, spellings...)
		}

		if s.name != "f32" && s.name != "f16" {
			continue
		}
		for c := 2; c <= 4; c++ {
			for r := 2; r <= 4; r++ {
				col := vectorLayout(s.name, s.size, r)
				mat := Intrinsic{
					Name:    fmt.Sprintf("mat%dx%d%s", c, r, suffix),
					Scalar:  s.name,
					Size:    uint64(c) * common.RoundUp(col.Align, col.Size),
					Align:   col.Align,
					Columns: c,
					Rows:    r,
				}
				add(mat, mat.Name, fmt.Sprintf("mat%dx%d<%s>", c, r, s.name))
			}
		}
	}

	for _, s := range []string{"i32", "u32"} {
		name := "atomic<" + s + ">"
		add(Intrinsic{Name: name, Scalar: s, Size: 4, Align: 4, Columns: 1, Rows: 1, Atomic: true}, name)
	}

	for legacy, canonical := range legacyScalars {
		table[legacy] = table[canonical]
	}
	return table
}

// vectorLayout returns the layout of vecN<scalar>. vec3 is aligned like vec4.
func vectorLayout(scalar string, scalarSize uint64, n int) Intrinsic {
	info := Intrinsic{
		Name:    fmt.Sprintf("vec%d<%s>", n, scalar),
		Scalar:  scalar,
		Size:    uint64(n) * scalarSize,
		Align:   uint64(n) * scalarSize,
		Columns: 1,
		Rows:    n,
	}
	if n == 3 {
		info.Align = 4 * scalarSize
	}
	return info
}

// LookupIntrinsic returns the intrinsic type with the given spelling. Template
// ("vec3<f32>"), short ("vec3f") and legacy scalar ("float32") spellings of the
// same type return the same entry.
//
// Parameters:
//   - name: the type name as written in WGSL
//
// Returns:
//   - Intrinsic: the intrinsic type layout
//   - bool: false if name is not a built-in host-shareable type
func LookupIntrinsic(name string) (Intrinsic, bool) {
	info, ok := intrinsics[name]
	return info, ok
}
