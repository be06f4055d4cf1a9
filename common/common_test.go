package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundUp(t *testing.T) {
	tests := []struct {
		alignment, value, want uint64
	}{
		{16, 0, 0},
		{16, 1, 16},
		{16, 16, 16},
		{16, 17, 32},
		{4, 13, 16},
		{0, 13, 13},
		{12, 13, 24},
		{20, 40, 40},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundUp(tt.alignment, tt.value), "RoundUp(%d, %d)", tt.alignment, tt.value)
	}
	assert.Equal(t, uint32(8), RoundUp[uint32](8, 5))
}

func TestIdentity(t *testing.T) {
	m := make([]float32, 16)
	for i := range m {
		m[i] = 9
	}
	Identity(m)
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, m)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0x40}, SliceToBytes([]float32{1, 2}))
	assert.Len(t, SliceToBytes([]uint16{1, 2, 3}), 6)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "json", Coalesce("", "json", "yaml"))
	assert.Equal(t, 3, Coalesce(0, 0, 3))
	assert.Equal(t, "", Coalesce[string]())
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 3, "a": 1, "b": 2}))
	assert.Empty(t, SortedKeys(map[int]bool{}))
}
