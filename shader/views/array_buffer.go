package views

import (
	"runtime"
	"sync"
	"weak"
)

// ArrayBuffer is a fixed-length byte buffer that typed arrays view. Its identity keys
// the typed array cache, so views built twice over the same buffer share leaves.
type ArrayBuffer struct {
	data []byte
}

// NewArrayBuffer allocates a zeroed buffer of the given length.
func NewArrayBuffer(size uint64) *ArrayBuffer {
	return &ArrayBuffer{data: make([]byte, size)}
}

// ArrayBufferFrom wraps b without copying. Writes through views are visible in b.
func ArrayBufferFrom(b []byte) *ArrayBuffer {
	return &ArrayBuffer{data: b}
}

// Bytes returns the buffer's backing bytes.
func (b *ArrayBuffer) Bytes() []byte {
	return b.data
}

// ByteLength returns the buffer length in bytes.
func (b *ArrayBuffer) ByteLength() uint64 {
	return uint64(len(b.data))
}

type viewKey struct {
	kind   ElementKind
	offset uint64
	length int
}

// typedArrayCache hands out one *TypedArray per buffer, element kind, offset and
// length. Entries hold only the buffer's bytes, never the *ArrayBuffer, and are
// dropped once the buffer is collected.
type typedArrayCache struct {
	mu      sync.Mutex
	buffers map[weak.Pointer[ArrayBuffer]]map[viewKey]*TypedArray
}

var defaultCache = &typedArrayCache{
	buffers: make(map[weak.Pointer[ArrayBuffer]]map[viewKey]*TypedArray),
}

func (c *typedArrayCache) get(buf *ArrayBuffer, kind ElementKind, offset uint64, length int) *TypedArray {
	wp := weak.Make(buf)
	key := viewKey{kind: kind, offset: offset, length: length}

	c.mu.Lock()
	defer c.mu.Unlock()

	views, ok := c.buffers[wp]
	if !ok {
		views = make(map[viewKey]*TypedArray)
		c.buffers[wp] = views
		runtime.AddCleanup(buf, c.remove, wp)
	}
	if a, ok := views[key]; ok {
		return a
	}
	a := &TypedArray{data: buf.data, kind: kind, byteOffset: offset, length: length}
	views[key] = a
	return a
}

func (c *typedArrayCache) remove(wp weak.Pointer[ArrayBuffer]) {
	c.mu.Lock()
	delete(c.buffers, wp)
	c.mu.Unlock()
}

func (c *typedArrayCache) contains(wp weak.Pointer[ArrayBuffer]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.buffers[wp]
	return ok
}
