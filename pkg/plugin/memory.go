package plugin

import (
	"fmt"
)

// Memory is a bounds-checked view of a module's linear memory.
// The method set matches wazero's api.Memory, so guest memory can be passed in directly.
type Memory interface {
	// Size returns the size of the memory in bytes.
	Size() uint32
	// Read returns a view of byteCount bytes at offset, or false if the range is out of bounds.
	// Writes to the returned slice are visible in the memory.
	Read(offset, byteCount uint32) ([]byte, bool)
}

var _ Memory = SliceMemory(nil)

// SliceMemory is a Memory backed by a plain byte slice.
type SliceMemory []byte

func (m SliceMemory) Size() uint32 {
	return uint32(len(m))
}

func (m SliceMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m)) {
		return nil, false
	}
	return m[offset:end:end], true
}

// View resolves a pointer and length pair into a slice of mem.
// A zero length always yields an empty view, regardless of ptr.
func View(mem Memory, ptr, length uint32) ([]byte, error) {
	if mem == nil {
		return nil, ErrNilMemory
	}
	if length == 0 {
		return []byte{}, nil
	}
	buf, ok := mem.Read(ptr, length)
	if !ok || uint32(len(buf)) != length {
		return nil, fmt.Errorf("%w: ptr %d len %d exceeds memory size %d", ErrOutOfBounds, ptr, length, mem.Size())
	}
	return buf, nil
}
