//go:build wasip1

package parsersdk

import (
	"sync"
	"unsafe"

	"github.com/reglet-dev/parserkit/wireformat"
)

// allocations pins buffers handed to the host until it calls Deallocate; the
// map entry keeps the GC from collecting them.
var (
	allocMu     sync.Mutex
	allocations = make(map[uint32][]byte)
)

// Allocate reserves size bytes of linear memory for the host and returns the
// pointer. Backs the allocate export.
func Allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	allocMu.Lock()
	allocations[ptr] = buf
	allocMu.Unlock()
	return ptr
}

// Deallocate releases a buffer obtained from Allocate. Backs the deallocate export.
func Deallocate(ptr uint32, _ uint32) {
	allocMu.Lock()
	delete(allocations, ptr)
	allocMu.Unlock()
}

// ReadInput copies length bytes at ptr out of host-written memory. The copy is
// what the plugin works on; the host frees the original after the call.
func ReadInput(ptr, length uint32) []byte {
	if ptr == 0 || length == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	out := make([]byte, length)
	copy(out, src)
	return out
}

// WriteResult copies data into a pinned buffer and returns it packed as ptr<<32|len.
// The host copies the bytes out and calls Deallocate.
func WriteResult(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	ptr := Allocate(uint32(len(data))) //nolint:gosec // G115: wasm32 lengths fit in uint32
	allocMu.Lock()
	copy(allocations[ptr], data)
	allocMu.Unlock()
	return wireformat.PackPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: wasm32 lengths fit in uint32
}
