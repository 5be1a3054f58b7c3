package vm

// Pointers are plain 64-bit virtual addresses into one of three regions:
// the shared data segment (spec.md §5: "the data segment and string pool
// are read-write globals shared by all VMs"), a malloc'd heap region, or a
// particular VM's own stack (only ever meaningful for a `ref` taken and
// dereferenced by code running in that same VM — Temp operands, the
// compiler's own scratch space, never participate in `ref`/`drf` since no
// source-level lvalue resolves to a Temp class).
const (
	StackRegionBase uint64 = 1 << 40
	HeapRegionBase  uint64 = 1 << 48
)

// resolveAddr maps a virtual address to a live byte slice starting at that
// address, or ok=false if the address is null or otherwise unmapped.
func (m *Machine) resolveAddr(addr uint64) ([]byte, bool) {
	if addr == 0 {
		return nil, false
	}
	if addr < uint64(len(m.data)) {
		return m.data[addr:], true
	}
	if addr >= HeapRegionBase {
		return m.heap.slice(addr - HeapRegionBase)
	}
	if addr >= StackRegionBase {
		rel := addr - StackRegionBase
		id := int(rel / StackSize)
		off := int(rel % StackSize)
		if id < 0 || id >= len(m.quaints) || m.quaints[id] == nil {
			return nil, false
		}
		return m.quaints[id].stack[off:], true
	}
	return nil, false
}

// heapAllocator is a minimal first-fit free-list allocator over a single
// growable byte arena, backing the malloc/calloc/realloc/free built-ins.
// Address space within the arena starts at 0 and is offset by
// HeapRegionBase when exposed to user code as a vptr.
type heapAllocator struct {
	arena []byte
	// free is the list of currently-unused (offset, size) blocks.
	free []heapBlock
	// live maps an allocation's starting offset to its size, so free/realloc
	// know how much to release or copy without a header word embedded in
	// the arena itself.
	live map[uint64]int
}

type heapBlock struct {
	off  uint64
	size int
}

func newHeapAllocator() *heapAllocator {
	return &heapAllocator{live: map[uint64]int{}}
}

func (h *heapAllocator) slice(off uint64) ([]byte, bool) {
	if off >= uint64(len(h.arena)) {
		return nil, false
	}
	return h.arena[off:], true
}

// alloc reserves size bytes (zero-initialized only by the caller, per the
// malloc/calloc distinction at the built-in dispatch layer) and returns the
// user-visible vptr.
func (h *heapAllocator) alloc(size int) uint64 {
	if size <= 0 {
		size = 1
	}
	for i, b := range h.free {
		if b.size >= size {
			h.free = append(h.free[:i], h.free[i+1:]...)
			h.live[b.off] = size
			if b.size > size {
				h.free = append(h.free, heapBlock{off: b.off + uint64(size), size: b.size - size})
			}
			return b.off + HeapRegionBase
		}
	}
	off := uint64(len(h.arena))
	h.arena = append(h.arena, make([]byte, size)...)
	h.live[off] = size
	return off + HeapRegionBase
}

func (h *heapAllocator) free_(addr uint64) {
	if addr < HeapRegionBase {
		return
	}
	off := addr - HeapRegionBase
	size, ok := h.live[off]
	if !ok {
		return
	}
	delete(h.live, off)
	h.free = append(h.free, heapBlock{off: off, size: size})
}

func (h *heapAllocator) realloc(addr uint64, newSize int) uint64 {
	if addr == 0 {
		return h.alloc(newSize)
	}
	off := addr - HeapRegionBase
	oldSize, ok := h.live[off]
	if !ok {
		return h.alloc(newSize)
	}
	if newSize <= oldSize {
		return addr
	}
	newAddr := h.alloc(newSize)
	newOff := newAddr - HeapRegionBase
	copy(h.arena[newOff:newOff+uint64(oldSize)], h.arena[off:off+uint64(oldSize)])
	h.free_(addr)
	return newAddr
}
