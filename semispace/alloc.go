package semispace

import (
	"unsafe"

	"github.com/tidalgc/taggc/heapobj"
)

// zeroOnAlloc records, per kind, whether Allocate clears an object's
// payload immediately after bumping the pointer. The default is true:
// every field reads as zero until written. A kind whose caller always
// overwrites the whole payload right after allocating (e.g. an array
// kind sized but not yet filled in) can opt out via SetZeroOnAlloc,
// since the clear would be pure waste.
var zeroOnAlloc [256]bool
var zeroOnAllocSet [256]bool

// SetZeroOnAlloc opts a kind out of (or back into) the default
// zero-on-allocate behavior.
func SetZeroOnAlloc(k heapobj.Kind, zero bool) {
	zeroOnAlloc[k] = zero
	zeroOnAllocSet[k] = true
}

func shouldZero(k heapobj.Kind) bool {
	if zeroOnAllocSet[k] {
		return zeroOnAlloc[k]
	}
	return true
}

const headerWordSize = unsafe.Sizeof(uintptr(0))

// Allocate bumps the pointer and writes obj's header word, collecting
// and retrying exactly once if the active half doesn't have room.
func (mut *Mutator) Allocate(kind heapobj.Kind, size uintptr) unsafe.Pointer {
	s := mut.space
	for {
		addr := s.hp
		newHp := alignUp(addr + size)
		if s.limit < newHp {
			collect(s, mut, size)
			continue
		}
		s.hp = newHp
		ret := unsafe.Pointer(addr)
		*headerWordAt(ret) = uintptr(kind)
		if shouldZero(kind) {
			clearMemory(unsafe.Add(ret, headerWordSize), size-headerWordSize)
		}
		return ret
	}
}

// AllocatePointerless has identical behavior to Allocate in this core.
func (mut *Mutator) AllocatePointerless(kind heapobj.Kind, size uintptr) unsafe.Pointer {
	return mut.Allocate(kind, size)
}

func clearMemory(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}
