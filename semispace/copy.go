package semispace

import (
	"unsafe"

	"github.com/tidalgc/taggc/heapobj"
)

// alignment is the bump-pointer allocation granularity.
const alignment = 8

func alignUp(n uintptr) uintptr {
	return (n + alignment - 1) &^ (alignment - 1)
}

// flip swaps the active half. The collection count is incremented
// once per real collection in collect, not folded into flip itself,
// which is clearer with an unsigned counter and has the same
// externally visible value.
func flip(s *Space) {
	split := s.base + s.size/2
	if s.hp <= split {
		s.hp = split
		s.limit = s.base + s.size
	} else {
		s.hp = s.base
		s.limit = split
	}
}

// headerKind reports whether a header word names a registered kind
// rather than a forwarding address. Real heap addresses never collide
// with a small registered kind value: the heap lives well above the
// 0-255 range a single byte of kind ever occupies, so the header word
// can double as either without ambiguity.
func headerKind(word uintptr) (heapobj.Kind, bool) {
	if word < 256 && heapobj.IsRegistered(heapobj.Kind(word)) {
		return heapobj.Kind(word), true
	}
	return 0, false
}

func headerWordAt(obj unsafe.Pointer) *uintptr {
	return (*uintptr)(obj)
}

// copyObject evacuates obj into the active half, leaving a forwarding
// address behind in obj's former header word.
func copyObject(s *Space, kind heapobj.Kind, obj unsafe.Pointer) unsafe.Pointer {
	size := heapobj.SizeOf(kind, obj)
	newObj := unsafe.Pointer(s.hp)
	copyBytes(newObj, obj, size)
	*headerWordAt(obj) = uintptr(s.hp)
	s.hp += alignUp(size)
	return newObj
}

// forward returns obj's new address, copying it first if this is the
// first time it's been reached this cycle.
func forward(s *Space, obj unsafe.Pointer) unsafe.Pointer {
	word := *headerWordAt(obj)
	if kind, ok := headerKind(word); ok {
		return copyObject(s, kind, obj)
	}
	return unsafe.Pointer(word)
}

// process forwards the object at *loc and writes its new address back,
// in place, so every reference to a moved object gets updated.
func process(s *Space, loc *unsafe.Pointer) {
	obj := *loc
	if obj != nil {
		*loc = forward(s, obj)
	}
}

// scan advances the grey frontier by one object: visiting its fields
// (forwarding and rewriting each one) and returning the address of the
// next object in to-space.
func scan(s *Space, grey uintptr) uintptr {
	obj := unsafe.Pointer(grey)
	kind, ok := headerKind(*headerWordAt(obj))
	if !ok {
		panic("semispace: malformed object header during scan")
	}
	heapobj.Visit(kind, obj, func(slot *unsafe.Pointer, data unsafe.Pointer) {
		process(s, slot)
	}, nil)
	return grey + alignUp(heapobj.SizeOf(kind, obj))
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

// collect runs one full Cheney collection: flip halves, evacuate every
// handle-rooted object, then scan to-space breadth-first until the
// grey frontier catches up with the allocation pointer. It aborts if
// the survivors don't leave room for the allocation that triggered
// it.
func collect(s *Space, mut *Mutator, bytes uintptr) {
	flip(s)
	s.count++
	grey := s.hp
	for h := mut.roots.Head(); h != nil; h = h.Next {
		process(s, &h.V)
	}
	for grey < s.hp {
		grey = scan(s, grey)
	}
	if s.remaining() < bytes {
		s.log.Fatalf("ran out of space, heap size %d", s.size)
	}
}
