package marksweep

import (
	"unsafe"

	"github.com/tidalgc/taggc/heapobj"
)

// tag is the object header word. In the mark-byte design it holds
// only the alloc-kind in its low byte; zero means the cell is free.
// The mark bit lives in the external mark-byte table, not here.
type tag uintptr

func tagLive(kind heapobj.Kind) tag {
	return tag(kind)
}

// liveAllocKind returns the kind of a live object's tag, and false if
// the cell is free (tag == 0).
func (t tag) liveAllocKind() (heapobj.Kind, bool) {
	if t == 0 {
		return 0, false
	}
	return heapobj.Kind(t), true
}

func tagAt(obj unsafe.Pointer) *tag {
	return (*tag)(obj)
}

func writeTagLive(obj unsafe.Pointer, kind heapobj.Kind) {
	*tagAt(obj) = tagLive(kind)
}
