// Package marksweeplegacy is the earlier mark-sweep variant: object
// headers carry kind, live, and mark bits packed into a single tag
// word instead of an external mark-byte table, and a single-granule
// "tiny" object gets a dedicated free-list whose cells alias their own
// tag word as a next pointer.
package marksweeplegacy

import (
	"unsafe"

	"github.com/tidalgc/taggc/heapobj"
)

// tag is the object header word. Bit 0 distinguishes a tiny (one
// granule) object from everything else; bit 1 marks the cell as
// potentially live (set by allocate, cleared only by becoming a free
// cell again); bit 2 is the mark bit, meaningful only while bit 1 is
// set. Live objects carry their alloc-kind in bits 3-10; free
// (non-tiny) objects store their granule count in bits 2 and up
// instead, with bit 1 clear.
type tag uintptr

const (
	kindTinyBit   tag = 0
	kindObjBit    tag = 1 << 0
	liveBit       tag = 1 << 1
	markBit       tag = 1 << 2
	allocKindMask tag = 0xff
	allocKindShift     = 3
	freeGranulesShift  = 2
)

func tagKindIsTiny(t tag) bool { return t&kindObjBit == 0 }

func tagMaybeLive(t tag) bool { return t&liveBit != 0 }

func tagMarked(t tag) bool { return t&markBit != 0 }

func tagSetMarked(p *tag) { *p |= markBit }

func tagClearMarked(p *tag) { *p &^= markBit }

func tagLiveAllocKind(t tag) heapobj.Kind {
	return heapobj.Kind((t >> allocKindShift) & allocKindMask)
}

// tagFreeGranules reads a free (non-tiny) cell's granule count back
// out of its tag.
func tagFreeGranules(t tag) uintptr {
	return uintptr(t >> freeGranulesShift)
}

// tagFree builds the tag for a free cell of the given granule count.
// kindObjBit must be set for every non-tiny free cell; tiny free cells
// never call this, since their only state is "on the tiny list" (bit 0
// clear, nothing else meaningful).
func tagFree(granules uintptr) tag {
	return kindObjBit | tag(granules<<freeGranulesShift)
}

// tagLive builds the tag for a freshly allocated, unmarked object.
func tagLive(tiny bool, kind heapobj.Kind) tag {
	t := liveBit | tag(kind)<<allocKindShift
	if !tiny {
		t |= kindObjBit
	}
	return t
}

func tagAt(obj unsafe.Pointer) *tag {
	return (*tag)(obj)
}

func writeTagLive(obj unsafe.Pointer, tiny bool, kind heapobj.Kind) {
	*tagAt(obj) = tagLive(tiny, kind)
}
