package marksweep

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tidalgc/taggc/granule"
	"github.com/tidalgc/taggc/heapobj"
	"github.com/tidalgc/taggc/internal/mmap"
	"github.com/tidalgc/taggc/marker"
)

// Marker is the tracer interface this space drives through a
// collection cycle; either marker.Serial or marker.Parallel.
type Marker = marker.Marker

// Space is the mark-sweep heap: a single mmap region split into a
// mark-byte table (one byte per granule of usable heap) followed by
// the object-bearing heap itself.
type Space struct {
	region *mmap.Region

	markBytes []byte
	heapBase  uintptr // absolute address of the first heap byte
	heapSize  uintptr
	sweep     uintptr // cursor, absolute address in [heapBase, heapBase+heapSize]

	small smallLists // global size-class free-lists
	large largeList

	mutatorRoots *rootNode // chain of per-mutator mark buffers collected this cycle
	count        uint64

	marker Marker
	log    *logrus.Logger
}

// rootNode chains a mutator's mark buffer onto the space for the
// duration of one collection cycle.
type rootNode struct {
	objects []unsafe.Pointer
	next    *rootNode
}

// newSpace reserves a region of at least heapSize usable bytes plus
// its mark-byte table, and lays both out so that the mark-byte table
// occupies ceil(mem_size/(GRANULE_SIZE+1)) bytes at the base of the
// mapping, with heapBase the next granule-aligned address after that.
func newSpace(requestedHeapSize uintptr, log *logrus.Logger) (*Space, error) {
	// Solve for a total mapping size whose mark-byte prefix plus
	// granule-aligned remainder yields at least requestedHeapSize
	// usable bytes. One mark byte covers one heap granule, so the
	// ratio of mark bytes to total bytes is 1:(GRANULE_SIZE+1).
	memSize := requestedHeapSize + requestedHeapSize/granule.Size + granule.Size
	memSize = mmap.AlignToPage(memSize)

	region, err := mmap.Reserve(memSize)
	if err != nil {
		return nil, errors.Wrap(err, "reserving mark-sweep heap")
	}

	markBytesSize := (region.Size + granule.Size) / (granule.Size + 1)
	heapBaseOff := granule.AlignUp(markBytesSize, granule.Size)
	heapSize := region.Size - heapBaseOff

	base := uintptr(region.Base())
	s := &Space{
		region:    region,
		markBytes: region.Mem[:markBytesSize],
		heapBase:  base + heapBaseOff,
		heapSize:  heapSize,
		sweep:     base + heapBaseOff,
		log:       log,
	}
	return s, nil
}

func (s *Space) heapEnd() uintptr {
	return s.heapBase + s.heapSize
}

func (s *Space) markByteIndex(addr uintptr) uintptr {
	return (addr - s.heapBase) / granule.Size
}

// TryMark implements marker.Space: it claims obj's mark byte with a
// plain, non-atomic test-and-set. Under the serial marker it returns
// true exactly once per object per cycle; under the parallel marker
// two workers can both see true for the same object, which only means
// it is traced twice, since re-visiting its fields finds them already
// marked.
func (s *Space) TryMark(obj unsafe.Pointer) bool {
	idx := s.markByteIndex(uintptr(obj))
	p := &s.markBytes[idx]
	if *p != 0 {
		return false
	}
	*p = 1
	return true
}

// KindOf implements marker.Space.
func (s *Space) KindOf(obj unsafe.Pointer) heapobj.Kind {
	t := *tagAt(obj)
	kind, ok := t.liveAllocKind()
	if !ok {
		panic("marksweep: malformed object tag during trace")
	}
	return kind
}
