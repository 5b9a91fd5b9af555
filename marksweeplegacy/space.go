package marksweeplegacy

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

// Space is the legacy mark-sweep heap: a single mmap region with no
// external mark-byte table, since every object carries its own kind,
// live, and mark bits in its first word.
type Space struct {
	region *mmap.Region

	heapBase uintptr
	heapSize uintptr
	sweep    uintptr

	tiny  tinyList
	small smallLists
	large freeList

	count uint64

	marker Marker
	log    *logrus.Logger
}

// newSpace reserves a page-aligned region of at least requestedSize
// bytes and seeds it as a single giant free (large) object, eagerly,
// rather than the lazy-sweep approach of the current variant: there
// is no mark-byte table to lay out first, so the whole mapping is
// usable heap from byte zero.
func newSpace(requestedSize uintptr, log *logrus.Logger) (*Space, error) {
	size := mmap.AlignToPage(requestedSize)

	region, err := mmap.Reserve(size)
	if err != nil {
		return nil, errors.Wrap(err, "reserving legacy mark-sweep heap")
	}

	base := uintptr(region.Base())
	s := &Space{
		region:   region,
		heapBase: base,
		heapSize: region.Size,
		sweep:    base + region.Size, // nothing to lazily sweep yet
		log:      log,
	}
	reclaim(&s.tiny, &s.small, &s.large, region.Base(), granule.ToGranules(region.Size))
	return s, nil
}

func (s *Space) heapEnd() uintptr {
	return s.heapBase + s.heapSize
}

// TryMark implements marker.Space: the in-object mark bit is a plain,
// non-atomic test-and-set, valid under the single-mutator-collects
// model this core targets.
func (s *Space) TryMark(obj unsafe.Pointer) bool {
	t := tagAt(obj)
	if tagMarked(*t) {
		return false
	}
	tagSetMarked(t)
	return true
}

// KindOf implements marker.Space.
func (s *Space) KindOf(obj unsafe.Pointer) heapobj.Kind {
	t := *tagAt(obj)
	if !tagMaybeLive(t) {
		panic("marksweeplegacy: malformed object tag during trace")
	}
	return tagLiveAllocKind(t)
}
