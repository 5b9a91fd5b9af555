package marksweeplegacy

import (
	"unsafe"

	"github.com/tidalgc/taggc/granule"
	"github.com/tidalgc/taggc/heapobj"
)

// Allocate returns a zero-payload, tagged-live object of at least size
// bytes, routing one-granule requests to the dedicated tiny path.
func (mut *Mutator) Allocate(kind heapobj.Kind, size uintptr) unsafe.Pointer {
	g := granule.ToGranules(size)
	switch {
	case g <= 1:
		return allocateTiny(mut, kind)
	case !granule.IsLarge(g):
		return allocateSmall(mut, kind, granule.ToSizeClass(g)-1)
	default:
		return allocateLarge(mut, kind, g)
	}
}

// AllocatePointerless has identical behavior to Allocate in this core.
func (mut *Mutator) AllocatePointerless(kind heapobj.Kind, size uintptr) unsafe.Pointer {
	return mut.Allocate(kind, size)
}

func allocateTiny(mut *Mutator, kind heapobj.Kind) unsafe.Pointer {
	s := mut.space
	if s.tiny.head == nil {
		fillTiny(mut)
	}
	cell, _ := s.tiny.pop()
	writeTagLive(cell, true, kind)
	return cell
}

// fillTiny splits one smallest-class (two-granule) cell into two
// one-granule tiny cells.
func fillTiny(mut *Mutator) {
	s := mut.space
	if s.small[0].empty() {
		fillSmall(mut, 0)
	}
	cell, _, _ := s.small[0].pop()
	second := unsafe.Add(cell, int(granule.Size))
	s.tiny.push(cell)
	s.tiny.push(second)
}

func allocateSmall(mut *Mutator, kind heapobj.Kind, idx int) unsafe.Pointer {
	s := mut.space
	if s.small[idx].empty() {
		fillSmall(mut, idx)
	}
	cell, _, _ := s.small[idx].pop()
	setCellNext(cell, nil)
	writeTagLive(cell, false, kind)
	return cell
}

// fillSmall implements the small slow path: split down from a larger
// class first, then a large object, then fall back to the
// sweeper/collector, retrying from the top each time.
func fillSmall(mut *Mutator, idx int) {
	s := mut.space
	sweptFromBeginning := false
	for {
		for c := idx; c < legacySmallClasses; c++ {
			if !s.small[c].empty() {
				if c != idx {
					cell, g, _ := s.small[c].pop()
					s.small.pushSmallFrom(&s.tiny, cell, g, idx)
				}
				return
			}
		}

		if cell, g, ok := s.large.pop(); ok {
			const take = granule.LargeObjectThreshold
			splitLargeObject(&s.tiny, &s.small, &s.large, cell, g, take)
			s.small.pushSmallFrom(&s.tiny, cell, take, idx)
			return
		}

		if sweep(s) == 0 {
			if sweptFromBeginning {
				abortOOM(s)
			}
			collect(s, mut)
			sweptFromBeginning = true
		}
	}
}

// allocateLarge implements the large-object slow path: a two-phase
// first-fit scan of the large list, interleaved with sweep calls,
// sharing the same one-retry collect-or-abort shape as the small
// path.
func allocateLarge(mut *Mutator, kind heapobj.Kind, g uintptr) unsafe.Pointer {
	s := mut.space
	didCollect := false
	var alreadyScanned unsafe.Pointer

	for {
		if cell, ok := scanLargeList(s, g, alreadyScanned); ok {
			writeTagLive(cell, false, kind)
			return cell
		}
		alreadyScanned = s.large.head

		if sweep(s) == 1 {
			continue
		}
		if !didCollect {
			didCollect = true
			collect(s, mut)
			alreadyScanned = nil
			continue
		}
		abortOOM(s)
	}
}

func scanLargeList(s *Space, need uintptr, stop unsafe.Pointer) (unsafe.Pointer, bool) {
	var prev unsafe.Pointer
	for cell := s.large.head; cell != nil && cell != stop; cell = cellNext(cell) {
		granules := cellGranules(cell)
		if granules >= need {
			s.large.unlink(prev, cell)
			setCellNext(cell, nil)
			splitLargeObject(&s.tiny, &s.small, &s.large, cell, granules, need)
			return cell, true
		}
		prev = cell
	}
	return nil, false
}

func abortOOM(s *Space) {
	s.log.Fatalf("ran out of space, heap size %d", s.heapSize)
}
