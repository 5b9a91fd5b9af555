package marksweep

import (
	"unsafe"

	"github.com/tidalgc/taggc/granule"
	"github.com/tidalgc/taggc/heapobj"
)

// Allocate returns a zero-payload, tagged-live object of at least size
// bytes. It never returns nil: heap exhaustion after a full
// sweep-and-collect is fatal.
func (mut *Mutator) Allocate(kind heapobj.Kind, size uintptr) unsafe.Pointer {
	g := granule.ToGranules(size)
	if granule.IsLarge(g) {
		return allocateLarge(mut, kind, g)
	}
	return allocateSmall(mut, kind, granule.ToSizeClass(g))
}

// AllocatePointerless has identical behavior to Allocate in this core:
// the interface is kept distinct so a future pointer-free sub-heap has
// somewhere to live without breaking callers.
func (mut *Mutator) AllocatePointerless(kind heapobj.Kind, size uintptr) unsafe.Pointer {
	return mut.Allocate(kind, size)
}

func allocateSmall(mut *Mutator, kind heapobj.Kind, class int) unsafe.Pointer {
	cell, ok := mut.local[class].pop()
	if !ok {
		fillSmall(mut, class)
		cell, ok = mut.local[class].pop()
		if !ok {
			panic("marksweep: fillSmall postcondition violated")
		}
	}
	writeTagLive(cell, kind)
	return cell
}

// fillSmall implements the small slow path: split down from a larger
// local class first, then fall back to the global
// lists/sweeper/collector.
func fillSmall(mut *Mutator, class int) {
	for c := class + 1; c < granule.NumSizeClasses; c++ {
		if cell, ok := mut.local[c].pop(); ok {
			mut.local.pushSmallFrom(cell, uintptr(granule.ClassSize(c)), class)
			return
		}
	}
	fillSmallFromGlobal(mut, class)
}

func fillSmallFromGlobal(mut *Mutator, class int) {
	didCollect := false
	for {
		if refillFromGlobalLists(mut, class) {
			return
		}
		if refillFromLargeObjects(mut, class) {
			return
		}
		if sweep(mut.space, &mut.local, granule.LargeObjectThreshold) == 0 {
			if !didCollect {
				didCollect = true
				collect(mut.space, mut)
			} else {
				abortOOM(mut.space)
			}
		}
		// sweep reclaims into the mutator's local lists, so look there
		// (splitting a larger local cell if needed) before going back to
		// the global ones.
		if !mut.local[class].empty() {
			return
		}
		for c := class + 1; c < granule.NumSizeClasses; c++ {
			if cell, ok := mut.local[c].pop(); ok {
				mut.local.pushSmallFrom(cell, uintptr(granule.ClassSize(c)), class)
				return
			}
		}
		// Retry from the top: either sweep freed something usable, or
		// a collection just ran and the heap is fully unswept again.
	}
}

// refillFromGlobalLists transfers the entire global list for class to
// the local one, either directly or by splitting a larger global cell
// first (the same rule fillSmall uses locally, applied globally).
func refillFromGlobalLists(mut *Mutator, class int) bool {
	if !mut.space.small[class].empty() {
		mut.local[class].takeAll(&mut.space.small[class])
		return true
	}
	for c := class + 1; c < granule.NumSizeClasses; c++ {
		if cell, ok := mut.space.small[c].pop(); ok {
			mut.space.small.pushSmallFrom(cell, uintptr(granule.ClassSize(c)), class)
			mut.local[class].takeAll(&mut.space.small[class])
			return true
		}
	}
	return false
}

// refillFromLargeObjects detaches one large cell, splits exactly 32
// granules off it, and feeds those into the local list at class.
func refillFromLargeObjects(mut *Mutator, class int) bool {
	cell, g, ok := mut.space.large.popHead()
	if !ok {
		return false
	}
	setCellGranules(cell, 0)
	const take = granule.LargeObjectThreshold
	mut.local.pushSmallFrom(cell, take, class)
	if g > take {
		rest := unsafe.Add(cell, int(take*granule.Size))
		reclaim(&mut.space.small, &mut.space.large, rest, g-take)
	}
	return true
}

// allocateLarge implements the large-object slow path: a two-phase
// first-fit scan of the large list, interleaved with sweep calls,
// sharing the same one-retry collect-or-abort shape as the small
// path.
func allocateLarge(mut *Mutator, kind heapobj.Kind, g uintptr) unsafe.Pointer {
	didCollect := false
	var alreadyScanned unsafe.Pointer

	for {
		if cell, ok := scanLargeList(mut.space, g, alreadyScanned); ok {
			writeTagLive(cell, kind)
			return cell
		}
		alreadyScanned = mut.space.large.head

		if sweep(mut.space, &mut.local, g) == 1 {
			continue
		}
		if !didCollect {
			didCollect = true
			collect(mut.space, mut)
			alreadyScanned = nil
			continue
		}
		abortOOM(mut.space)
	}
}

// scanLargeList walks the large free-list from the head up to (but
// not including) stop, returning the first cell with enough granules,
// split so only the needed prefix is handed out.
func scanLargeList(s *Space, need uintptr, stop unsafe.Pointer) (unsafe.Pointer, bool) {
	var prev unsafe.Pointer
	for cell := s.large.head; cell != nil && cell != stop; cell = cellNext(cell) {
		granules := cellGranules(cell)
		if granules >= need {
			s.large.unlink(prev, cell)
			setCellGranules(cell, 0)
			if granules > need {
				rest := unsafe.Add(cell, int(need*granule.Size))
				reclaim(&s.small, &s.large, rest, granules-need)
			}
			return cell, true
		}
		prev = cell
	}
	return nil, false
}

func abortOOM(s *Space) {
	s.log.Fatalf("ran out of space, heap size %d", s.heapSize)
}
