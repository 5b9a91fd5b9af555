package marksweep

import (
	"unsafe"

	"github.com/tidalgc/taggc/granule"
	"github.com/tidalgc/taggc/heapobj"
)

// reclaimBudgetGranules bounds how much of the heap a single sweep
// call will reclaim before returning control to the allocator: large
// enough to usually satisfy a request, small enough that one
// allocation can't be starved behind an arbitrarily long sweep.
const reclaimBudgetGranules = 128

// sweep scans forward from the cursor, reclaiming unmarked runs into
// local (the caller's local size-class lists) and the space's global
// large-object list, and clearing mark bytes of everything it passes.
// It returns 0 if the cursor reached the end of the heap (the caller
// must now collect or abort), 1 if heap remains unswept.
//
// forGranules caps the length of any single free run this call will
// harvest — the caller knows how big a request it is trying to
// satisfy and doesn't want a short request to swallow a run so large
// it starves a later big one.
func sweep(s *Space, local *smallLists, forGranules uintptr) int {
	toReclaim := int64(reclaimBudgetGranules)

	for toReclaim > 0 && s.sweep < s.heapEnd() {
		limitGranules := (s.heapEnd() - s.sweep) / granule.Size
		scanLimit := limitGranules
		if forGranules < scanLimit {
			scanLimit = forGranules
		}

		idx := s.markByteIndex(s.sweep)
		freeGranules := nextMark(s.markBytes, idx, scanLimit)

		if freeGranules > 0 {
			freeBytes := freeGranules * granule.Size
			region := unsafe.Pointer(s.sweep)
			clearMemory(region, freeBytes)
			reclaim(local, &s.large, region, freeGranules)
			s.sweep += freeBytes
			toReclaim -= int64(freeGranules)
			if freeGranules >= scanLimit {
				break
			}
			continue
		}

		// The granule at the cursor holds a marked, live object:
		// clear its mark and advance past it.
		obj := unsafe.Pointer(s.sweep)
		kind, ok := tagAt(obj).liveAllocKind()
		if !ok {
			panic("marksweep: malformed object tag during sweep")
		}
		g := liveObjectGranules(kind, obj)
		s.markBytes[idx] = 0
		s.sweep += g * granule.Size
	}

	if s.sweep >= s.heapEnd() {
		return 0
	}
	return 1
}

// liveObjectGranules computes how many granules a live object
// occupies, snapping small objects up to their owning size class so
// the sweeper's stride matches what the allocator handed out.
func liveObjectGranules(kind heapobj.Kind, obj unsafe.Pointer) uintptr {
	size := heapobj.SizeOf(kind, obj)
	g := granule.ToGranules(size)
	if !granule.IsLarge(g) {
		g = uintptr(granule.ClassSize(granule.ToSizeClass(g)))
	}
	return g
}

// nextMark returns the length, in granules, of the run of zero mark
// bytes starting at markBytes[idx], capped at limit. A straightforward
// byte-at-a-time scan; a chunked/aligned inner loop would be a
// throughput optimization with no effect on the returned value.
func nextMark(markBytes []byte, idx, limit uintptr) uintptr {
	var n uintptr
	for n < limit && markBytes[idx+n] == 0 {
		n++
	}
	return n
}

// clearMemory zeroes n bytes starting at p.
func clearMemory(p unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}
