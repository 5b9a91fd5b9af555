package marksweeplegacy

import (
	"unsafe"

	"github.com/tidalgc/taggc/granule"
	"github.com/tidalgc/taggc/heapobj"
)

// reclaimBudgetGranules bounds how much of the heap a single sweep
// call processes before returning. Unlike the mark-byte variant's
// fixed scan window, a long run of adjacent free objects here is
// always coalesced into one cell regardless of the budget: the budget
// throttles how often sweep stops to let the allocator retry, not how
// big a single reclaimed run can be.
const reclaimBudgetGranules = 128

// sweep scans forward from the cursor, merging every run of
// consecutive free (or now-unmarked) objects into a single cell and
// clearing the mark bit of everything still live. Unlike the current
// variant, there is only ever one context's free-lists to reclaim
// into: no per-mutator locality here, just a single shared context.
//
// It returns 0 if the cursor was already at the end of the heap when
// called (nothing left to sweep), 1 otherwise, including a call that
// reclaimed the heap's final run.
func sweep(s *Space) int {
	toReclaim := int64(reclaimBudgetGranules)
	cursor := s.sweep
	limit := s.heapEnd()
	if cursor >= limit {
		return 0
	}

	for toReclaim > 0 && cursor < limit {
		obj := unsafe.Pointer(cursor)
		t := *tagAt(obj)
		objGranules := objectGranules(t, obj)
		cursor += objGranules * granule.Size

		if tagMaybeLive(t) && tagMarked(t) {
			tagClearMarked(tagAt(obj))
			continue
		}

		toReclaim -= int64(objGranules)
		for cursor < limit {
			next := unsafe.Pointer(cursor)
			nt := *tagAt(next)
			if tagMaybeLive(nt) && tagMarked(nt) {
				break
			}
			nextGranules := objectGranules(nt, next)
			cursor += nextGranules * granule.Size
			toReclaim -= int64(nextGranules)
			objGranules += nextGranules
		}
		clearMemory(unsafe.Add(obj, granule.Size), (objGranules-1)*granule.Size)
		reclaim(&s.tiny, &s.small, &s.large, obj, objGranules)
	}

	s.sweep = cursor
	return 1
}

// objectGranules returns how many granules the object at p occupies,
// whether it's currently live or free.
func objectGranules(t tag, p unsafe.Pointer) uintptr {
	if tagKindIsTiny(t) {
		return 1
	}
	if tagMaybeLive(t) {
		return liveObjectGranules(t, p)
	}
	return tagFreeGranules(t)
}

// liveObjectGranules computes the granule footprint of a live,
// non-tiny object, snapped up to its owning small class (or left
// as-is if it's a large object).
func liveObjectGranules(t tag, obj unsafe.Pointer) uintptr {
	kind := tagLiveAllocKind(t)
	size := heapobj.SizeOf(kind, obj)
	g := granule.ToGranules(size)
	if g > granule.LargeObjectThreshold {
		return g
	}
	return uintptr(granule.ClassSize(granule.ToSizeClass(g)))
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
