package marksweeplegacy

import (
	"unsafe"

	"github.com/tidalgc/taggc/granule"
)

// legacySmallClasses excludes the one-granule class: that size is
// handled by the dedicated tiny free-list instead, whose cells are a
// single word.
const legacySmallClasses = granule.NumSizeClasses - 1

// smallGranules returns the granule count of small-list index idx,
// where idx 0 is the smallest non-tiny class (two granules).
func smallGranules(idx int) uintptr {
	return uintptr(granule.ClassSize(idx + 1))
}

// Non-tiny free cells share one layout regardless of which list they
// sit on: a tag word encoding "free, N granules" followed by a next
// pointer. Tiny cells are a single word whose bit pattern the tag
// encoding never produces for a live object, so the word doubles as
// the next link.

func cellTag(cell unsafe.Pointer) *tag {
	return (*tag)(cell)
}

func cellNext(cell unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Add(cell, 8))
}

func setCellNext(cell, next unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Add(cell, 8)) = next
}

func cellGranules(cell unsafe.Pointer) uintptr {
	return tagFreeGranules(*cellTag(cell))
}

// freeList is a singly-linked free-list whose cells carry their own
// granule count in their tag word; used for every small class and for
// the large-object list alike.
type freeList struct {
	head unsafe.Pointer
}

func (l *freeList) empty() bool { return l.head == nil }

func (l *freeList) push(cell unsafe.Pointer, granules uintptr) {
	*cellTag(cell) = tagFree(granules)
	setCellNext(cell, l.head)
	l.head = cell
}

func (l *freeList) pop() (unsafe.Pointer, uintptr, bool) {
	if l.head == nil {
		return nil, 0, false
	}
	cell := l.head
	g := cellGranules(cell)
	l.head = cellNext(cell)
	return cell, g, true
}

func (l *freeList) takeAll(other *freeList) {
	if other.head == nil {
		return
	}
	if l.head == nil {
		l.head = other.head
	} else {
		tail := l.head
		for cellNext(tail) != nil {
			tail = cellNext(tail)
		}
		setCellNext(tail, other.head)
	}
	other.head = nil
}

// unlink removes cell from the list given its predecessor (nil if
// cell is the head); callers already have prev from their own scan,
// so this avoids a second walk to find it.
func (l *freeList) unlink(prev, cell unsafe.Pointer) {
	if prev == nil {
		l.head = cellNext(cell)
	} else {
		setCellNext(prev, cellNext(cell))
	}
}

// tinyList holds one-granule free cells, linked through the raw first
// word of the cell itself: a tiny free cell's tag and next pointer
// are the same word.
type tinyList struct {
	head unsafe.Pointer
}

func (l *tinyList) push(cell unsafe.Pointer) {
	*(*unsafe.Pointer)(cell) = l.head
	l.head = cell
}

func (l *tinyList) pop() (unsafe.Pointer, bool) {
	if l.head == nil {
		return nil, false
	}
	cell := l.head
	l.head = *(*unsafe.Pointer)(cell)
	return cell, true
}

// smallLists holds one free-list per non-tiny small-object class.
type smallLists [legacySmallClasses]freeList

// pushSmall peels whole-class cells out of a contiguous region,
// starting at the largest class and working down, falling back to the
// tiny list for a final one-granule remainder.
func (ls *smallLists) pushSmall(tiny *tinyList, region unsafe.Pointer, totalGranules uintptr) {
	ls.pushSmallFrom(tiny, region, totalGranules, legacySmallClasses-1)
}

// pushSmallFrom is pushSmall but starting the peel at a specific
// class, so a split aimed at refilling one particular class is
// guaranteed to feed it first.
func (ls *smallLists) pushSmallFrom(tiny *tinyList, region unsafe.Pointer, totalGranules uintptr, startIdx int) {
	remaining := totalGranules
	for idx := startIdx; ; idx-- {
		sz := smallGranules(idx)
		for remaining >= sz {
			ls[idx].push(region, sz)
			region = unsafe.Add(region, int(sz*granule.Size))
			remaining -= sz
		}
		if remaining == 1 {
			tiny.push(region)
			return
		}
		if remaining == 0 || idx == 0 {
			return
		}
	}
}

// reclaim dispatches a freed region to the tiny, small, or large store
// based on its granule count.
func reclaim(tiny *tinyList, small *smallLists, large *freeList, region unsafe.Pointer, g uintptr) {
	switch {
	case g == 1:
		tiny.push(region)
	case g <= granule.LargeObjectThreshold:
		small.pushSmall(tiny, region, g)
	default:
		large.push(region, g)
	}
}

// splitLargeObject reclaims the tail of a large cell beyond the
// granules actually needed, if any.
func splitLargeObject(tiny *tinyList, small *smallLists, large *freeList, cell unsafe.Pointer, haveGranules, needGranules uintptr) {
	if haveGranules == needGranules {
		return
	}
	tail := unsafe.Add(cell, int(needGranules*granule.Size))
	reclaim(tiny, small, large, tail, haveGranules-needGranules)
}
