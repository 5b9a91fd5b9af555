package marksweep

import (
	"unsafe"

	"github.com/tidalgc/taggc/granule"
)

// Free cells are intrusive: a small cell's first word is its `next`
// link, a large cell's first two words are {next, granules}. The
// payload beyond those header words is always zero while a cell sits
// on a free-list — the allocator relies on this to hand out
// pre-cleared memory.

func cellNext(cell unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(cell)
}

func setCellNext(cell, next unsafe.Pointer) {
	*(*unsafe.Pointer)(cell) = next
}

func cellGranules(cell unsafe.Pointer) uintptr {
	return *(*uintptr)(unsafe.Add(cell, 8))
}

func setCellGranules(cell unsafe.Pointer, g uintptr) {
	*(*uintptr)(unsafe.Add(cell, 8)) = g
}

// smallList is a singly-linked free-list for one size class.
type smallList struct {
	head unsafe.Pointer
}

func (l *smallList) empty() bool { return l.head == nil }

func (l *smallList) push(cell unsafe.Pointer) {
	setCellNext(cell, l.head)
	l.head = cell
}

func (l *smallList) pop() (unsafe.Pointer, bool) {
	if l.head == nil {
		return nil, false
	}
	cell := l.head
	l.head = cellNext(cell)
	return cell, true
}

// takeAll moves other's entire contents onto l, leaving other empty.
func (l *smallList) takeAll(other *smallList) {
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

// smallLists holds one free-list per small-object size class.
type smallLists [granule.NumSizeClasses]smallList

// pushSmall is the fragmentation-avoidance primitive: it peels whole
// size-class cells from a contiguous region, largest class
// first, stepping down for the remainder. It terminates because the
// smallest class is exactly one granule, which always fits whatever
// remains.
func (ls *smallLists) pushSmall(region unsafe.Pointer, totalGranules uintptr) {
	ls.pushSmallFrom(region, totalGranules, granule.NumSizeClasses-1)
}

// pushSmallFrom is pushSmall but starting the peel at startClass
// rather than the largest class. Splitting a larger cell to refill a
// specific requested class starts here instead of at the top, so the
// requested class is guaranteed to receive at least one cell before
// any remainder spills into smaller classes.
func (ls *smallLists) pushSmallFrom(region unsafe.Pointer, totalGranules uintptr, startClass int) {
	remaining := totalGranules
	for class := startClass; class >= 0 && remaining > 0; class-- {
		sz := uintptr(granule.ClassSize(class))
		for remaining >= sz {
			ls[class].push(region)
			region = unsafe.Add(region, int(sz*granule.Size))
			remaining -= sz
		}
	}
}

// largeList is the unordered free-list of large (>32 granule) cells.
// It is scanned first-fit from the head; cells are never sorted by
// size, so a request can walk past several small cells before finding
// one large enough.
type largeList struct {
	head unsafe.Pointer
}

func (l *largeList) push(cell unsafe.Pointer, granules uintptr) {
	setCellGranules(cell, granules)
	setCellNext(cell, l.head)
	l.head = cell
}

func (l *largeList) empty() bool { return l.head == nil }

// popHead detaches and returns the list's current head, or false if
// empty. Used by refillFromLargeObjects to carve small cells out of a
// large one.
func (l *largeList) popHead() (unsafe.Pointer, uintptr, bool) {
	if l.head == nil {
		return nil, 0, false
	}
	cell := l.head
	g := cellGranules(cell)
	l.head = cellNext(cell)
	return cell, g, true
}

// unlink removes cell from the list; cell must currently be in it.
func (l *largeList) unlink(prev, cell unsafe.Pointer) {
	if prev == nil {
		l.head = cellNext(cell)
	} else {
		setCellNext(prev, cellNext(cell))
	}
}

// reclaim dispatches a freed region to the small or large store based
// on its granule count.
func reclaim(small *smallLists, large *largeList, region unsafe.Pointer, g uintptr) {
	if granule.IsLarge(g) {
		large.push(region, g)
	} else {
		small.pushSmall(region, g)
	}
}
