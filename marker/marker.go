// Package marker implements the worklist tracing engine shared by the
// two mark-sweep variants. A Marker owns no knowledge of heap layout;
// it only needs a Space to test-and-set mark bits and report an
// object's alloc-kind, and the heapobj registry to dispatch per-kind
// field visitors.
package marker

import (
	"unsafe"

	"github.com/tidalgc/taggc/heapobj"
)

// Space is the minimal surface a collector's heap exposes to the
// marker: the ability to claim an object's mark bit and recover its
// kind for dispatch. Both marksweep.Space and marksweeplegacy.Space
// implement this with different bit encodings (external mark-byte
// table vs. header bits).
type Space interface {
	// TryMark attempts to set obj's mark bit and returns true if this
	// call set it — the winner is responsible for enqueuing and
	// tracing obj. Implementations with a non-atomic test-and-set may
	// return true to more than one parallel worker for the same
	// object, which only causes it to be traced again.
	TryMark(obj unsafe.Pointer) bool
	// KindOf returns the alloc-kind of a live object.
	KindOf(obj unsafe.Pointer) heapobj.Kind
}

// Marker is the interface both the serial and parallel implementations
// satisfy: prepare a cycle, seed it with roots, trace to a fixed
// point, then release any resources held for the cycle.
type Marker interface {
	Prepare()
	EnqueueRoots(objs []unsafe.Pointer)
	Trace()
	Release()
}

// visit is shared by both implementations: load *slot, and if it
// names an object this call wins the mark race on, hand it to push.
func visit(space Space, slot *unsafe.Pointer, push func(unsafe.Pointer)) {
	if slot == nil {
		return
	}
	v := *slot
	if v == nil {
		return
	}
	if space.TryMark(v) {
		push(v)
	}
}

// traceOne dispatches obj to its kind's field visitor, routing every
// discovered pointer field through visitFn.
func traceOne(space Space, obj unsafe.Pointer, visitFn heapobj.VisitFunc) {
	kind := space.KindOf(obj)
	heapobj.Visit(kind, obj, visitFn, nil)
}
