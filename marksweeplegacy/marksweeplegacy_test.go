package marksweeplegacy

import (
	"testing"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidalgc/taggc/handle"
	"github.com/tidalgc/taggc/heapobj"
	"github.com/tidalgc/taggc/kinds"
)

// tinyStub is a one-granule, pointer-free object: just the header
// word, nothing else. It exercises the dedicated tiny free-list path
// that kinds.Node and kinds.DoubleArray (both two granules or more)
// never reach.
type tinyStub struct{ Tag uintptr }

const tinyKind heapobj.Kind = 99

func init() {
	heapobj.Register(tinyKind, heapobj.Ops{
		Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(tinyStub{}) },
		VisitFields: func(obj unsafe.Pointer, visit heapobj.VisitFunc, data unsafe.Pointer) {
		},
	})
}

func newTestHeap(t *testing.T, size uintptr) (*Heap, *Mutator) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h, mut, err := InitializeGC(size, Config{Log: log})
	require.NoError(t, err)
	return h, mut
}

func TestAllocateZeroedPayload(t *testing.T) {
	_, mut := newTestHeap(t, 1<<20)
	obj := mut.Allocate(kinds.Node, kinds.NodeSize)
	require.NotNil(t, obj)
	n := (*kinds.NodeObj)(obj)
	assert.Nil(t, n.Next)
}

func TestAllocateDoesNotOverlap(t *testing.T) {
	_, mut := newTestHeap(t, 1<<20)
	a := mut.Allocate(kinds.Node, kinds.NodeSize)
	b := mut.Allocate(kinds.Node, kinds.NodeSize)
	assert.NotEqual(t, a, b)
}

func TestTinyAllocationRoundTrip(t *testing.T) {
	_, mut := newTestHeap(t, 1<<20)
	a := mut.Allocate(tinyKind, unsafe.Sizeof(tinyStub{}))
	b := mut.Allocate(tinyKind, unsafe.Sizeof(tinyStub{}))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, a, b)
}

func TestChurnOfTinyNodesReclaims(t *testing.T) {
	// Allocate 10,000 actually-tiny (one-granule) objects, drop them
	// all, force a collection, then confirm the space is reusable.
	h, mut := newTestHeap(t, 4<<20)
	for i := 0; i < 10000; i++ {
		obj := mut.Allocate(tinyKind, unsafe.Sizeof(tinyStub{}))
		require.NotNil(t, obj)
	}
	before := h.space.count
	collect(h.space, mut)
	assert.Equal(t, before+1, h.space.count)

	for i := 0; i < 9000; i++ {
		obj := mut.Allocate(tinyKind, unsafe.Sizeof(tinyStub{}))
		require.NotNil(t, obj)
	}
}

func TestLinkedListWalkSurvivesCollection(t *testing.T) {
	_, mut := newTestHeap(t, 4<<20)

	var h handle.Handle
	head := mut.Allocate(kinds.Node, kinds.NodeSize)
	mut.PushHandle(&h, head)

	cur := head
	for i := 0; i < 999; i++ {
		next := mut.Allocate(kinds.Node, kinds.NodeSize)
		*kinds.NodeNext(cur) = next
		cur = next
	}

	collect(mut.space, mut)

	count := 0
	seen := map[unsafe.Pointer]bool{}
	for p := mut.roots.Head().V; p != nil; p = *kinds.NodeNext(p) {
		assert.False(t, seen[p], "cycle or duplicate detected")
		seen[p] = true
		count++
	}
	assert.Equal(t, 1000, count)
	mut.PopHandle()
}

func TestPointerFreeDoubleArraySurvivesGC(t *testing.T) {
	_, mut := newTestHeap(t, 8<<20)
	const n = 1024
	size := kinds.DoubleArraySize(n)
	obj := mut.Allocate(kinds.DoubleArray, size)
	kinds.DoubleArraySetLen(obj, n)
	for i := uintptr(0); i < n; i++ {
		*kinds.DoubleArrayAt(obj, i) = float64(i) * 1.5
	}

	var h handle.Handle
	mut.PushHandle(&h, obj)
	for i := 0; i < 5; i++ {
		collect(mut.space, mut)
	}
	for i := uintptr(0); i < n; i++ {
		assert.Equal(t, float64(i)*1.5, *kinds.DoubleArrayAt(obj, i))
	}
	mut.PopHandle()
}

func TestLargeObjectPathAllocatesAndReclaims(t *testing.T) {
	h, mut := newTestHeap(t, 8<<20)
	const n = 4096
	size := kinds.DoubleArraySize(n) // well over the 256-byte large threshold
	obj := mut.Allocate(kinds.DoubleArray, size)
	require.NotNil(t, obj)
	kinds.DoubleArraySetLen(obj, n)

	collect(h.space, mut)
	for sweep(h.space) != 0 {
	}
	// The large object was unreachable, so a same-size allocation
	// afterward must succeed out of the reclaimed space.
	obj2 := mut.Allocate(kinds.DoubleArray, size)
	require.NotNil(t, obj2)
}

func TestMarkBitsClearAfterFullSweep(t *testing.T) {
	// P8 adapted to in-header mark bits: after a collect AND a full
	// sweep pass, no live object's mark bit remains set. We check this
	// indirectly: a second collect-and-sweep cycle over the same live
	// object must not panic or lose it, which would happen if a stale
	// mark bit were misread as "already visited this cycle" on a live
	// object that is actually still reachable.
	_, mut := newTestHeap(t, 1<<20)
	var h handle.Handle
	obj := mut.Allocate(kinds.Node, kinds.NodeSize)
	mut.PushHandle(&h, obj)

	collect(mut.space, mut)
	for sweep(mut.space) != 0 {
	}
	collect(mut.space, mut)
	for sweep(mut.space) != 0 {
	}

	assert.True(t, tagMaybeLive(*tagAt(obj)))
	assert.False(t, tagMarked(*tagAt(obj)))
	mut.PopHandle()
}
