package semispace

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

func newTestHeap(t *testing.T, halfSize uintptr) (*Heap, *Mutator) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h, mut, err := InitializeGC(halfSize, Config{Log: log})
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

func TestNoCollectionsBeforeFirstCollect(t *testing.T) {
	h, _ := newTestHeap(t, 1<<20)
	assert.Equal(t, uint64(0), h.space.count)
}

func TestLinkedListSurvivesCollectionAndMoves(t *testing.T) {
	// A copying collector relocates every surviving object, so the
	// handle's own value must change too.
	_, mut := newTestHeap(t, 4<<20)

	var root handle.Handle
	head := mut.Allocate(kinds.Node, kinds.NodeSize)
	mut.PushHandle(&root, head)

	cur := head
	for i := 0; i < 999; i++ {
		next := mut.Allocate(kinds.Node, kinds.NodeSize)
		*kinds.NodeNext(cur) = next
		cur = next
	}

	before := head
	collect(mut.space, mut, 0)
	assert.NotEqual(t, before, mut.roots.Head().V, "surviving root should have moved")

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

	var root handle.Handle
	mut.PushHandle(&root, obj)
	for i := 0; i < 5; i++ {
		collect(mut.space, mut, 0)
	}
	obj = mut.roots.Head().V
	for i := uintptr(0); i < n; i++ {
		assert.Equal(t, float64(i)*1.5, *kinds.DoubleArrayAt(obj, i))
	}
	mut.PopHandle()
}

func TestUnreachableObjectsAreNotCopied(t *testing.T) {
	// Churn objects with no root keeping them alive; each collection
	// should make the space usable again rather than exhausting it.
	h, mut := newTestHeap(t, 1<<20)
	for i := 0; i < 2000; i++ {
		obj := mut.Allocate(kinds.Node, kinds.NodeSize)
		require.NotNil(t, obj)
	}
	before := h.space.count
	collect(h.space, mut, 0)
	assert.Equal(t, before+1, h.space.count)
	assert.Equal(t, h.space.size/2, h.space.remaining(), "no unrooted object should have been copied")
}

func TestZeroOnAllocDefaultTrue(t *testing.T) {
	_, mut := newTestHeap(t, 1<<20)
	obj := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(4))
	for i := uintptr(0); i < 4; i++ {
		assert.Equal(t, float64(0), *kinds.DoubleArrayAt(obj, i))
	}
}

func TestZeroOnAllocOptOut(t *testing.T) {
	// The original only clears NODE payloads on allocation, since every
	// DOUBLE_ARRAY caller immediately overwrites the whole array. An
	// opted-out kind's freshly bumped memory is whatever the half
	// previously held, so this only checks that Allocate doesn't panic
	// and the header word still reads back correctly.
	const rawKind heapobj.Kind = 77
	heapobj.Register(rawKind, heapobj.Ops{
		Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(uintptr(0)) * 2 },
		VisitFields: func(obj unsafe.Pointer, visit heapobj.VisitFunc, data unsafe.Pointer) {
		},
	})
	SetZeroOnAlloc(rawKind, false)
	defer SetZeroOnAlloc(rawKind, true)

	_, mut := newTestHeap(t, 1<<20)
	obj := mut.Allocate(rawKind, unsafe.Sizeof(uintptr(0))*2)
	require.NotNil(t, obj)
}
