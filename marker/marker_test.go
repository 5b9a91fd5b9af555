package marker

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidalgc/taggc/heapobj"
)

// fakeObj is a tiny two-field linked node used purely to exercise the
// marker against a known reachability graph.
type fakeObj struct {
	marked bool
	next   unsafe.Pointer
	other  unsafe.Pointer
}

const fakeKind heapobj.Kind = 1

func init() {
	heapobj.Register(fakeKind, heapobj.Ops{
		Size: func(obj unsafe.Pointer) uintptr { return unsafe.Sizeof(fakeObj{}) },
		VisitFields: func(obj unsafe.Pointer, visit heapobj.VisitFunc, data unsafe.Pointer) {
			o := (*fakeObj)(obj)
			visit((*unsafe.Pointer)(unsafe.Pointer(&o.next)), data)
			visit((*unsafe.Pointer)(unsafe.Pointer(&o.other)), data)
		},
	})
}

type fakeSpace struct {
	mu     sync.Mutex
	marked map[unsafe.Pointer]bool
}

func newFakeSpace() *fakeSpace {
	return &fakeSpace{marked: map[unsafe.Pointer]bool{}}
}

func (s *fakeSpace) TryMark(obj unsafe.Pointer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marked[obj] {
		return false
	}
	s.marked[obj] = true
	return true
}

func (s *fakeSpace) KindOf(obj unsafe.Pointer) heapobj.Kind {
	return fakeKind
}

func buildChain(n int) []*fakeObj {
	objs := make([]*fakeObj, n)
	for i := range objs {
		objs[i] = &fakeObj{}
	}
	for i := 0; i < n-1; i++ {
		objs[i].next = unsafe.Pointer(objs[i+1])
	}
	return objs
}

func TestSerialTracesReachableSet(t *testing.T) {
	objs := buildChain(100)
	space := newFakeSpace()
	require.True(t, space.TryMark(unsafe.Pointer(objs[0])))

	m := NewSerial(space)
	m.Prepare()
	m.EnqueueRoots([]unsafe.Pointer{unsafe.Pointer(objs[0])})
	m.Trace()
	m.Release()

	space.mu.Lock()
	defer space.mu.Unlock()
	assert.Len(t, space.marked, 100)
}

func TestParallelMatchesSerialReachability(t *testing.T) {
	objs := buildChain(500)
	space := newFakeSpace()
	require.True(t, space.TryMark(unsafe.Pointer(objs[0])))

	m := NewParallel(space, 8)
	m.Prepare()
	m.EnqueueRoots([]unsafe.Pointer{unsafe.Pointer(objs[0])})
	m.Trace()
	m.Release()

	space.mu.Lock()
	defer space.mu.Unlock()
	assert.Len(t, space.marked, 500)
}

func TestParallelTerminatesWithSingleWorker(t *testing.T) {
	objs := buildChain(10)
	space := newFakeSpace()
	space.TryMark(unsafe.Pointer(objs[0]))

	m := NewParallel(space, 1)
	m.Prepare()
	m.EnqueueRoots([]unsafe.Pointer{unsafe.Pointer(objs[0])})
	m.Trace()

	space.mu.Lock()
	defer space.mu.Unlock()
	assert.Len(t, space.marked, 10)
}
