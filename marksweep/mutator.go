package marksweep

import (
	"os"
	"unsafe"

	"github.com/tidalgc/taggc/handle"
	"github.com/tidalgc/taggc/markbuf"
)

// Mutator owns a local copy of the small-object free-lists, a
// back-pointer to its heap, its handle chain, and a mark buffer. Local
// free-lists avoid taking the (conceptual) global lock on every small
// allocation; only refills touch the space's global state.
type Mutator struct {
	space *Space

	local smallLists

	markBuf *markbuf.Buffer
	roots   handle.Chain
}

func newMutator(space *Space) (*Mutator, error) {
	buf, err := markbuf.New()
	if err != nil {
		return nil, err
	}
	return &Mutator{space: space, markBuf: buf}, nil
}

// PushHandle roots v on scope entry. Callers must Pop in LIFO order.
func (m *Mutator) PushHandle(h *handle.Handle, v unsafe.Pointer) {
	m.roots.Push(h, v)
}

// PopHandle unroots the most recently pushed handle.
func (m *Mutator) PopHandle() {
	m.roots.Pop()
}

// InitializeForThread would root a new mutator under parent, but this
// collector has no support for concurrent mutators: it prints a
// diagnostic and exits rather than returning a Go error, since the
// contract here is a process-level refusal, not a recoverable failure
// a caller could route around.
func InitializeForThread(parent *Mutator) *Mutator {
	parent.space.log.Error("Multiple mutator threads not yet implemented.")
	os.Exit(1)
	return nil
}

// FinishForThread detaches mut, releasing its mark buffer's pages.
func FinishForThread(mut *Mutator) error {
	return mut.markBuf.Destroy()
}

// markMutatorRoots walks mut's handle chain, marking every live
// reference and buffering the ones this mutator's call wins the mark
// race on.
func markMutatorRoots(mut *Mutator) {
	mut.markBuf.Reset()
	mut.roots.Walk(func(v unsafe.Pointer) {
		if mut.space.TryMark(v) {
			mut.markBuf.Push(v)
		}
	})
	mut.space.pushMutatorRoots(mut.markBuf.Objects())
}

// pushMutatorRoots hands buf's contents to the space's root chain for
// this cycle. Single-mutator today, so a plain append suffices; a
// multi-mutator future would need this to be a lock-free push.
func (s *Space) pushMutatorRoots(objs []unsafe.Pointer) {
	if len(objs) == 0 {
		return
	}
	cp := make([]unsafe.Pointer, len(objs))
	copy(cp, objs)
	s.mutatorRoots = &rootNode{objects: cp, next: s.mutatorRoots}
}

// markGlobalRoots drains the space's mutator-roots chain into the
// marker and clears it.
func markGlobalRoots(s *Space) {
	for node := s.mutatorRoots; node != nil; node = node.next {
		s.marker.EnqueueRoots(node.objects)
	}
	s.mutatorRoots = nil
}
