package marksweeplegacy

import (
	"os"
	"unsafe"

	"github.com/tidalgc/taggc/handle"
)

// Mutator is a thin handle onto the shared Space plus this thread's
// root chain. Unlike the current variant, there is no per-mutator
// mark buffer here: this variant always walks a single root list
// directly during collect, predating the buffering design that exists
// to avoid lock contention across many mutators — moot here, since
// this core only ever runs a single mutator.
type Mutator struct {
	space *Space
	roots handle.Chain
}

func newMutator(space *Space) *Mutator {
	return &Mutator{space: space}
}

// PushHandle roots v on scope entry. Callers must Pop in LIFO order.
func (m *Mutator) PushHandle(h *handle.Handle, v unsafe.Pointer) {
	m.roots.Push(h, v)
}

// PopHandle unroots the most recently pushed handle.
func (m *Mutator) PopHandle() {
	m.roots.Pop()
}

// InitializeForThread matches the current variant's refusal: this
// core has no support for concurrent mutators.
func InitializeForThread(parent *Mutator) *Mutator {
	parent.space.log.Error("Multiple mutator threads not yet implemented.")
	os.Exit(1)
	return nil
}

// FinishForThread is a no-op: there is no per-mutator resource to
// release in this variant.
func FinishForThread(mut *Mutator) error {
	return nil
}

// markRoots claims every handle-rooted object's mark bit and hands the
// winners to the marker; simpler than the current variant since this
// one never buffers roots across mutators.
func markRoots(s *Space, mut *Mutator) {
	var objs []unsafe.Pointer
	mut.roots.Walk(func(v unsafe.Pointer) {
		if s.TryMark(v) {
			objs = append(objs, v)
		}
	})
	s.marker.EnqueueRoots(objs)
}
