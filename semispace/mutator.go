package semispace

import (
	"os"
	"unsafe"

	"github.com/tidalgc/taggc/handle"
)

// Mutator holds this thread's root chain and a back-pointer to the
// shared Space. The semi-space design has no per-mutator free-list or
// mark buffer to own: allocation is a shared bump pointer, and
// collection walks handles directly.
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

// InitializeForThread matches the other variants' refusal: this core
// has no support for concurrent mutators.
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
