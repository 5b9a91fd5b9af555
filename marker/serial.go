package marker

import "unsafe"

// Serial is the single-worklist marker: one owned stack, drained to a
// fixed point by the calling goroutine. It is the functional reference
// for Parallel — both must visit the same set of objects; only
// throughput differs.
type Serial struct {
	space     Space
	worklist  []unsafe.Pointer
}

// NewSerial builds a serial marker over space.
func NewSerial(space Space) *Serial {
	return &Serial{space: space}
}

// Prepare resets the worklist for a new cycle.
func (s *Serial) Prepare() {
	s.worklist = s.worklist[:0]
}

// EnqueueRoots seeds the worklist with objects already known to be
// marked (the caller is expected to have marked roots itself, e.g. via
// its own mutator root walk).
func (s *Serial) EnqueueRoots(objs []unsafe.Pointer) {
	s.worklist = append(s.worklist, objs...)
}

// Trace drains the worklist to a fixed point, visiting each object's
// fields and pushing newly-marked referents.
func (s *Serial) Trace() {
	visitFn := func(slot *unsafe.Pointer, data unsafe.Pointer) {
		visit(s.space, slot, func(v unsafe.Pointer) {
			s.worklist = append(s.worklist, v)
		})
	}
	for len(s.worklist) > 0 {
		n := len(s.worklist) - 1
		obj := s.worklist[n]
		s.worklist = s.worklist[:n]
		traceOne(s.space, obj, visitFn)
	}
}

// Release drops the worklist's backing storage.
func (s *Serial) Release() {
	s.worklist = nil
}
