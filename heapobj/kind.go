// Package heapobj holds the client-side contract every collector
// variant dispatches through: a per-kind size function and field
// visitor, indexed by a small integer alloc-kind. This is the
// constant-time dispatch table the original C core built with a
// macro (FOR_EACH_HEAP_OBJECT_KIND); here it is an ordinary array of
// function pointers, filled in once by the client type system at
// startup.
package heapobj

import "unsafe"

// Kind identifies the client-defined shape of a heap object. Zero is
// reserved: a tag word of zero means "free cell", never a live kind.
type Kind uint8

const maxKinds = 256

// VisitFunc is invoked once per traceable slot inside an object.
// Implementations must tolerate a nil *slot value.
type VisitFunc func(slot *unsafe.Pointer, data unsafe.Pointer)

// SizeFunc returns the byte size of obj, an object of a known kind.
type SizeFunc func(obj unsafe.Pointer) uintptr

// VisitFieldsFunc calls visit once per pointer-valued field of obj.
type VisitFieldsFunc func(obj unsafe.Pointer, visit VisitFunc, data unsafe.Pointer)

// Ops is what a client registers for one alloc-kind.
type Ops struct {
	Size        SizeFunc
	VisitFields VisitFieldsFunc
}

var registry [maxKinds]Ops
var registered [maxKinds]bool

// Register installs the size/visit functions for kind k. Intended to
// run once at process startup, before any heap is initialized;
// callers own synchronization if that isn't the case.
func Register(k Kind, ops Ops) {
	if ops.Size == nil || ops.VisitFields == nil {
		panic("heapobj: both Size and VisitFields are required")
	}
	registry[k] = ops
	registered[k] = true
}

// SizeOf dispatches to the registered Size function for kind k. It
// aborts on an unregistered kind: the collector treats an unknown
// alloc-kind encountered while tracing or sweeping as heap corruption,
// not a recoverable error.
func SizeOf(k Kind, obj unsafe.Pointer) uintptr {
	if !registered[k] {
		panic("heapobj: malformed object tag: unregistered alloc-kind")
	}
	return registry[k].Size(obj)
}

// Visit dispatches to the registered VisitFields function for kind k.
func Visit(k Kind, obj unsafe.Pointer, visit VisitFunc, data unsafe.Pointer) {
	if !registered[k] {
		panic("heapobj: malformed object tag: unregistered alloc-kind")
	}
	registry[k].VisitFields(obj, visit, data)
}

// IsRegistered reports whether kind k has been installed. Collectors
// use this to validate a tag word before trusting it.
func IsRegistered(k Kind) bool {
	return registered[k]
}
