// Package kinds is an example client type system: the per-kind
// Size/VisitFields hooks a real embedder would supply. It exists so
// the collector packages' tests and cmd/bench have something concrete
// to allocate and exercise end to end (a linked Node chain, a
// pointer-free DoubleArray).
package kinds

import (
	"unsafe"

	"github.com/tidalgc/taggc/heapobj"
)

const (
	// Node is a one-pointer-field object: {tag, next}.
	Node heapobj.Kind = 1
	// DoubleArray is a pointer-free payload: {tag, length, data...}.
	DoubleArray heapobj.Kind = 2
)

// NodeObj is the in-heap layout of a Node: a tag word (owned by the
// collector) followed by one traceable field.
type NodeObj struct {
	Tag  uintptr
	Next unsafe.Pointer
}

// NodeSize is the byte size of a Node cell.
const NodeSize = unsafe.Sizeof(NodeObj{})

// DoubleArrayHeader is the fixed prefix of a DoubleArray cell; the
// float64 payload follows immediately after it.
type DoubleArrayHeader struct {
	Tag    uintptr
	Length uintptr
}

const doubleArrayHeaderSize = unsafe.Sizeof(DoubleArrayHeader{})

// DoubleArraySize returns the byte size of a DoubleArray holding n
// float64s.
func DoubleArraySize(n uintptr) uintptr {
	return doubleArrayHeaderSize + n*unsafe.Sizeof(float64(0))
}

// NodeNext returns a pointer to obj's Next field, for use as a
// tracer slot or for building and walking a chain linked through it.
func NodeNext(obj unsafe.Pointer) *unsafe.Pointer {
	return &(*NodeObj)(obj).Next
}

// DoubleArrayLen reads the Length header field.
func DoubleArrayLen(obj unsafe.Pointer) uintptr {
	return (*DoubleArrayHeader)(obj).Length
}

// DoubleArraySetLen writes the Length header field. Callers allocate
// with the final length already known, so this only needs to run
// once, immediately after allocation.
func DoubleArraySetLen(obj unsafe.Pointer, n uintptr) {
	(*DoubleArrayHeader)(obj).Length = n
}

// DoubleArrayAt returns a pointer to element i of obj's float64
// payload.
func DoubleArrayAt(obj unsafe.Pointer, i uintptr) *float64 {
	base := unsafe.Add(obj, doubleArrayHeaderSize)
	return (*float64)(unsafe.Add(base, i*unsafe.Sizeof(float64(0))))
}

func init() {
	heapobj.Register(Node, heapobj.Ops{
		Size: func(obj unsafe.Pointer) uintptr { return NodeSize },
		VisitFields: func(obj unsafe.Pointer, visit heapobj.VisitFunc, data unsafe.Pointer) {
			visit(NodeNext(obj), data)
		},
	})
	heapobj.Register(DoubleArray, heapobj.Ops{
		Size: func(obj unsafe.Pointer) uintptr {
			return DoubleArraySize(DoubleArrayLen(obj))
		},
		VisitFields: func(obj unsafe.Pointer, visit heapobj.VisitFunc, data unsafe.Pointer) {
			// Pointer-free: nothing to visit.
		},
	})
}
