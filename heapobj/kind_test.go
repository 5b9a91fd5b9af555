package heapobj

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAndDispatch(t *testing.T) {
	const k Kind = 200
	var visited []unsafe.Pointer
	Register(k, Ops{
		Size: func(obj unsafe.Pointer) uintptr { return 24 },
		VisitFields: func(obj unsafe.Pointer, visit VisitFunc, data unsafe.Pointer) {
			visited = append(visited, obj)
		},
	})

	assert.True(t, IsRegistered(k))
	assert.Equal(t, uintptr(24), SizeOf(k, nil))

	Visit(k, unsafe.Pointer(uintptr(1)), nil, nil)
	assert.Len(t, visited, 1)
}

func TestUnregisteredKindPanics(t *testing.T) {
	assert.False(t, IsRegistered(Kind(250)))
	assert.Panics(t, func() { SizeOf(Kind(250), nil) })
}

func TestVisitFuncToleratesNilSlot(t *testing.T) {
	const k Kind = 201
	Register(k, Ops{
		Size: func(obj unsafe.Pointer) uintptr { return 8 },
		VisitFields: func(obj unsafe.Pointer, visit VisitFunc, data unsafe.Pointer) {
			visit(nil, data)
		},
	})
	called := false
	Visit(k, nil, func(slot *unsafe.Pointer, data unsafe.Pointer) {
		called = true
		assert.Nil(t, slot)
	}, nil)
	assert.True(t, called)
}
