// Package markbuf implements the per-mutator mark buffer: a small
// growable array of newly-marked objects, backed by its own mmap
// region so it can be released with MADV_DONTNEED between collection
// cycles instead of freed and reallocated.
package markbuf

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/tidalgc/taggc/internal/mmap"
)

const pointerSize = unsafe.Sizeof(uintptr(0))

// Buffer is {objects, size, capacity} plus the mmap region backing
// the objects slice.
type Buffer struct {
	region   *mmap.Region
	objects  []unsafe.Pointer
	size     int
	capacity int
}

// New allocates a mark buffer with capacity for one page's worth of
// object pointers.
func New() (*Buffer, error) {
	b := &Buffer{}
	if err := b.grow(uintptr(mmap.PageSize)); err != nil {
		return nil, errors.Wrap(err, "allocating mutator mark buffer failed")
	}
	return b, nil
}

func (b *Buffer) grow(bytes uintptr) error {
	region, err := mmap.Reserve(bytes)
	if err != nil {
		return err
	}
	newCap := int(region.Size / pointerSize)
	newObjects := unsafe.Slice((*unsafe.Pointer)(region.Base()), newCap)
	copy(newObjects, b.objects)

	if b.region != nil {
		if relErr := b.region.Release(); relErr != nil {
			_ = relErr // best effort; the old region is leaked page-for-page, not fatal
		}
	}
	b.region = region
	b.objects = newObjects
	b.capacity = newCap
	return nil
}

// Push appends v, doubling capacity first if the buffer is full.
func (b *Buffer) Push(v unsafe.Pointer) {
	if b.size == b.capacity {
		if err := b.grow(uintptr(b.capacity) * pointerSize * 2); err != nil {
			panic(err)
		}
	}
	b.objects[b.size] = v
	b.size++
}

// Objects returns the live prefix of the buffer.
func (b *Buffer) Objects() []unsafe.Pointer {
	return b.objects[:b.size]
}

// Len reports how many objects are currently buffered.
func (b *Buffer) Len() int {
	return b.size
}

// Reset empties the buffer's logical contents without releasing
// pages, for reuse within the same cycle.
func (b *Buffer) Reset() {
	b.size = 0
}

// Release returns the buffer's pages to the OS via MADV_DONTNEED,
// keeping the virtual mapping (and capacity) intact for the next
// cycle, and clears the logical contents.
func (b *Buffer) Release() {
	if b.region != nil {
		_ = mmap.DontNeed(b.region, 0, b.region.Size)
	}
	b.size = 0
}

// Destroy unmaps the buffer's backing region entirely. Used when a
// mutator thread is detached (FinishForThread).
func (b *Buffer) Destroy() error {
	if b.region == nil {
		return nil
	}
	err := b.region.Release()
	b.region = nil
	b.objects = nil
	b.size = 0
	b.capacity = 0
	return err
}
