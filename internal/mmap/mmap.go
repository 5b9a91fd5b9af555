// Package mmap wraps the anonymous private page allocation used by
// every collector variant to back its heap, mark-buffer, and
// semi-space regions. It reserves pages with mmap and returns zeroed
// memory, the same contract as the runtime's own low-level page
// allocator.
package mmap

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// PageSize is the granularity every region is rounded up to before
// mapping.
var PageSize = unix.Getpagesize()

// Region is a live anonymous mapping.
type Region struct {
	Mem  []byte
	Size uintptr
}

// Reserve maps a fresh, zeroed, page-rounded region of at least n
// bytes. It returns a wrapped error on mmap failure rather than
// aborting: a heap's init path is meant to return a failure to its
// caller, not to abort the process.
func Reserve(n uintptr) (*Region, error) {
	size := AlignToPage(n)
	mem, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap reserve of %d bytes", size)
	}
	return &Region{Mem: mem, Size: size}, nil
}

// Base returns the region's start address as a raw pointer, for use
// in pointer arithmetic against heap cells.
func (r *Region) Base() unsafe.Pointer {
	if len(r.Mem) == 0 {
		return nil
	}
	return unsafe.Pointer(&r.Mem[0])
}

// Release unmaps the region entirely.
func (r *Region) Release() error {
	if r.Mem == nil {
		return nil
	}
	err := unix.Munmap(r.Mem)
	r.Mem = nil
	if err != nil {
		return errors.Wrap(err, "munmap")
	}
	return nil
}

// DontNeed advises the kernel that [offset, offset+length) within the
// region is no longer needed, without unmapping it: pages are
// returned to the OS but the virtual range stays reserved for reuse.
// Used to release a mutator's mark buffer between collection cycles.
func DontNeed(r *Region, offset, length uintptr) error {
	if length == 0 {
		return nil
	}
	return unix.MadviseDontNeed(r.Mem[offset : offset+length])
}

// AlignToPage rounds n up to a whole number of pages.
func AlignToPage(n uintptr) uintptr {
	ps := uintptr(PageSize)
	return (n + ps - 1) &^ (ps - 1)
}
