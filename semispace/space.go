// Package semispace is the semi-space copying collector: two
// equal-sized halves of one mmap region, a bump-pointer allocator,
// and a Cheney two-finger copy that evacuates everything reachable
// from roots into the other half at collection time. There is no
// free-list or mark bit anywhere in this variant; liveness is
// discovered by the act of copying, not by marking.
package semispace

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tidalgc/taggc/internal/mmap"
)

// Space holds the two semispace halves (as one contiguous region split
// down the middle) and the bump-pointer cursor into whichever half is
// currently active.
type Space struct {
	region *mmap.Region

	hp, limit uintptr
	base      uintptr
	size      uintptr

	count uint64
	log   *logrus.Logger
}

// newSpace reserves a page-aligned region of at least 2*requestedSize
// bytes (one full requestedSize per half) and activates the upper
// half via an initial flip (hp starts at base), matching
// initialize_gc's own call to flip before any allocation happens.
func newSpace(requestedHalfSize uintptr, log *logrus.Logger) (*Space, error) {
	size := mmap.AlignToPage(requestedHalfSize * 2)

	region, err := mmap.Reserve(size)
	if err != nil {
		return nil, errors.Wrap(err, "reserving semi-space heap")
	}

	base := uintptr(region.Base())
	s := &Space{
		region: region,
		base:   base,
		hp:     base,
		size:   region.Size,
		log:    log,
	}
	flip(s)
	return s, nil
}

func (s *Space) remaining() uintptr {
	return s.limit - s.hp
}
