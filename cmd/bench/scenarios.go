package main

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/tidalgc/taggc/handle"
	"github.com/tidalgc/taggc/kinds"
)

// scenario is one of cmd/bench's end-to-end behaviors. Each gets its
// own heap of the configured size. Collections happen only as a side
// effect of Allocate, since cmd/bench only has the public API
// available (no variant exposes a direct "collect now" entry point),
// so whether a scenario triggers one depends on that size.
type scenario struct {
	name string
	run  func(mut mutator) error
}

var scenarios = []scenario{
	{"churn-of-tiny-nodes", scenarioChurnOfTinyNodes},
	{"large-small-interleave", scenarioLargeSmallInterleave},
	{"linked-list-walk", scenarioLinkedListWalk},
	{"pointer-free-large", scenarioPointerFreeLarge},
	{"fragmentation-recovery", scenarioFragmentationRecovery},
}

// scenarioChurnOfTinyNodes allocates 50,000 two-granule NODE objects
// (800,000 bytes), none of them rooted, and checks that allocation
// keeps succeeding. With a heap smaller than that, success depends on
// earlier, now-unreachable nodes being reclaimed and reused.
func scenarioChurnOfTinyNodes(mut mutator) error {
	for i := 0; i < 50000; i++ {
		obj := mut.Allocate(kinds.Node, kinds.NodeSize)
		if obj == nil {
			return errors.Errorf("allocation %d returned nil", i)
		}
	}
	return nil
}

// scenarioLargeSmallInterleave alternates a 512-byte and a 16-byte
// DoubleArray, retaining one pair in every 128 and discarding the
// rest, then confirms every retained pair still reads back its
// identifying pattern.
func scenarioLargeSmallInterleave(mut mutator) error {
	const pairs = 512
	type kept struct {
		large, small unsafe.Pointer
		idx          int
	}
	var handles []handle.Handle
	var retained []kept

	largeN := (512 - 16) / 8 // DoubleArraySize(largeN) == 512
	smallN := 0              // DoubleArraySize(0) == 16, header only

	for i := 0; i < pairs; i++ {
		large := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(uintptr(largeN)))
		kinds.DoubleArraySetLen(large, uintptr(largeN))
		small := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(uintptr(smallN)))
		kinds.DoubleArraySetLen(small, uintptr(smallN))

		if i%128 == 0 {
			*kinds.DoubleArrayAt(large, 0) = float64(i)
			var hl, hs handle.Handle
			mut.PushHandle(&hl, large)
			mut.PushHandle(&hs, small)
			handles = append(handles, hl, hs)
			retained = append(retained, kept{large: hl.V, small: hs.V, idx: i})
		}
	}

	for _, k := range retained {
		if got := *kinds.DoubleArrayAt(k.large, 0); got != float64(k.idx) {
			return errors.Errorf("retained pair %d: want %v, got %v", k.idx, k.idx, got)
		}
	}
	for range handles {
		mut.PopHandle()
	}
	return nil
}

// scenarioLinkedListWalk builds a 1,000-NODE chain rooted only at its
// head, forces allocation pressure, then walks it end to end.
func scenarioLinkedListWalk(mut mutator) error {
	var root handle.Handle
	head := mut.Allocate(kinds.Node, kinds.NodeSize)
	mut.PushHandle(&root, head)
	defer mut.PopHandle()

	cur := head
	for i := 0; i < 999; i++ {
		next := mut.Allocate(kinds.Node, kinds.NodeSize)
		*kinds.NodeNext(cur) = next
		cur = next
	}

	for i := 0; i < 2000; i++ {
		mut.Allocate(kinds.Node, kinds.NodeSize)
	}

	count := 0
	seen := map[unsafe.Pointer]bool{}
	for p := root.V; p != nil; p = *kinds.NodeNext(p) {
		if seen[p] {
			return errors.New("cycle or duplicate detected while walking the list")
		}
		seen[p] = true
		count++
	}
	if count != 1000 {
		return errors.Errorf("walked %d nodes, want 1000", count)
	}
	return nil
}

// scenarioPointerFreeLarge writes a recognisable pattern into a large
// pointer-free array, forces allocation pressure, and checks the
// pattern survived untouched.
func scenarioPointerFreeLarge(mut mutator) error {
	const n = 65536
	var root handle.Handle
	obj := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(n))
	kinds.DoubleArraySetLen(obj, n)
	for i := uintptr(0); i < n; i++ {
		*kinds.DoubleArrayAt(obj, i) = float64(i) * 1.5
	}
	mut.PushHandle(&root, obj)
	defer mut.PopHandle()

	for i := 0; i < 5; i++ {
		for j := 0; j < 2000; j++ {
			mut.Allocate(kinds.Node, kinds.NodeSize)
		}
	}

	obj = root.V
	for i := uintptr(0); i < n; i++ {
		if got := *kinds.DoubleArrayAt(obj, i); got != float64(i)*1.5 {
			return errors.Errorf("element %d: want %v, got %v", i, float64(i)*1.5, got)
		}
	}
	return nil
}

// scenarioFragmentationRecovery allocates a sawtooth of small and
// medium DoubleArrays, roots none of them, and checks the space
// that frees up can still satisfy a large run of small allocations.
func scenarioFragmentationRecovery(mut mutator) error {
	const rounds = 400
	for i := 0; i < rounds; i++ {
		small := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(1)) // 24 bytes
		kinds.DoubleArraySetLen(small, 1)
		medium := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(30)) // 256 bytes
		kinds.DoubleArraySetLen(medium, 30)
		_ = medium // dropped immediately; never rooted
	}
	for i := 0; i < rounds*3; i++ {
		obj := mut.Allocate(kinds.DoubleArray, kinds.DoubleArraySize(1))
		if obj == nil {
			return errors.Errorf("small allocation %d returned nil after fragmentation churn", i)
		}
	}
	return nil
}

func (s scenario) String() string {
	return fmt.Sprintf("scenario %q", s.name)
}
