package main

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tidalgc/taggc/handle"
	"github.com/tidalgc/taggc/heapobj"
	"github.com/tidalgc/taggc/internal/config"
	"github.com/tidalgc/taggc/marksweep"
	"github.com/tidalgc/taggc/marksweeplegacy"
	"github.com/tidalgc/taggc/semispace"
)

// mutator is the method set every variant's own *Mutator happens to
// share; the three packages deliberately don't unify behind a shared
// Go interface, so this is cmd/bench's own driver-level adapter, not
// something the core exports.
type mutator interface {
	Allocate(kind heapobj.Kind, size uintptr) unsafe.Pointer
	AllocatePointerless(kind heapobj.Kind, size uintptr) unsafe.Pointer
	PushHandle(h *handle.Handle, v unsafe.Pointer)
	PopHandle()
}

// heap is the stats-printing method set every variant's own *Heap
// shares.
type heap interface {
	PrintStartGCStats()
	PrintEndGCStats()
}

// start builds the chosen variant's heap and first mutator and wraps
// them behind the driver's own adapters.
func start(cfg config.Config, log *logrus.Logger) (heap, mutator, error) {
	switch cfg.Variant {
	case config.MarkSweep:
		h, mut, err := marksweep.InitializeGC(uintptr(cfg.HeapSize), marksweep.Config{
			ParallelWorkers: cfg.ParallelWorkers,
			Log:             log,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "marksweep.InitializeGC")
		}
		return h, mut, nil
	case config.MarkSweepLegacy:
		h, mut, err := marksweeplegacy.InitializeGC(uintptr(cfg.HeapSize), marksweeplegacy.Config{
			ParallelWorkers: cfg.ParallelWorkers,
			Log:             log,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "marksweeplegacy.InitializeGC")
		}
		return h, mut, nil
	case config.SemiSpace:
		h, mut, err := semispace.InitializeGC(uintptr(cfg.HeapSize), semispace.Config{Log: log})
		if err != nil {
			return nil, nil, errors.Wrap(err, "semispace.InitializeGC")
		}
		return h, mut, nil
	default:
		return nil, nil, errors.Errorf("unknown variant %q", cfg.Variant)
	}
}
