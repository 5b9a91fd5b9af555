// Package marksweep is the current mark-sweep collector variant: an
// external mark-byte table, per-size-class segregated free-lists, and
// a tracing pass backed by the shared marker package.
package marksweep

import (
	"os"
	"unsafe"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/tidalgc/taggc/heapobj"
	"github.com/tidalgc/taggc/marker"
)

// Heap owns a Space plus the collector's chosen marker. It is the
// stable entry point callers initialize and drive a collection cycle
// through.
type Heap struct {
	space *Space
}

// Config selects the marker backend and logger for a new heap.
type Config struct {
	// ParallelWorkers, if > 0, runs the marker with that many
	// work-stealing worker goroutines. Zero means serial.
	ParallelWorkers int
	Log             *logrus.Logger
}

// InitializeGC reserves at least heapSize bytes (page-rounded) and
// returns a heap and its first mutator. It returns an error instead of
// aborting on a reservation failure: this is the one core failure mode
// that is the caller's to recover from, not ours.
func InitializeGC(heapSize uintptr, cfg Config) (*Heap, *Mutator, error) {
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	space, err := newSpace(heapSize, cfg.Log)
	if err != nil {
		cfg.Log.WithError(err).Error("initialize_gc: mapping failed")
		return nil, nil, err
	}
	if cfg.ParallelWorkers > 0 {
		space.marker = marker.NewParallel(space, cfg.ParallelWorkers)
	} else {
		space.marker = marker.NewSerial(space)
	}

	mut, err := newMutator(space)
	if err != nil {
		return nil, nil, err
	}
	return &Heap{space: space}, mut, nil
}

// InitializeForThread is the collector-level entry point; see the
// Mutator-level InitializeForThread for the actual (fatal) behavior.
func (h *Heap) InitializeForThread(parent *Mutator) *Mutator {
	return InitializeForThread(parent)
}

// FinishForThread detaches mut.
func (h *Heap) FinishForThread(mut *Mutator) error {
	return FinishForThread(mut)
}

// RegisterKind installs a client alloc-kind's size/visit hooks. A thin
// re-export so callers don't need to import heapobj directly just to
// wire up their type system.
func RegisterKind(k heapobj.Kind, ops heapobj.Ops) {
	heapobj.Register(k, ops)
}

// InitField, SetField, and GetField are plain slot access with no
// barrier: this collector has no write barrier to maintain, so all
// three are identical to a direct pointer write or read.

func InitField(slot *unsafe.Pointer, v unsafe.Pointer) { *slot = v }
func SetField(slot *unsafe.Pointer, v unsafe.Pointer)  { *slot = v }
func GetField(slot *unsafe.Pointer) unsafe.Pointer     { return *slot }

// PrintStartGCStats prints the heap state before a run begins.
func (h *Heap) PrintStartGCStats() {
	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"metric", "value"})
	t.Append([]string{"heap size", fmtBytes(h.space.heapSize)})
	t.Append([]string{"collections so far", fmtUint(h.space.count)})
	t.Render()
}

// PrintEndGCStats prints the end-of-run summary lines: collection
// count, and heap size including the mark-byte table overhead.
func (h *Heap) PrintEndGCStats() {
	overhead := h.space.heapBase - uintptr(h.space.region.Base())
	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"metric", "value"})
	t.Append([]string{"completed collections", fmtUint(h.space.count)})
	t.Append([]string{"heap size with overhead", fmtBytes(h.space.heapSize + overhead)})
	t.Render()
}
