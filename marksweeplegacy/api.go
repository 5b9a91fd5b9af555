// Package marksweeplegacy is the earlier mark-sweep collector variant
// kept side-by-side with the current one: same mutator-facing API,
// but object headers carry their own kind/live/mark bits instead of
// leaning on an external mark-byte table, and one-granule objects get
// a dedicated tiny free-list.
package marksweeplegacy

import (
	"os"
	"unsafe"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/tidalgc/taggc/heapobj"
	"github.com/tidalgc/taggc/marker"
)

// Heap owns a Space plus the collector's chosen marker.
type Heap struct {
	space *Space
}

// Config selects the marker backend and logger for a new heap.
type Config struct {
	ParallelWorkers int
	Log             *logrus.Logger
}

// InitializeGC reserves at least heapSize bytes (page-rounded) and
// returns a heap and its first mutator, returning an error instead of
// aborting on a reservation failure.
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

	mut := newMutator(space)
	return &Heap{space: space}, mut, nil
}

// InitializeForThread matches the current variant's collector-level
// entry point.
func (h *Heap) InitializeForThread(parent *Mutator) *Mutator {
	return InitializeForThread(parent)
}

// FinishForThread detaches mut.
func (h *Heap) FinishForThread(mut *Mutator) error {
	return FinishForThread(mut)
}

// RegisterKind installs a client alloc-kind's size/visit hooks.
func RegisterKind(k heapobj.Kind, ops heapobj.Ops) {
	heapobj.Register(k, ops)
}

// InitField, SetField, and GetField are plain slot access with no
// barrier: this collector has no write barrier to maintain.

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

// PrintEndGCStats prints the end-of-run summary lines.
func (h *Heap) PrintEndGCStats() {
	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"metric", "value"})
	t.Append([]string{"completed collections", fmtUint(h.space.count)})
	t.Append([]string{"heap size", fmtBytes(h.space.heapSize)})
	t.Render()
}
