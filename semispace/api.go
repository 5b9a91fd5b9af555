package semispace

import (
	"os"
	"unsafe"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/tidalgc/taggc/heapobj"
)

// Heap owns a Space; the stable entry point callers initialize and
// drive a collection cycle through.
type Heap struct {
	space *Space
}

// Config selects the logger for a new heap. Semi-space tracing has no
// parallel mode: the Cheney scan is sequential, with the grey
// frontier chasing the allocation pointer through one contiguous
// to-space region, so there is no worker-count knob here.
type Config struct {
	Log *logrus.Logger
}

// InitializeGC reserves a region sized for two halves of at least
// halfSize bytes each (page-rounded) and returns a heap and its first
// mutator, returning an error instead of aborting on a reservation
// failure.
func InitializeGC(halfSize uintptr, cfg Config) (*Heap, *Mutator, error) {
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	space, err := newSpace(halfSize, cfg.Log)
	if err != nil {
		cfg.Log.WithError(err).Error("initialize_gc: mapping failed")
		return nil, nil, err
	}
	mut := newMutator(space)
	return &Heap{space: space}, mut, nil
}

// InitializeForThread matches the other variants' collector-level
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
// barrier: a moved object's referrers are only ever fixed up during
// collection itself, never between collections, so the mutator never
// needs to tell the collector about a write.

func InitField(slot *unsafe.Pointer, v unsafe.Pointer) { *slot = v }
func SetField(slot *unsafe.Pointer, v unsafe.Pointer)  { *slot = v }
func GetField(slot *unsafe.Pointer) unsafe.Pointer     { return *slot }

// PrintStartGCStats prints the heap state before a run begins.
func (h *Heap) PrintStartGCStats() {
	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"metric", "value"})
	t.Append([]string{"heap size (both halves)", fmtBytes(h.space.size)})
	t.Append([]string{"collections so far", fmtUint(h.space.count)})
	t.Render()
}

// PrintEndGCStats prints the end-of-run summary lines.
func (h *Heap) PrintEndGCStats() {
	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"metric", "value"})
	t.Append([]string{"completed collections", fmtUint(h.space.count)})
	t.Append([]string{"heap size", fmtBytes(h.space.size)})
	t.Render()
}
