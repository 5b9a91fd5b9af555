package marker

import (
	"math/rand"
	"sync"
	"unsafe"
)

// Parallel traces with N worker goroutines, each owning a local work
// deque. A worker pops its own deque LIFO; when empty, it steals from
// a randomly chosen peer's opposite end. Object-level results are
// identical to Serial — only throughput differs.
type Parallel struct {
	space   Space
	deques  []deque
	barrier *terminationBarrier
	rngs    []*rand.Rand // one per worker: math/rand.Rand isn't safe for concurrent use
}

// NewParallel builds a parallel marker with numWorkers worker deques.
// numWorkers must be >= 1.
func NewParallel(space Space, numWorkers int) *Parallel {
	if numWorkers < 1 {
		numWorkers = 1
	}
	rngs := make([]*rand.Rand, numWorkers)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(int64(i) + 1))
	}
	return &Parallel{
		space:   space,
		deques:  make([]deque, numWorkers),
		barrier: newTerminationBarrier(numWorkers),
		rngs:    rngs,
	}
}

// Prepare resets every worker deque and the termination barrier for a
// new cycle.
func (p *Parallel) Prepare() {
	for i := range p.deques {
		p.deques[i].reset()
	}
	p.barrier.reset()
}

// EnqueueRoots partitions roots across workers round-robin so each
// starts with roughly even initial work.
func (p *Parallel) EnqueueRoots(objs []unsafe.Pointer) {
	n := len(p.deques)
	for i, obj := range objs {
		p.deques[i%n].pushBottom(obj)
	}
}

// Trace runs every worker to a fixed point and returns once all
// deques are drained and every worker has observed termination.
func (p *Parallel) Trace() {
	var wg sync.WaitGroup
	n := len(p.deques)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			p.runWorker(id)
		}(i)
	}
	wg.Wait()
}

func (p *Parallel) runWorker(id int) {
	own := &p.deques[id]
	push := func(v unsafe.Pointer) {
		own.pushBottom(v)
		p.barrier.produced()
	}
	visitFn := func(slot *unsafe.Pointer, data unsafe.Pointer) {
		visit(p.space, slot, push)
	}

	for {
		if obj, ok := own.popBottom(); ok {
			traceOne(p.space, obj, visitFn)
			continue
		}
		if obj, ok := p.steal(id); ok {
			traceOne(p.space, obj, visitFn)
			continue
		}
		if p.barrier.arrive() {
			return
		}
	}
}

// steal tries exactly one randomly chosen peer, opposite end from
// where its owner pushes. A single failed attempt is enough; repeated
// failure is handled by re-arriving at the barrier, not by retrying
// steal targets in a loop here.
func (p *Parallel) steal(self int) (unsafe.Pointer, bool) {
	n := len(p.deques)
	if n == 1 {
		return nil, false
	}
	peer := self
	for peer == self {
		peer = p.rngs[self].Intn(n)
	}
	return p.deques[peer].popTop()
}

// Release empties every worker deque; their backing storage is kept
// for the next cycle.
func (p *Parallel) Release() {
	for i := range p.deques {
		p.deques[i].reset()
	}
}
