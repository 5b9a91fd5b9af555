package marker

import "sync"

// terminationBarrier implements a two-phase termination protocol: a
// worker that finds its own deque empty and fails to steal "arrives"
// at the barrier. Termination is detected
// only when every worker has simultaneously arrived; any worker that
// produces new work while others are parked reopens the barrier by
// bumping the generation counter, which wakes every parked worker to
// retry its local pop and a steal before re-arriving.
//
// This is the single hardest piece of the parallel marker: a naive
// "all workers report idle once" count races a worker that steals
// successfully a moment after another has already reported idle.
// Gating re-arrival behind a generation counter, rather than a plain
// decrement, is what avoids a lost wakeup if two workers produce work
// in the same instant.
type terminationBarrier struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
	idle int
	gen  int
	done bool
}

func newTerminationBarrier(n int) *terminationBarrier {
	b := &terminationBarrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *terminationBarrier) reset() {
	b.mu.Lock()
	b.idle = 0
	b.gen = 0
	b.done = false
	b.mu.Unlock()
}

// arrive blocks the calling worker until either every worker has
// arrived (returns true: terminate) or the barrier is reopened by a
// producer (returns false: the caller should retry finding work).
func (b *terminationBarrier) arrive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	myGen := b.gen
	b.idle++
	if b.idle == b.n {
		b.done = true
		b.cond.Broadcast()
		return true
	}
	for b.gen == myGen && !b.done {
		b.cond.Wait()
	}
	if b.done {
		return true
	}
	// Reopened: this worker is no longer counted idle.
	b.idle--
	return false
}

// produced reopens the barrier if any worker is currently parked,
// waking every waiter to retry. Safe to call unconditionally after
// every successful push; it is a no-op when nobody is waiting.
func (b *terminationBarrier) produced() {
	b.mu.Lock()
	if b.idle > 0 && !b.done {
		b.gen++
		b.cond.Broadcast()
	}
	b.mu.Unlock()
}
