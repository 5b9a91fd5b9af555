package marksweeplegacy

// collect runs one full collection cycle: mark every reachable
// object, then reset free-lists and sweep cursor so allocation drives
// the heap back through the sweeper from the base, rather than the
// eager whole-heap reclaim done once at initialize_gc.
func collect(s *Space, mut *Mutator) {
	s.marker.Prepare()
	markRoots(s, mut)
	s.marker.Trace()
	s.marker.Release()

	s.tiny = tinyList{}
	s.small = smallLists{}
	s.large = freeList{}
	s.sweep = s.heapBase

	s.count++

	s.log.WithField("collection", s.count).Debug("legacy mark-sweep collection complete")
}
