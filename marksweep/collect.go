package marksweep

// collect runs one full collection cycle: mark every reachable
// object, then make the whole heap unswept again so the next
// allocation drives it back through sweep. The sweep cursor is reset
// here but mark bytes are cleared lazily, object-by-object, by the
// next sweep rather than en masse, so stale mark bytes only become
// all-zero once a full sweep has run, not immediately after collect
// returns.
func collect(s *Space, mut *Mutator) {
	s.marker.Prepare()
	markMutatorRoots(mut)
	markGlobalRoots(s)
	s.marker.Trace()
	s.marker.Release()

	s.small = smallLists{}
	s.large = largeList{}
	s.sweep = s.heapBase

	s.count++

	mut.markBuf.Release()
	mut.local = smallLists{}

	s.log.WithField("collection", s.count).Debug("mark-sweep collection complete")
}
