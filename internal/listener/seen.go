package listener

// seenSet is a bounded signature dedup set. When full, the oldest entry is
// evicted first so memory stays flat under sustained event flow.
type seenSet struct {
	capacity int
	order    []string
	set      map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		capacity: capacity,
		set:      make(map[string]struct{}, capacity),
	}
}

// Add records a signature. Returns false when it was already present.
func (s *seenSet) Add(sig string) bool {
	if _, ok := s.set[sig]; ok {
		return false
	}

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.set, oldest)
	}

	s.order = append(s.order, sig)
	s.set[sig] = struct{}{}
	return true
}

// Len returns the current number of tracked signatures.
func (s *seenSet) Len() int {
	return len(s.set)
}
