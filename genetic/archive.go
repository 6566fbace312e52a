package genetic

// orderedSet is a set that remembers insertion order, backing the
// best-of-all-time elite archive. Iteration order is the order in which
// elements were first added, never map order, so that ranking ties resolve
// the same way on every run.
type orderedSet[X comparable] struct {
	items []X
	index map[X]struct{}
}

func newOrderedSet[X comparable](capacity int) *orderedSet[X] {
	return &orderedSet[X]{
		items: make([]X, 0, capacity),
		index: make(map[X]struct{}, capacity),
	}
}

func (s *orderedSet[X]) add(x X) {
	if _, ok := s.index[x]; ok {
		return
	}
	s.index[x] = struct{}{}
	s.items = append(s.items, x)
}

func (s *orderedSet[X]) remove(x X) {
	if _, ok := s.index[x]; !ok {
		return
	}
	delete(s.index, x)
	for i, v := range s.items {
		if v == x {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
}

func (s *orderedSet[X]) len() int {
	return len(s.items)
}

// values returns the elements in insertion order.
func (s *orderedSet[X]) values() []X {
	out := make([]X, len(s.items))
	copy(out, s.items)
	return out
}

func (s *orderedSet[X]) clear() {
	s.items = s.items[:0]
	clear(s.index)
}
