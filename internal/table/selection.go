package table

import "slices"

// Selection is a set of entry ids marked for a bulk action. It is not safe
// for concurrent use; the controller guards it.
type Selection struct {
	ids map[int64]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Add(id int64) { s.ids[id] = struct{}{} }

func (s *Selection) Remove(id int64) { delete(s.ids, id) }

// Toggle flips id and reports whether it is selected afterwards.
func (s *Selection) Toggle(id int64) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

func (s *Selection) Clear() { clear(s.ids) }

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
