package zone

// Selector picks the single zone to track out of the zones the core
// reports, based on an ordered priority list of display names.
type Selector struct {
	priorities []string
}

// NewSelector creates a selector. The list is ordered highest priority
// first; display names match case-sensitively and exactly.
func NewSelector(priorities []string) *Selector {
	return &Selector{priorities: priorities}
}

// Select returns the record whose display name has the lowest index in the
// priority list, or nil when no reported zone is on the list. Records
// without a display name can never match. Ties keep the first reported
// record, though in practice the priority list holds no duplicates.
func (s *Selector) Select(records []Record) *Record {
	best := -1
	bestRank := len(s.priorities)

	for i, rec := range records {
		if rec.DisplayName == nil {
			continue
		}
		rank := s.rank(*rec.DisplayName)
		if rank < 0 {
			continue
		}
		if rank < bestRank {
			bestRank = rank
			best = i
		}
	}

	if best < 0 {
		return nil
	}
	return &records[best]
}

// rank returns the priority index of a display name, or -1.
func (s *Selector) rank(name string) int {
	for i, p := range s.priorities {
		if p == name {
			return i
		}
	}
	return -1
}
