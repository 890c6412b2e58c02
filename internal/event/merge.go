package event

// MergeStats reports what a single Merge call did with its input.
type MergeStats struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Unkeyed    int `json:"unkeyed"`
	Invalid    int `json:"invalid"`
}

// Set accumulates events across chunk fetches for one run.
// Events with an EventID are kept once; events without one are always kept,
// so the same unkeyed row fetched twice appears twice.
type Set struct {
	events []*Event
	seen   map[string]struct{}
}

// NewSet creates an empty merge set.
func NewSet() *Set {
	return &Set{
		events: make([]*Event, 0),
		seen:   make(map[string]struct{}),
	}
}

// Merge appends incoming events in order, skipping ids already recorded
// and events without a name.
func (s *Set) Merge(incoming []*Event) MergeStats {
	var stats MergeStats
	for _, evt := range incoming {
		if evt == nil || !evt.Valid() {
			stats.Invalid++
			continue
		}
		if evt.EventID == "" {
			s.events = append(s.events, evt)
			stats.Added++
			stats.Unkeyed++
			continue
		}
		if _, exists := s.seen[evt.EventID]; exists {
			stats.Duplicates++
			continue
		}
		s.seen[evt.EventID] = struct{}{}
		s.events = append(s.events, evt)
		stats.Added++
	}
	return stats
}

// Merge folds incoming into accumulated; see Set.Merge.
func Merge(accumulated *Set, incoming []*Event) MergeStats {
	return accumulated.Merge(incoming)
}

// Len returns the number of accumulated events.
func (s *Set) Len() int {
	return len(s.events)
}

// KeyedLen returns the number of distinct event ids merged.
func (s *Set) KeyedLen() int {
	return len(s.seen)
}

// Events returns the accumulated events in merge order.
func (s *Set) Events() []*Event {
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

// Union merges a then b into a fresh set and returns its events.
func Union(a, b []*Event) []*Event {
	s := NewSet()
	s.Merge(a)
	s.Merge(b)
	return s.Events()
}
