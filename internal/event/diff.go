package event

import (
	"sort"
	"time"
)

// Snapshot is the result of a previous run, keyed by Event.Key().
type Snapshot struct {
	Events    map[string]*Event `json:"events"`
	DateFrom  string            `json:"date_from,omitempty"`
	DateTo    string            `json:"date_to,omitempty"`
	UpdatedAt string            `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Events: make(map[string]*Event),
	}
}

// DiffResult contains the results of comparing a run against a snapshot
type DiffResult struct {
	NewEvents []*Event
	Changes   []*EventChange
}

// Diff compares current events against a previous snapshot. Events whose key
// is unknown are new; known events are checked for released or revised values.
func Diff(previous *Snapshot, current []*Event) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*Event, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, evt := range current {
		prev, exists := previous.Events[evt.Key()]
		if !exists {
			result.NewEvents = append(result.NewEvents, evt)
			continue
		}
		result.Changes = append(result.Changes, DetectChanges(prev, evt)...)
	}

	sort.SliceStable(result.NewEvents, func(i, j int) bool {
		return result.NewEvents[i].ParsedDateTime < result.NewEvents[j].ParsedDateTime
	})

	return result
}

// Update records events in the snapshot, replacing entries with the same key,
// and widens the covered date range. Entries the events do not mention are kept.
func (s *Snapshot) Update(events []*Event, dateFrom, dateTo string) {
	for _, evt := range events {
		s.Events[evt.Key()] = evt
	}
	if dateFrom != "" && (s.DateFrom == "" || dateFrom < s.DateFrom) {
		s.DateFrom = dateFrom
	}
	if dateTo > s.DateTo {
		s.DateTo = dateTo
	}
}

// EventChange is a field of a known event whose value moved between runs,
// typically an actual figure being released or a forecast revised.
type EventChange struct {
	Key        string    `json:"key"`
	EventName  string    `json:"event"`
	Country    string    `json:"country"`
	ChangeType string    `json:"change_type"` // "actual", "forecast", "previous", "time"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two versions of the same event.
func DetectChanges(previous, current *Event) []*EventChange {
	if previous == nil || current == nil {
		return nil
	}

	fields := []struct {
		kind     string
		old, new string
	}{
		{"actual", previous.Actual, current.Actual},
		{"forecast", previous.Forecast, current.Forecast},
		{"previous", previous.Previous, current.Previous},
		{"time", previous.Time, current.Time},
	}

	now := time.Now().UTC()
	var changes []*EventChange
	for _, f := range fields {
		if f.old == f.new {
			continue
		}
		changes = append(changes, &EventChange{
			Key:        current.Key(),
			EventName:  current.EventName,
			Country:    current.Country,
			ChangeType: f.kind,
			OldValue:   f.old,
			NewValue:   f.new,
			DetectedAt: now,
		})
	}
	return changes
}
