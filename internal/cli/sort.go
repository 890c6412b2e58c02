package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByTime    SortOrder = "time"
	SortByCountry SortOrder = "country"
	SortByImpact  SortOrder = "impact"
)

// ParseSortOrder validates a sort order name.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByTime, SortByCountry, SortByImpact:
		return order, nil
	case "":
		return SortByTime, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'time', 'country', or 'impact')", s)
	}
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByTime:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByTime(events[i], events[j])
		})
	case SortByCountry:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Country != events[j].Country {
				return events[i].Country < events[j].Country
			}
			return compareByTime(events[i], events[j])
		})
	case SortByImpact:
		sort.SliceStable(events, func(i, j int) bool {
			ri, rj := events[i].Impact.Rank(), events[j].Impact.Rank()
			if ri != rj {
				return ri > rj
			}
			return compareByTime(events[i], events[j])
		})
	}
}

// compareByTime reports whether i should come before j.
// Dated events come first; undated ones fall back to country then name.
func compareByTime(i, j *event.Event) bool {
	dateI, dateJ := i.Date(), j.Date()

	if !dateI.IsZero() && !dateJ.IsZero() {
		return dateI.Before(dateJ)
	}
	if !dateI.IsZero() {
		return true
	}
	if !dateJ.IsZero() {
		return false
	}

	if i.Country != j.Country {
		return i.Country < j.Country
	}
	return strings.ToLower(i.EventName) < strings.ToLower(j.EventName)
}
