// Package filter narrows calendar events after retrieval.
//
// The site query already restricts countries, categories and importance. A
// Filter applies the criteria the site cannot express:
//   - Impact levels, including or excluding holidays
//   - Countries by name or currency code (case-insensitive)
//   - Keywords in the event name (substring match, case-insensitive)
//   - Date range (from/to dates, inclusive)
//   - Past events, or events beyond a number of days ahead
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Impacts, _ = filter.ParseImpacts("high,medium")
//	f.Keywords = []string{"CPI", "Payrolls"}
//
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Impact levels to keep; empty keeps all
	Impacts []event.Impact `json:"impacts,omitempty"`

	// Country names or currency codes to keep
	Countries []string `json:"countries,omitempty"`

	// Event name filtering (case-insensitive substring match)
	Keywords []string `json:"keywords,omitempty"`

	ExcludeHolidays bool `json:"exclude_holidays,omitempty"`

	// Relative window; Now defaults to the current time.
	HidePast  bool      `json:"hide_past,omitempty"`
	DaysAhead int       `json:"days_ahead,omitempty"`
	Now       time.Time `json:"-"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Impacts:   []event.Impact{},
		Countries: []string{},
		Keywords:  []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Impacts) == 0 &&
		len(f.Countries) == 0 &&
		len(f.Keywords) == 0 &&
		!f.ExcludeHolidays &&
		!f.HidePast &&
		f.DaysAhead <= 0
}

func (f *Filter) now() time.Time {
	if f.Now.IsZero() {
		return time.Now()
	}
	return f.Now
}

// Matches checks if an event matches all active filter criteria.
// Events without a parseable date pass the date range check.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	if f.ExcludeHolidays && evt.IsHoliday() {
		return false
	}

	if len(f.Impacts) > 0 && !slices.Contains(f.Impacts, evt.Impact) {
		return false
	}

	if f.HidePast && evt.IsPastEvent(f.now()) {
		return false
	}

	if f.DaysAhead > 0 && !evt.IsWithinDays(f.now(), f.DaysAhead) {
		return false
	}

	if eventDate := eventDay(evt); !eventDate.IsZero() {
		if f.DateFrom != nil && eventDate.Before(truncate(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && eventDate.After(truncate(*f.DateTo)) {
			return false
		}
	}

	if len(f.Countries) > 0 {
		matched := false
		for _, c := range f.Countries {
			if strings.EqualFold(evt.Country, c) || strings.EqualFold(evt.CountryCode, c) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Keywords) > 0 {
		matched := false
		nameLower := strings.ToLower(evt.EventName)
		for _, kw := range f.Keywords {
			if strings.Contains(nameLower, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the events matching all criteria, in input order.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Dec 2, 2025 | To: Dec 20, 2025 | Impact: High, Medium | Keywords: CPI"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Impacts) > 0 {
		names := make([]string, len(f.Impacts))
		for i, imp := range f.Impacts {
			names[i] = string(imp)
		}
		parts = append(parts, fmt.Sprintf("Impact: %s", strings.Join(names, ", ")))
	}

	if len(f.Countries) > 0 {
		parts = append(parts, fmt.Sprintf("Countries: %s", strings.Join(f.Countries, ", ")))
	}

	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}

	if f.ExcludeHolidays {
		parts = append(parts, "No holidays")
	}

	if f.HidePast {
		parts = append(parts, "Upcoming only")
	}

	if f.DaysAhead > 0 {
		parts = append(parts, fmt.Sprintf("Next %d days", f.DaysAhead))
	}

	return strings.Join(parts, " | ")
}

// eventDay returns the event's calendar date, from the parsed time or the day label.
func eventDay(evt *event.Event) time.Time {
	if t := evt.Date(); !t.IsZero() {
		return truncate(t)
	}
	if t, err := time.Parse(event.DayLayout, evt.Day); err == nil {
		return t
	}
	return time.Time{}
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
