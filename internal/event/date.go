package event

import (
	"strings"
	"time"
)

const (
	// SiteLayout is the format of the row's data-event-datetime attribute.
	SiteLayout = "2006/01/02 15:04:05"
	// ISOLayout is the zone-less format of ParsedDateTime.
	ISOLayout = "2006-01-02T15:04:05"
	// DayLayout is the format of the Day label.
	DayLayout = "Monday, January 02, 2006"
)

// ParseDateTime parses a site date-time string.
// Returns empty strings if parsing fails.
func ParseDateTime(raw string) (parsed, day string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	t, err := time.Parse(SiteLayout, raw)
	if err != nil {
		return "", ""
	}
	return t.Format(ISOLayout), t.Format(DayLayout)
}

// Date returns the parsed event time, or the zero time when ParsedDateTime
// is empty or malformed.
func (e *Event) Date() time.Time {
	if e.ParsedDateTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(ISOLayout, e.ParsedDateTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsPastEvent checks if an event's date is before now.
// Returns false if the date cannot be parsed.
func (e *Event) IsPastEvent(now time.Time) bool {
	parsed := e.Date()
	if parsed.IsZero() {
		return false
	}
	return parsed.Before(now)
}

// IsWithinDays checks if an event falls between now and now+days.
// Returns true if days <= 0 (feature disabled) or date is unparseable.
func (e *Event) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	parsed := e.Date()
	if parsed.IsZero() {
		return true
	}
	cutoff := now.AddDate(0, 0, days)
	return !parsed.Before(now) && parsed.Before(cutoff)
}
