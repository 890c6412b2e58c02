package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// Event is one row of the economic calendar.
type Event struct {
	Time           string `json:"time" yaml:"time"`
	RawDateTime    string `json:"datetime" yaml:"datetime"`
	ParsedDateTime string `json:"parsed_datetime" yaml:"parsed_datetime"`
	Day            string `json:"day" yaml:"day"`
	Country        string `json:"country" yaml:"country"`
	CountryCode    string `json:"country_code" yaml:"country_code"`
	EventName      string `json:"event" yaml:"event"`
	EventDetailURL string `json:"event_url" yaml:"event_url"`
	Actual         string `json:"actual" yaml:"actual"`
	Forecast       string `json:"forecast" yaml:"forecast"`
	Previous       string `json:"previous" yaml:"previous"`
	Impact         Impact `json:"impact" yaml:"impact"`
	EventID        string `json:"event_id" yaml:"event_id"`
}

// Valid reports whether the event has a name. A nameless row is never emitted.
func (e *Event) Valid() bool {
	return strings.TrimSpace(e.EventName) != ""
}

// IsHoliday reports whether the event is a market holiday.
func (e *Event) IsHoliday() bool {
	return e.Impact == ImpactHoliday
}

// Key returns the identity used for snapshots: the site row id when present,
// otherwise a fingerprint of the row's visible fields.
func (e *Event) Key() string {
	if e.EventID != "" {
		return e.EventID
	}
	return GenerateID(e.Country, e.RawDateTime+"|"+e.Time+"|"+e.EventName)
}

// GenerateID creates a deterministic ID from stable fields
func GenerateID(country, raw string) string {
	h := sha1.New()
	h.Write([]byte(country + "|" + raw))
	return fmt.Sprintf("%x", h.Sum(nil))
}
