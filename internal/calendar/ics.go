// Package calendar renders calendar events as iCalendar (RFC 5545) documents.
package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

const (
	prodID        = "-//econ-calendar//econ-calendar//EN"
	uidDomain     = "econ-calendar"
	eventDuration = 15 * time.Minute
	maxLineOctets = 75
)

var clockTime = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// GenerateICS renders events as one VCALENDAR. Event times are wall-clock times
// in the zone the calendar was requested in; offset converts them to UTC.
// Holidays and events without a clock time become all-day entries. Events
// without any usable date are left out.
func GenerateICS(events []*event.Event, offset time.Duration, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	writeLine(&ics, "PRODID:"+prodID)
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	writeLine(&ics, "X-WR-CALNAME:Economic Calendar")

	stamp := formatICSTime(now)
	for _, evt := range events {
		writeEvent(&ics, evt, offset, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, offset time.Duration, stamp string) {
	start, allDay := eventStart(evt)
	if start.IsZero() {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, fmt.Sprintf("UID:%s@%s", evt.Key(), uidDomain))
	ics.WriteString("DTSTAMP:" + stamp + "\r\n")

	if allDay {
		ics.WriteString("DTSTART;VALUE=DATE:" + start.Format("20060102") + "\r\n")
		ics.WriteString("DTEND;VALUE=DATE:" + start.AddDate(0, 0, 1).Format("20060102") + "\r\n")
		ics.WriteString("TRANSP:TRANSPARENT\r\n")
	} else {
		utc := start.Add(-offset)
		ics.WriteString("DTSTART:" + formatICSTime(utc) + "\r\n")
		ics.WriteString("DTEND:" + formatICSTime(utc.Add(eventDuration)) + "\r\n")
		ics.WriteString("TRANSP:OPAQUE\r\n")
	}

	writeLine(ics, "SUMMARY:"+escapeICS(summary(evt)))
	writeLine(ics, "DESCRIPTION:"+escapeICS(description(evt)))
	if evt.Country != "" {
		writeLine(ics, "LOCATION:"+escapeICS(evt.Country))
	}
	if evt.EventDetailURL != "" {
		writeLine(ics, "URL:"+evt.EventDetailURL)
	}
	if evt.Impact != "" {
		writeLine(ics, "CATEGORIES:"+escapeICS(string(evt.Impact)))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// eventStart returns the local start time and whether the entry is all-day.
func eventStart(evt *event.Event) (time.Time, bool) {
	parsed := evt.Date()
	timed := clockTime.MatchString(strings.TrimSpace(evt.Time))
	if !parsed.IsZero() {
		return parsed, evt.IsHoliday() || !timed
	}
	if day, err := time.Parse(event.DayLayout, evt.Day); err == nil {
		return day, true
	}
	return time.Time{}, false
}

func summary(evt *event.Event) string {
	s := evt.EventName
	if evt.CountryCode != "" {
		s = fmt.Sprintf("[%s] %s", evt.CountryCode, s)
	}
	if evt.Impact != "" && !evt.IsHoliday() {
		s = fmt.Sprintf("%s (%s)", s, evt.Impact)
	}
	return s
}

func description(evt *event.Event) string {
	var lines []string
	if evt.Impact != "" {
		lines = append(lines, "Impact: "+string(evt.Impact))
	}
	for _, f := range []struct{ label, value string }{
		{"Actual", evt.Actual},
		{"Forecast", evt.Forecast},
		{"Previous", evt.Previous},
	} {
		if f.value != "" {
			lines = append(lines, f.label+": "+f.value)
		}
	}
	if evt.EventDetailURL != "" {
		lines = append(lines, evt.EventDetailURL)
	}
	return strings.Join(lines, "\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine folds content lines longer than 75 octets without splitting a UTF-8 sequence.
func writeLine(b *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}
