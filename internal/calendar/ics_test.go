package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

var now = time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)

func TestGenerateICS(t *testing.T) {
	evt := &event.Event{
		EventID:        "520002",
		Time:           "13:30",
		RawDateTime:    "2025/12/25 13:30:00",
		ParsedDateTime: "2025-12-25T13:30:00",
		Country:        "United States",
		CountryCode:    "USD",
		EventName:      "Initial Jobless Claims",
		EventDetailURL: "https://www.investing.com/economic-calendar/initial-jobless-claims-294",
		Actual:         "214K",
		Forecast:       "223K",
		Previous:       "224K",
		Impact:         event.ImpactHigh,
	}

	ics := GenerateICS([]*event.Event{evt}, 0, now)

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//econ-calendar//econ-calendar//EN",
		"BEGIN:VEVENT",
		"UID:520002@econ-calendar",
		"DTSTAMP:20251201T080000Z",
		"DTSTART:20251225T133000Z",
		"DTEND:20251225T134500Z",
		"SUMMARY:[USD] Initial Jobless Claims (High)",
		"DESCRIPTION:Impact: High\\nActual: 214K\\nForecast: 223K\\nPrevious: 224K",
		"LOCATION:United States",
		"CATEGORIES:High",
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	if !strings.Contains(ics, "\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestGenerateICS_Offset(t *testing.T) {
	evt := &event.Event{
		EventID:        "1",
		Time:           "08:00",
		ParsedDateTime: "2025-12-02T08:00:00",
		EventName:      "Unemployment Rate",
	}

	ics := GenerateICS([]*event.Event{evt}, time.Hour, now)
	if !strings.Contains(ics, "DTSTART:20251202T070000Z") {
		t.Errorf("GMT+1 time should be shifted to UTC:\n%s", ics)
	}
}

func TestGenerateICS_AllDay(t *testing.T) {
	tests := []struct {
		name string
		evt  *event.Event
		want string
	}{
		{
			name: "holiday",
			evt: &event.Event{
				EventID: "9", Time: "All Day", ParsedDateTime: "2025-12-25T00:00:00",
				EventName: "Germany - Christmas Day", Impact: event.ImpactHoliday,
			},
			want: "DTSTART;VALUE=DATE:20251225",
		},
		{
			name: "tentative time",
			evt: &event.Event{
				EventID: "10", Time: "Tentative", ParsedDateTime: "2025-12-03T00:00:00",
				EventName: "BoJ Press Conference", Impact: event.ImpactMedium,
			},
			want: "DTSTART;VALUE=DATE:20251203",
		},
		{
			name: "day label only",
			evt: &event.Event{
				Day: "Thursday, December 25, 2025", EventName: "Japan - Bank Holiday", Impact: event.ImpactHoliday,
			},
			want: "DTEND;VALUE=DATE:20251226",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ics := GenerateICS([]*event.Event{tt.evt}, 0, now)
			if !strings.Contains(ics, tt.want) {
				t.Errorf("ICS missing %q:\n%s", tt.want, ics)
			}
			if !strings.Contains(ics, "TRANSP:TRANSPARENT") {
				t.Error("all-day entries should not block time")
			}
		})
	}
}

func TestGenerateICS_SkipsUndated(t *testing.T) {
	events := []*event.Event{
		{EventID: "1", EventName: "No date at all"},
		{EventID: "2", Time: "10:00", ParsedDateTime: "2025-12-02T10:00:00", EventName: "CPI"},
	}

	ics := GenerateICS(events, 0, now)
	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("VEVENT count = %d, want 1", got)
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Simple text", "Simple text"},
		{"Text with, comma", "Text with\\, comma"},
		{"Text with; semicolon", "Text with\\; semicolon"},
		{"Text with\nnewline", "Text with\\nnewline"},
		{"Text with\\backslash", "Text with\\\\backslash"},
	}

	for _, tt := range tests {
		if got := escapeICS(tt.input); got != tt.want {
			t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteLineFolds(t *testing.T) {
	var b strings.Builder
	long := "SUMMARY:" + strings.Repeat("é", 60)
	writeLine(&b, long)

	for i, line := range strings.Split(strings.TrimSuffix(b.String(), "\r\n"), "\r\n") {
		if len(line) > maxLineOctets {
			t.Errorf("line %d has %d octets", i, len(line))
		}
		if i > 0 && !strings.HasPrefix(line, " ") {
			t.Errorf("continuation line %d should start with a space", i)
		}
	}
	unfolded := strings.ReplaceAll(strings.TrimSuffix(b.String(), "\r\n"), "\r\n ", "")
	if unfolded != long {
		t.Error("unfolding should restore the original line")
	}
}
