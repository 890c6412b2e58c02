package scraper

import (
	"testing"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

const holidayFragment = `
<tr><td colspan="9" class="theDay">Friday, December 26, 2025</td></tr>
<tr>
  <td class="first left">All Day</td>
  <td class="flagCur left"><span title="United Kingdom" class="ceFlags United_Kingdom">&nbsp;</span> GBP</td>
  <td class="left textNum sentiment"><span class="bold">Holiday</span></td>
  <td class="left event" colspan="6">United Kingdom - Boxing Day</td>
</tr>
<tr id="eventRowId_530001">
  <td class="first left">All Day</td>
  <td class="flagCur left"><span title="Germany" class="ceFlags Germany">&nbsp;</span> EUR</td>
  <td class="left textNum sentiment"><span class="bold">Holiday</span></td>
  <td class="left event" colspan="6">Germany - St. Stephen's Day</td>
</tr>
<tr>
  <td class="first left">All Day</td>
  <td class="flagCur left"><span title="Canada" class="ceFlags Canada">&nbsp;</span> CAD</td>
  <td class="left textNum sentiment">Holiday</td>
  <td class="left event" colspan="6">Canada - Boxing Day</td>
</tr>
`

func TestExtractHolidays(t *testing.T) {
	res, err := ExtractHolidays(holidayFragment)
	if err != nil {
		t.Fatalf("ExtractHolidays() error = %v", err)
	}

	if len(res.Events) != 3 {
		t.Fatalf("expected 3 holiday events, got %d", len(res.Events))
	}

	wantCountries := []string{"United Kingdom", "Germany", "Canada"}
	for i, evt := range res.Events {
		if evt.Impact != event.ImpactHoliday {
			t.Errorf("event %d Impact = %q, want Holiday", i, evt.Impact)
		}
		if evt.Day != "Friday, December 26, 2025" {
			t.Errorf("event %d Day = %q, want header day", i, evt.Day)
		}
		if evt.Time != "All Day" {
			t.Errorf("event %d Time = %q, want All Day", i, evt.Time)
		}
		if evt.Country != wantCountries[i] {
			t.Errorf("event %d Country = %q, want %q", i, evt.Country, wantCountries[i])
		}
	}

	if res.Events[0].EventName != "United Kingdom - Boxing Day" {
		t.Errorf("EventName = %q", res.Events[0].EventName)
	}
	if res.Events[0].CountryCode != "GBP" {
		t.Errorf("CountryCode = %q, want GBP", res.Events[0].CountryCode)
	}
	if res.Events[0].EventID != "" {
		t.Errorf("row without id should have empty EventID, got %q", res.Events[0].EventID)
	}
	if res.Events[1].EventID != "530001" {
		t.Errorf("EventID = %q, want 530001", res.Events[1].EventID)
	}
}

func TestExtractHolidaysDayTracking(t *testing.T) {
	fragment := `
<tr><td class="theDay">Wednesday, December 24, 2025</td></tr>
<tr><td>All Day</td><td><span title="Japan">&nbsp;</span></td><td><span class="bold">Holiday</span></td><td>Japan - Bank Holiday</td></tr>
<tr><td class="theDay">Thursday, December 25, 2025</td></tr>
<tr><td>All Day</td><td><span title="France">&nbsp;</span></td><td><span class="bold">Holiday</span></td><td>France - Christmas Day</td></tr>
<tr><td>09:00</td><td><span title="France">&nbsp;</span></td><td><span class="bold">Speech</span></td><td>Not a holiday row</td></tr>
<tr><td>All Day</td><td><span title="Italy">&nbsp;</span></td><td><span class="bold">Holiday</span></td><td></td></tr>
`
	res, err := ExtractHolidays(fragment)
	if err != nil {
		t.Fatalf("ExtractHolidays() error = %v", err)
	}

	if len(res.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(res.Events))
	}
	if res.Events[0].Day != "Wednesday, December 24, 2025" {
		t.Errorf("first Day = %q", res.Events[0].Day)
	}
	if res.Events[1].Day != "Thursday, December 25, 2025" {
		t.Errorf("second Day = %q", res.Events[1].Day)
	}
	if res.RowsRejected != 1 {
		t.Errorf("RowsRejected = %d, want 1 (nameless holiday row)", res.RowsRejected)
	}
}

func TestExtractHolidaysOnEventFixture(t *testing.T) {
	res, err := ExtractHolidays(loadFixture(t))
	if err != nil {
		t.Fatalf("ExtractHolidays() error = %v", err)
	}

	if len(res.Events) != 1 {
		t.Fatalf("expected 1 holiday, got %d", len(res.Events))
	}
	evt := res.Events[0]
	if evt.EventID != "520001" || evt.EventName != "Germany - Christmas Day" {
		t.Errorf("unexpected holiday %+v", evt)
	}
	if evt.ParsedDateTime != "2025-12-25T00:00:00" {
		t.Errorf("ParsedDateTime = %q", evt.ParsedDateTime)
	}
}

func TestFallbackMode(t *testing.T) {
	tests := []struct {
		input     string
		want      FallbackMode
		wantOK    bool
		runsEmpty bool
		runsFull  bool
	}{
		{input: "", want: FallbackWhenEmpty, wantOK: true, runsEmpty: true, runsFull: false},
		{input: "empty", want: FallbackWhenEmpty, wantOK: true, runsEmpty: true, runsFull: false},
		{input: "ALWAYS", want: FallbackAlways, wantOK: true, runsEmpty: true, runsFull: true},
		{input: "never", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ParseFallbackMode(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseFallbackMode(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if got.ShouldRun(0) != tt.runsEmpty {
			t.Errorf("%q.ShouldRun(0) = %v, want %v", got, got.ShouldRun(0), tt.runsEmpty)
		}
		if got.ShouldRun(5) != tt.runsFull {
			t.Errorf("%q.ShouldRun(5) = %v, want %v", got, got.ShouldRun(5), tt.runsFull)
		}
	}
}
