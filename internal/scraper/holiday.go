package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

const holidayLabel = "holiday"

// FallbackMode controls when ExtractHolidays runs alongside Extract.
type FallbackMode string

const (
	// FallbackWhenEmpty runs the holiday pass only when Extract found nothing.
	FallbackWhenEmpty FallbackMode = "empty"
	// FallbackAlways runs the holiday pass on every fragment.
	FallbackAlways FallbackMode = "always"
)

// ParseFallbackMode validates a mode name; empty selects FallbackWhenEmpty.
func ParseFallbackMode(s string) (FallbackMode, bool) {
	switch FallbackMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackWhenEmpty:
		return FallbackWhenEmpty, true
	case FallbackAlways:
		return FallbackAlways, true
	default:
		return "", false
	}
}

// ShouldRun reports whether the holiday pass runs after a primary pass that found primaryEvents.
func (m FallbackMode) ShouldRun(primaryEvents int) bool {
	return m == FallbackAlways || primaryEvents == 0
}

// ExtractHolidays walks every row of a fragment in order. Day header rows set the day
// attached to the rows that follow; rows whose third cell is labelled "Holiday" become
// events with ImpactHoliday.
func ExtractHolidays(fragment string) (ExtractResult, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return ExtractResult{}, err
	}

	res := ExtractResult{Events: make([]*event.Event, 0)}
	currentDay := ""

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if header := row.Find("td.theDay"); header.Length() > 0 {
			currentDay = cleanText(header.First().Text())
			return
		}

		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 || !isHolidayCell(cells.Eq(2)) {
			return
		}
		res.RowsSeen++

		evt := &event.Event{
			EventID:     rowID(row),
			RawDateTime: strings.TrimSpace(row.AttrOr("data-event-datetime", "")),
			Time:        cleanText(cells.Eq(0).Text()),
			Country:     cleanText(cells.Eq(1).Find("span[title]").First().AttrOr("title", "")),
			CountryCode: currencyCode(cells.Eq(1).Text()),
			Impact:      event.ImpactHoliday,
		}
		if cells.Length() > 3 {
			evt.EventName = cleanText(cells.Eq(3).Text())
		}
		evt.ParsedDateTime, evt.Day = event.ParseDateTime(evt.RawDateTime)
		if currentDay != "" {
			evt.Day = currentDay
		}

		if !evt.Valid() {
			res.RowsRejected++
			return
		}
		res.Events = append(res.Events, evt)
	})

	return res, nil
}

// isHolidayCell matches the bold "Holiday" label, or a cell whose whole text is the label.
func isHolidayCell(cell *goquery.Selection) bool {
	if strings.EqualFold(cleanText(cell.Find("span.bold").First().Text()), holidayLabel) {
		return true
	}
	return strings.EqualFold(cleanText(cell.Text()), holidayLabel)
}
