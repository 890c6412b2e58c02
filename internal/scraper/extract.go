package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

const eventRowPrefix = "eventRowId_"

var currencyPattern = regexp.MustCompile(`\b([A-Z]{3})\b`)

// ExtractResult is the outcome of parsing one fragment.
type ExtractResult struct {
	Events       []*event.Event
	RowsSeen     int
	RowsRejected int
}

// Extract parses every event row of a calendar fragment.
// Rows without an event name are counted as rejected and skipped.
func Extract(fragment string) (ExtractResult, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return ExtractResult{}, err
	}

	res := ExtractResult{Events: make([]*event.Event, 0)}
	doc.Find("tr[id^='" + eventRowPrefix + "']").Each(func(_ int, row *goquery.Selection) {
		res.RowsSeen++
		evt := extractRow(row)
		if !evt.Valid() {
			res.RowsRejected++
			return
		}
		res.Events = append(res.Events, evt)
	})

	return res, nil
}

func extractRow(row *goquery.Selection) *event.Event {
	evt := &event.Event{
		EventID:     rowID(row),
		RawDateTime: strings.TrimSpace(row.AttrOr("data-event-datetime", "")),
		Time:        cleanText(row.Find("td.time").First().Text()),
		Actual:      cleanText(row.Find("td[id^='eventActual_']").First().Text()),
		Forecast:    cleanText(row.Find("td[id^='eventForecast_']").First().Text()),
		Previous:    cleanText(row.Find("td[id^='eventPrevious_']").First().Text()),
	}

	flag := row.Find("td.flagCur").First()
	evt.Country = cleanText(flag.Find("span[title]").First().AttrOr("title", ""))
	evt.CountryCode = currencyCode(flag.Text())

	cell := row.Find("td.event").First()
	if link := cell.Find("a").First(); link.Length() > 0 {
		evt.EventName = cleanText(link.Text())
		evt.EventDetailURL = absoluteURL(link.AttrOr("href", ""))
	} else {
		evt.EventName = cleanText(cell.Text())
	}

	evt.ParsedDateTime, evt.Day = event.ParseDateTime(evt.RawDateTime)

	sentiment := row.Find("td.sentiment").First()
	icons := sentiment.Find("i.grayFullBullishIcon").Length()
	evt.Impact = event.DeriveImpact(icons, evt.EventName)
	if strings.Contains(strings.ToLower(cleanText(sentiment.Text())), "holiday") {
		evt.Impact = event.ImpactHoliday
	}

	return evt
}

// parseFragment parses markup that may be bare table rows. The HTML parser drops
// <tr> and <td> outside a table, so such fragments are wrapped first.
func parseFragment(fragment string) (*goquery.Document, error) {
	if !strings.Contains(strings.ToLower(fragment), "<table") {
		fragment = "<table><tbody>" + fragment + "</tbody></table>"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

func rowID(row *goquery.Selection) string {
	id := strings.TrimSpace(row.AttrOr("id", ""))
	return strings.TrimPrefix(id, eventRowPrefix)
}

// cleanText trims the cell text, turning non-breaking spaces and &nbsp; placeholders
// into plain spaces and collapsing runs of whitespace.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.Join(strings.Fields(s), " ")
}

func currencyCode(s string) string {
	if m := currencyPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return SiteURL + href
	}
	return href
}
