package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/econ-calendar/internal/event"
)

const monthPattern = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*` + monthPattern + `\s+(\d{1,2})$`)
	singleMonth     = regexp.MustCompile(`(?i)^` + monthPattern + `$`)
	singleDay       = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})$`)
)

// ParseImpacts parses a comma-separated list such as "high,medium".
func ParseImpacts(input string) ([]event.Impact, error) {
	var impacts []event.Impact
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		imp, err := event.ParseImpact(part)
		if err != nil {
			return nil, err
		}
		impacts = append(impacts, imp)
	}
	return impacts, nil
}

// ParseDateRange parses a date range string relative to the current date.
// See ParseDateRangeAt.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	return ParseDateRangeAt(input, time.Now())
}

// ParseDateRangeAt parses a date range string into start and end times.
//
// Supported formats:
//   - "Dec 2-20" or "December 2-20" - Same month, different days
//   - "Dec 29 - Jan 5" - Different months
//   - "Dec 2" - Single day
//   - "December" - Entire month
//
// A month earlier than now's month is taken to be next year. For cross-month
// ranges, an end month before the start month is also next year.
// Start time is at 00:00:00 UTC, end time is at 23:59:59 UTC.
func ParseDateRangeAt(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := sameMonthRange.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[3])
		if err != nil {
			return nil, nil, err
		}

		year := yearForMonth(month, now)
		return span(year, month, day1, year, month, day2)
	}

	if m := crossMonthRange.FindStringSubmatch(input); m != nil {
		month1, month2 := parseMonth(m[1]), parseMonth(m[3])
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[4])
		if err != nil {
			return nil, nil, err
		}

		year1 := yearForMonth(month1, now)
		year2 := year1
		if month2 < month1 {
			year2++
		}
		return span(year1, month1, day1, year2, month2, day2)
	}

	if m := singleDay.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		day, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		year := yearForMonth(month, now)
		return span(year, month, day, year, month, day)
	}

	if m := singleMonth.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		year := yearForMonth(month, now)
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Last day of month
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use 'Dec 2-20', 'Dec 29 - Jan 5', 'Dec 2', or 'December'")
}

func span(y1 int, m1 time.Month, d1 int, y2 int, m2 time.Month, d2 int) (*time.Time, *time.Time, error) {
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 23, 59, 59, 0, time.UTC)
	if from.Day() != d1 || to.Day() != d2 {
		return nil, nil, fmt.Errorf("invalid day for month")
	}
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day: %s", s)
	}
	return day, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}

// yearForMonth returns now's year, or the next one if month has already passed.
func yearForMonth(month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() {
		year++
	}
	return year
}
