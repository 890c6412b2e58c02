package event

import (
	"fmt"
	"strings"
)

// Impact is the expected market impact of an event.
type Impact string

const (
	ImpactLow     Impact = "Low"
	ImpactMedium  Impact = "Medium"
	ImpactHigh    Impact = "High"
	ImpactHoliday Impact = "Holiday"
)

// holidayKeywords force ImpactHoliday when found in an event name.
var holidayKeywords = []string{
	"holiday",
	"christmas",
	"new year",
	"thanksgiving",
	"easter",
	"independence day",
}

// DeriveImpact maps the number of filled sentiment icons to an Impact.
// A holiday keyword in the name wins over any icon count.
func DeriveImpact(icons int, name string) Impact {
	if IsHolidayName(name) {
		return ImpactHoliday
	}
	switch {
	case icons >= 3:
		return ImpactHigh
	case icons == 2:
		return ImpactMedium
	case icons == 1:
		return ImpactLow
	default:
		return ImpactMedium
	}
}

// IsHolidayName reports whether name contains a holiday keyword (case-insensitive).
func IsHolidayName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range holidayKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Rank orders impacts for sorting: Holiday < Low < Medium < High.
func (i Impact) Rank() int {
	switch i {
	case ImpactLow:
		return 1
	case ImpactMedium:
		return 2
	case ImpactHigh:
		return 3
	default:
		return 0
	}
}

// ParseImpact parses an impact name case-insensitively.
func ParseImpact(s string) (Impact, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ImpactLow, nil
	case "medium":
		return ImpactMedium, nil
	case "high":
		return ImpactHigh, nil
	case "holiday":
		return ImpactHoliday, nil
	default:
		return "", fmt.Errorf("unknown impact: %q", s)
	}
}
