package registry

import (
	"strings"
	"time"
)

// DefaultTimezoneID is the site's id for UTC.
const DefaultTimezoneID = 55

// Country is one entry of the site's country filter.
type Country struct {
	ID       int      `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Currency string   `json:"currency" yaml:"currency"`
	Aliases  []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Timezone is one entry of the site's timezone selector.
type Timezone struct {
	ID     int           `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Offset time.Duration `json:"offset" yaml:"offset"`
}

// Category is one entry of the site's event category filter.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

var countries = []Country{
	{ID: 5, Name: "United States", Currency: "USD", Aliases: []string{"US", "USA", "United States of America"}},
	{ID: 72, Name: "Euro Zone", Currency: "EUR", Aliases: []string{"Eurozone", "Euro Area", "EZ"}},
	{ID: 4, Name: "United Kingdom", Currency: "GBP", Aliases: []string{"UK", "Great Britain"}},
	{ID: 35, Name: "Japan", Currency: "JPY"},
	{ID: 17, Name: "Germany", Currency: "EUR"},
	{ID: 22, Name: "France", Currency: "EUR"},
	{ID: 10, Name: "Italy", Currency: "EUR"},
	{ID: 26, Name: "Spain", Currency: "EUR"},
	{ID: 37, Name: "China", Currency: "CNY"},
	{ID: 6, Name: "Canada", Currency: "CAD"},
	{ID: 25, Name: "Australia", Currency: "AUD"},
	{ID: 43, Name: "New Zealand", Currency: "NZD"},
	{ID: 12, Name: "Switzerland", Currency: "CHF"},
	{ID: 32, Name: "Brazil", Currency: "BRL"},
	{ID: 14, Name: "India", Currency: "INR"},
	{ID: 11, Name: "South Korea", Currency: "KRW", Aliases: []string{"Korea"}},
	{ID: 9, Name: "Sweden", Currency: "SEK"},
	{ID: 60, Name: "Norway", Currency: "NOK"},
	{ID: 24, Name: "Denmark", Currency: "DKK"},
	{ID: 56, Name: "Russia", Currency: "RUB"},
	{ID: 110, Name: "South Africa", Currency: "ZAR"},
	{ID: 7, Name: "Mexico", Currency: "MXN"},
	{ID: 39, Name: "Hong Kong", Currency: "HKD"},
	{ID: 36, Name: "Singapore", Currency: "SGD"},
	{ID: 63, Name: "Turkey", Currency: "TRY"},
	{ID: 53, Name: "Poland", Currency: "PLN"},
	{ID: 21, Name: "Netherlands", Currency: "EUR"},
	{ID: 34, Name: "Belgium", Currency: "EUR"},
	{ID: 54, Name: "Austria", Currency: "EUR"},
	{ID: 33, Name: "Ireland", Currency: "EUR"},
	{ID: 38, Name: "Portugal", Currency: "EUR"},
	{ID: 51, Name: "Greece", Currency: "EUR"},
	{ID: 71, Name: "Finland", Currency: "EUR"},
	{ID: 55, Name: "Czech Republic", Currency: "CZK"},
	{ID: 93, Name: "Hungary", Currency: "HUF"},
	{ID: 23, Name: "Israel", Currency: "ILS"},
	{ID: 52, Name: "Saudi Arabia", Currency: "SAR"},
	{ID: 143, Name: "United Arab Emirates", Currency: "AED", Aliases: []string{"UAE"}},
	{ID: 48, Name: "Indonesia", Currency: "IDR"},
	{ID: 42, Name: "Malaysia", Currency: "MYR"},
	{ID: 45, Name: "Philippines", Currency: "PHP"},
	{ID: 41, Name: "Thailand", Currency: "THB"},
	{ID: 46, Name: "Taiwan", Currency: "TWD"},
	{ID: 29, Name: "Argentina", Currency: "ARS"},
	{ID: 27, Name: "Chile", Currency: "CLP"},
	{ID: 122, Name: "Colombia", Currency: "COP"},
	{ID: 125, Name: "Peru", Currency: "PEN"},
}

var timezones = []Timezone{
	{ID: 2, Name: "GMT -11:00", Offset: -11 * time.Hour},
	{ID: 3, Name: "GMT -10:00", Offset: -10 * time.Hour},
	{ID: 4, Name: "GMT -9:00", Offset: -9 * time.Hour},
	{ID: 5, Name: "GMT -8:00", Offset: -8 * time.Hour},
	{ID: 6, Name: "GMT -7:00", Offset: -7 * time.Hour},
	{ID: 7, Name: "GMT -6:00", Offset: -6 * time.Hour},
	{ID: 8, Name: "GMT -5:00", Offset: -5 * time.Hour},
	{ID: 10, Name: "GMT -4:00", Offset: -4 * time.Hour},
	{ID: 11, Name: "GMT -3:30", Offset: -3*time.Hour - 30*time.Minute},
	{ID: 12, Name: "GMT -3:00", Offset: -3 * time.Hour},
	{ID: 13, Name: "GMT -2:00", Offset: -2 * time.Hour},
	{ID: 14, Name: "GMT -1:00", Offset: -1 * time.Hour},
	{ID: 15, Name: "GMT", Offset: 0},
	{ID: 55, Name: "UTC", Offset: 0},
	{ID: 58, Name: "GMT +1:00", Offset: time.Hour},
	{ID: 17, Name: "GMT +2:00", Offset: 2 * time.Hour},
	{ID: 18, Name: "GMT +3:00", Offset: 3 * time.Hour},
	{ID: 19, Name: "GMT +3:30", Offset: 3*time.Hour + 30*time.Minute},
	{ID: 20, Name: "GMT +4:00", Offset: 4 * time.Hour},
	{ID: 21, Name: "GMT +4:30", Offset: 4*time.Hour + 30*time.Minute},
	{ID: 22, Name: "GMT +5:00", Offset: 5 * time.Hour},
	{ID: 23, Name: "GMT +5:30", Offset: 5*time.Hour + 30*time.Minute},
	{ID: 24, Name: "GMT +6:00", Offset: 6 * time.Hour},
	{ID: 25, Name: "GMT +7:00", Offset: 7 * time.Hour},
	{ID: 27, Name: "GMT +8:00", Offset: 8 * time.Hour},
	{ID: 28, Name: "GMT +9:00", Offset: 9 * time.Hour},
	{ID: 29, Name: "GMT +9:30", Offset: 9*time.Hour + 30*time.Minute},
	{ID: 30, Name: "GMT +10:00", Offset: 10 * time.Hour},
	{ID: 31, Name: "GMT +11:00", Offset: 11 * time.Hour},
	{ID: 32, Name: "GMT +12:00", Offset: 12 * time.Hour},
}

var categories = []Category{
	{ID: "_employment", Name: "Employment"},
	{ID: "_economicActivity", Name: "Economic Activity"},
	{ID: "_inflation", Name: "Inflation"},
	{ID: "_credit", Name: "Credit"},
	{ID: "_centralBanks", Name: "Central Banks"},
	{ID: "_confidenceIndex", Name: "Confidence Index"},
	{ID: "_balance", Name: "Balance"},
	{ID: "_Bonds", Name: "Bonds"},
}

var (
	countryByID    = make(map[int]Country, len(countries))
	countryByName  = make(map[string]int, len(countries)*2)
	timezoneByID   = make(map[int]Timezone, len(timezones))
	timezoneByName = make(map[string]int, len(timezones))
	categoryByID   = make(map[string]Category, len(categories))
)

func init() {
	for _, c := range countries {
		countryByID[c.ID] = c
		countryByName[normalize(c.Name)] = c.ID
		for _, alias := range c.Aliases {
			countryByName[normalize(alias)] = c.ID
		}
	}
	for _, tz := range timezones {
		timezoneByID[tz.ID] = tz
		timezoneByName[normalize(tz.Name)] = tz.ID
	}
	for _, cat := range categories {
		categoryByID[cat.ID] = cat
	}
}

// normalize lowercases and collapses internal whitespace so lookups
// tolerate the spacing differences seen in flag titles.
func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CountryName returns the canonical name for a site country id.
func CountryName(id int) (string, bool) {
	c, ok := countryByID[id]
	return c.Name, ok
}

// CountryCode returns the site id for a country name or alias (case-insensitive).
func CountryCode(name string) (int, bool) {
	id, ok := countryByName[normalize(name)]
	return id, ok
}

// Currency returns the 3-letter currency code for a site country id.
func Currency(id int) (string, bool) {
	c, ok := countryByID[id]
	if !ok || c.Currency == "" {
		return "", false
	}
	return c.Currency, true
}

// TimezoneName returns the display name for a site timezone id.
func TimezoneName(id int) (string, bool) {
	tz, ok := timezoneByID[id]
	return tz.Name, ok
}

// TimezoneID returns the site id for a timezone display name.
func TimezoneID(name string) (int, bool) {
	id, ok := timezoneByName[normalize(name)]
	return id, ok
}

// TimezoneOffset returns the fixed UTC offset the site applies for a timezone id.
func TimezoneOffset(id int) (time.Duration, bool) {
	tz, ok := timezoneByID[id]
	return tz.Offset, ok
}

// CategoryName returns the display name for a site category id.
func CategoryName(id string) (string, bool) {
	cat, ok := categoryByID[id]
	return cat.Name, ok
}

// AllCountryCodes returns every known country id in registry order.
func AllCountryCodes() []int {
	ids := make([]int, 0, len(countries))
	for _, c := range countries {
		ids = append(ids, c.ID)
	}
	return ids
}

// AllCategories returns every known category id in registry order.
func AllCategories() []string {
	ids := make([]string, 0, len(categories))
	for _, cat := range categories {
		ids = append(ids, cat.ID)
	}
	return ids
}

// Countries returns a copy of the country table.
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// Timezones returns a copy of the timezone table.
func Timezones() []Timezone {
	out := make([]Timezone, len(timezones))
	copy(out, timezones)
	return out
}

// Categories returns a copy of the category table.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
