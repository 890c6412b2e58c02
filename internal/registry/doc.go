// Package registry holds the static lookup tables for the calendar site's filter codes.
//
// The site identifies countries, timezones and event categories by opaque ids in its
// query form. The registry maps them to canonical names in both directions, and maps
// each country to the 3-letter currency code shown next to its flag.
package registry
