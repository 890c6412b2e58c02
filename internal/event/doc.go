// Package event provides the economic calendar event model.
//
// The event package defines the Event record produced by the extractors, the impact
// derivation rule, the site's date-time parsing, the per-run merge set that removes
// duplicate rows across overlapping fetches, and snapshot diffing between runs. Events
// are keyed by the site's row id; rows without one get a deterministic SHA1 fingerprint
// for snapshot purposes only.
package event
