// Package cli implements the command-line interface for econ-calendar.
//
// The cli package provides the Cobra-based CLI: the scrape command retrieves a
// date range from the economic calendar, optionally reports only events not seen
// in the previous snapshot, and writes text, JSON, YAML, CSV or iCalendar output.
// The countries, timezones and categories commands list the ids accepted by the
// site, and show prints one event from the stored snapshot.
// It wires configuration, logging, tracing and metrics around the pipeline package.
package cli
