// Package scraper fetches and parses economic calendar fragments from investing.com.
//
// The Fetcher posts one filtered query per date chunk to the calendar's service
// endpoint and returns the HTML fragment found under the JSON "data" key. Failures are
// returned as *FetchError values classified as timeout, blocked, malformed or other, so
// callers can decide whether to retry or refresh the session.
//
// Extract parses the event rows of a fragment into event.Event records. ExtractHolidays
// walks the same fragment row by row to pick up holiday rows and day headers that do
// not follow the event row layout.
package scraper
