// Package session acquires and caches the calendar site's session cookies.
//
// The site only answers its calendar query endpoint for requests that carry cookies
// set by a real browser visit. Acquiring them means launching a headless browser,
// which is slow, so the Provider keeps one cookie set for a validity window, collapses
// concurrent refreshes into a single browser launch, and drops the set as soon as a
// request is rejected as blocked.
package session
