// Package partition splits an inclusive date range into fixed-width day chunks.
//
// The calendar endpoint truncates responses at an undocumented row cap that does
// not depend on the requested span, and it offers no reliable cursor. Requesting
// one day at a time keeps each response under the cap for the filters in use. That
// is an assumption about the site, not a guarantee: no response field reports
// truncation, so callers compare each chunk's row count against a cap hint and log
// chunks that come close to it.
package partition
