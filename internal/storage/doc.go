// Package storage provides JSON-based persistence for calendar snapshots.
//
// A snapshot holds the events returned by the last run for a scope, keyed by
// event key, so the next run can report only events it has not seen before.
// Snapshots are stored as snapshot.json for the default scope and
// snapshot_SCOPE.json otherwise. The CLI default location is ~/.local/share/econ-calendar/.
package storage
