// Package pipeline runs a calendar retrieval end to end.
//
// An Orchestrator acquires session cookies, splits the requested range into
// chunks, fetches each chunk with bounded retries, extracts events (falling
// back to the holiday extractor when configured) and merges them into one
// deduplicated result. Chunks are processed strictly one after another with a
// randomised pause between requests.
//
// Only a session failure fails a run. A chunk that still fails after its retries
// is logged, counted and skipped, and the Report says which chunks are missing.
package pipeline
