// Package stagecache persists expensive pipeline stage results to disk,
// keyed by content hash. Re-running an ingest over unchanged documents
// replays cached extractions instead of repeating model calls, and a crash
// mid-run loses at most the stage in flight.
package stagecache
