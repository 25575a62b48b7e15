// Package tasks runs playlist scans with real-time progress reporting.
//
// # Scan Lifecycle
//
// [ScanEngine.RunScan] drives one source through the pipeline:
//
//  1. Creates a [models.ScanLog] in the running state
//  2. Fetches the playlist text through a [services.Fetcher] and parses it
//  3. Records the entry count, then fans entries out to a bounded worker pool
//  4. Each worker classifies, enriches and persists one entry
//  5. Marks the log completed, or failed when the source or the store is unusable
//
// Entry-level failures never stop a scan. They are recorded once per entry in
// [models.ScanLog.Errors] while ProcessedEntries counts every attempted entry.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
