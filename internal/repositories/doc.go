// Package repositories implements SQLite persistence for scans and classified content.
//
// Key Implementations:
//   - [ScanLogRepository] : scan audit records, errors stored as a JSON array
//   - [MovieRepository], [SeriesRepository], [ChannelRepository] : one row per classified entry
//   - [CacheRepository] : a [cache.Cache] backed by the cache_entries table
//   - [Store] : the persistence collaborator consumed by the scan engine; every failure
//     it returns is a [shared.PersistenceError]
//
// Rows are keyed by UUIDs from [shared.GenerateID] and ordered by their timestamps.
package repositories
