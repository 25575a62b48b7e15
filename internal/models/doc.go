// Package models defines the data model for the playlist scanner.
//
// The package contains three groups of types:
//
// 1. Pipeline values, produced by one stage and handed by value to the next
//   - [PlaylistEntry] : one directive + URL pair from a playlist
//   - [ClassificationResult] : content type, confidence and [Metadata] for an entry
//   - [Candidate] and [Details] : answers from external metadata providers
//
// 2. Scan bookkeeping
//   - [ScanLog] : the audit record of one scan, with its running -> completed | failed state machine
//   - [ScanLogPatch] : the mutable subset written back to storage
//
// 3. Persisted content
//   - [MovieRecord], [SeriesRecord], [ChannelRecord] : rows written once per processed entry
//
// Content kinds are modelled by [ContentType], an enumeration every consumer switches over exhaustively.
package models
