// Package tasks orchestrates playlist reconciliation with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines the high-level operations:
//
//  1. [Engine.Reconcile] : Rebuild the target playlist from the reference
//     - Resolves reference and target playlists and refuses stock targets
//     - Expands reference tracks into their full albums in batched reads
//     - Filters blacklisted lead artists and deduplicates by fingerprint
//     - Replaces the target contents in capped write chunks
//     - Wipes the reference playlist once the target is written
//
//  2. [Engine.Diff] : Compare two playlists by fingerprint
//     - Classifies both playlists into fingerprint collections
//     - Reports matched identities, missing tracks, and extra tracks
//
// # Progress Reporting
//
// All operations accept an optional progress channel. The [ProgressUpdate]
// struct carries the current [Phase], step counters, and a message. Sends use
// select with default so a slow consumer never stalls a run.
//
// # Failure Attribution
//
// Errors surface as [PhaseError] values naming the phase that failed, so
// callers can tell a resolution failure from a half-completed write.
//
// # Implementation
//
// [Reconciler] implements [Engine] with dependencies on:
//   - [services.Service] : the Spotify Web API client
//   - [blacklist.Store] : the artist exclusion list
package tasks
