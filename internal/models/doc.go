// Package models defines persisted entities and persistence interfaces for
// reconciliation run history.
//
//   - [Run] : one archived reconciliation run with per-phase counts and outcome
//   - [TrackRecord] : one track written to the target playlist by a run
//
// Both entities implement the [Model] interface providing ID handling,
// timestamps, validation, and soft delete support. The [Repository] interface
// defines the standard CRUD operations their sqlite-backed repositories
// implement.
package models
