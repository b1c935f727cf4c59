// Package services defines the [Service] interface for music streaming providers and implements it for Spotify.
//
// # Service Interface
//
// All provider operations the reconciliation engine needs live behind a common
// abstraction: playlist snapshots, batched album and track reads, chunked
// playlist writes, and the user's paged listings (playlists, followed artists,
// saved tracks).
//
// # Spotify Implementation
//
// [SpotifyService] wraps a zmb3/spotify client built from an OAuth2
// http.Client; the underlying client refreshes expired tokens automatically
// using the refresh token.
//
// Batched reads and writes are validated against the per-operation ceilings in
// [radarsync/internal/batch] before any request leaves the process, and every
// remote call passes through a shared rate limiter.
package services
