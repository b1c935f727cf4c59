// package services defines interface Service for interacting with the remote
// music catalog, plus the normalized value types the rest of the engine
// operates on.
package services

import (
	"context"
)

// Service defines the catalog and playlist operations a reconciliation run
// needs. The concrete implementation is Spotify; tests substitute fakes.
type Service interface {
	// GetPlaylist retrieves a full playlist snapshot, including every track,
	// walking the playlist-items pages to completion.
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	// GetPlaylists retrieves all playlists owned or followed by the
	// authenticated user.
	GetPlaylists(ctx context.Context) ([]Playlist, error)

	// GetAlbums retrieves albums by ID. Callers must respect the
	// album-batch-read ceiling; oversized batches are refused.
	GetAlbums(ctx context.Context, albumIDs []string) ([]Album, error)

	// GetTracks retrieves full track metadata by ID. Callers must respect
	// the track-batch-read ceiling; oversized batches are refused.
	GetTracks(ctx context.Context, trackIDs []string) ([]Track, error)

	// ReplacePlaylistItems destructively replaces the playlist's entire item
	// list with trackIDs.
	ReplacePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error

	// AddPlaylistItems appends trackIDs to the end of the playlist.
	AddPlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error

	// RemovePlaylistItems removes all occurrences of trackIDs from the playlist.
	RemovePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error

	// ChangePlaylistDescription updates the playlist's description text.
	ChangePlaylistDescription(ctx context.Context, playlistID, description string) error

	// FollowedArtists retrieves every artist the user follows.
	FollowedArtists(ctx context.Context) ([]Artist, error)

	// SavedTracks retrieves every track in the user's library.
	SavedTracks(ctx context.Context) ([]Track, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Playlist represents a playlist snapshot from the remote service.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Owner       string
	SnapshotID  string
	TrackCount  int
	Public      bool
	Tracks      []Track
}

// Artist represents a credited artist.
type Artist struct {
	ID   string
	Name string
}

// Track represents a music track normalized from the provider's shape.
// Artists preserve the provider's credit order; the first entry is the lead.
type Track struct {
	ID          string
	Title       string
	Artists     []Artist
	AlbumID     string
	AlbumName   string
	DurationSec int    // Duration in whole seconds
	ISRC        string // International Standard Recording Code; may be empty
}

// LeadArtist returns the first credited artist, or a zero Artist when the
// provider supplied no credits.
func (t Track) LeadArtist() Artist {
	if len(t.Artists) == 0 {
		return Artist{}
	}
	return t.Artists[0]
}

// Album represents an album with the IDs of its tracks, in disc order.
type Album struct {
	ID       string
	Name     string
	TrackIDs []string
}
