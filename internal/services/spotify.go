// Spotify API implementation of [Service]
//
// Built on zmb3/spotify; all calls go through a shared rate limiter so bulk
// album reads and chunked writes stay inside the API's request budget.
package services

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"radarsync/internal/batch"
	"radarsync/internal/paginator"
	"radarsync/internal/shared"
)

// defaultRateLimit is requests per second against the Spotify Web API.
const defaultRateLimit = 5.0

// SpotifyService implements [Service] against the Spotify Web API.
type SpotifyService struct {
	client  *spotify.Client
	limiter *rate.Limiter
}

// NewSpotifyService creates a Spotify-backed Service from an authenticated
// client (see internal/server for the OAuth flow that produces one).
func NewSpotifyService(client *spotify.Client) *SpotifyService {
	return &SpotifyService{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// wait blocks until the rate limiter admits one more API call.
func (s *SpotifyService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// GetPlaylist retrieves a full playlist snapshot including every track.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	fp, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("%w: get playlist %s: %v", shared.ErrPlaylistNotFound, playlistID, err)
	}

	playlist := &Playlist{
		ID:          string(fp.ID),
		Name:        fp.Name,
		Description: fp.Description,
		Owner:       fp.Owner.DisplayName,
		SnapshotID:  fp.SnapshotID,
		TrackCount:  int(fp.Tracks.Total),
		Public:      fp.IsPublic,
	}

	page := fp.Tracks
	for {
		for _, item := range page.Tracks {
			if item.Track.ID == "" || item.IsLocal {
				continue
			}
			playlist.Tracks = append(playlist.Tracks, trackFromFull(item.Track))
		}

		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		err = s.client.NextPage(ctx, &page)
		if err == spotify.ErrNoMorePages {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: playlist %s item pagination: %v", shared.ErrAPIRequest, playlistID, err)
		}
	}

	return playlist, nil
}

// GetPlaylists retrieves the current user's playlists, walking the paged
// listing to completion.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	limit := batch.Limit(batch.UserPagedListing)

	fetch := func(ctx context.Context, cursor string) ([]Playlist, string, error) {
		offset := parseOffset(cursor)
		if err := s.wait(ctx); err != nil {
			return nil, "", err
		}

		page, err := s.client.CurrentUsersPlaylists(ctx, spotify.Limit(limit), spotify.Offset(offset))
		if err != nil {
			return nil, "", fmt.Errorf("%w: list playlists: %v", shared.ErrAPIRequest, err)
		}

		playlists := make([]Playlist, 0, len(page.Playlists))
		for _, sp := range page.Playlists {
			playlists = append(playlists, Playlist{
				ID:         string(sp.ID),
				Name:       sp.Name,
				Owner:      sp.Owner.DisplayName,
				SnapshotID: sp.SnapshotID,
				TrackCount: int(sp.Tracks.Total),
				Public:     sp.IsPublic,
			})
		}

		next := ""
		if page.Next != "" {
			next = formatOffset(offset + len(page.Playlists))
		}
		return playlists, next, nil
	}

	return paginator.Collect(ctx, fetch)
}

// GetAlbums retrieves albums by ID, refusing batches over the album read limit.
func (s *SpotifyService) GetAlbums(ctx context.Context, albumIDs []string) ([]Album, error) {
	if !batch.IsValid(batch.AlbumBatchRead, len(albumIDs)) {
		return nil, fmt.Errorf("%w: %d album IDs (limit %d)",
			shared.ErrBatchTooLarge, len(albumIDs), batch.Limit(batch.AlbumBatchRead))
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	fullAlbums, err := s.client.GetAlbums(ctx, toSpotifyIDs(albumIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: get albums: %v", shared.ErrAPIRequest, err)
	}

	albums := make([]Album, 0, len(fullAlbums))
	for _, fa := range fullAlbums {
		if fa == nil {
			continue
		}

		album := Album{ID: string(fa.ID), Name: fa.Name}
		page := fa.Tracks
		for {
			for _, st := range page.Tracks {
				album.TrackIDs = append(album.TrackIDs, string(st.ID))
			}

			if err := s.wait(ctx); err != nil {
				return nil, err
			}
			err = s.client.NextPage(ctx, &page)
			if err == spotify.ErrNoMorePages {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%w: album %s track pagination: %v", shared.ErrAPIRequest, fa.ID, err)
			}
		}

		albums = append(albums, album)
	}

	return albums, nil
}

// GetTracks retrieves full track metadata, refusing batches over the track read limit.
func (s *SpotifyService) GetTracks(ctx context.Context, trackIDs []string) ([]Track, error) {
	if !batch.IsValid(batch.TrackBatchRead, len(trackIDs)) {
		return nil, fmt.Errorf("%w: %d track IDs (limit %d)",
			shared.ErrBatchTooLarge, len(trackIDs), batch.Limit(batch.TrackBatchRead))
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	fullTracks, err := s.client.GetTracks(ctx, toSpotifyIDs(trackIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: get tracks: %v", shared.ErrAPIRequest, err)
	}

	tracks := make([]Track, 0, len(fullTracks))
	for _, ft := range fullTracks {
		if ft == nil {
			continue
		}
		tracks = append(tracks, trackFromFull(*ft))
	}

	return tracks, nil
}

// ReplacePlaylistItems destructively replaces the playlist's item list.
func (s *SpotifyService) ReplacePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if !batch.IsValid(batch.PlaylistItemWrite, len(trackIDs)) {
		return fmt.Errorf("%w: %d track IDs (limit %d)",
			shared.ErrBatchTooLarge, len(trackIDs), batch.Limit(batch.PlaylistItemWrite))
	}

	if err := s.wait(ctx); err != nil {
		return err
	}

	if err := s.client.ReplacePlaylistTracks(ctx, spotify.ID(playlistID), toSpotifyIDs(trackIDs)...); err != nil {
		return fmt.Errorf("%w: replace items in %s: %v", shared.ErrAPIRequest, playlistID, err)
	}
	return nil
}

// AddPlaylistItems appends tracks to the end of the playlist.
func (s *SpotifyService) AddPlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if !batch.IsValid(batch.PlaylistItemWrite, len(trackIDs)) {
		return fmt.Errorf("%w: %d track IDs (limit %d)",
			shared.ErrBatchTooLarge, len(trackIDs), batch.Limit(batch.PlaylistItemWrite))
	}

	if err := s.wait(ctx); err != nil {
		return err
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(trackIDs)...); err != nil {
		return fmt.Errorf("%w: add items to %s: %v", shared.ErrAPIRequest, playlistID, err)
	}
	return nil
}

// RemovePlaylistItems removes all occurrences of the given tracks.
func (s *SpotifyService) RemovePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if !batch.IsValid(batch.PlaylistItemRemove, len(trackIDs)) {
		return fmt.Errorf("%w: %d track IDs (limit %d)",
			shared.ErrBatchTooLarge, len(trackIDs), batch.Limit(batch.PlaylistItemRemove))
	}

	if err := s.wait(ctx); err != nil {
		return err
	}

	if _, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(trackIDs)...); err != nil {
		return fmt.Errorf("%w: remove items from %s: %v", shared.ErrAPIRequest, playlistID, err)
	}
	return nil
}

// ChangePlaylistDescription updates the playlist's description text.
func (s *SpotifyService) ChangePlaylistDescription(ctx context.Context, playlistID, description string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	if err := s.client.ChangePlaylistDescription(ctx, spotify.ID(playlistID), description); err != nil {
		return fmt.Errorf("%w: change description of %s: %v", shared.ErrAPIRequest, playlistID, err)
	}
	return nil
}

// FollowedArtists retrieves every artist the user follows via the cursor-based
// listing.
func (s *SpotifyService) FollowedArtists(ctx context.Context) ([]Artist, error) {
	limit := batch.Limit(batch.UserPagedListing)

	fetch := func(ctx context.Context, cursor string) ([]Artist, string, error) {
		opts := []spotify.RequestOption{spotify.Limit(limit)}
		if cursor != "" {
			opts = append(opts, spotify.After(cursor))
		}

		if err := s.wait(ctx); err != nil {
			return nil, "", err
		}

		page, err := s.client.CurrentUsersFollowedArtists(ctx, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("%w: list followed artists: %v", shared.ErrAPIRequest, err)
		}

		artists := make([]Artist, 0, len(page.Artists))
		for _, fa := range page.Artists {
			artists = append(artists, Artist{ID: string(fa.ID), Name: fa.Name})
		}

		return artists, page.Cursor.After, nil
	}

	return paginator.Collect(ctx, fetch)
}

// SavedTracks retrieves every track in the user's library.
func (s *SpotifyService) SavedTracks(ctx context.Context) ([]Track, error) {
	limit := batch.Limit(batch.UserPagedListing)

	fetch := func(ctx context.Context, cursor string) ([]Track, string, error) {
		offset := parseOffset(cursor)
		if err := s.wait(ctx); err != nil {
			return nil, "", err
		}

		page, err := s.client.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
		if err != nil {
			return nil, "", fmt.Errorf("%w: list saved tracks: %v", shared.ErrAPIRequest, err)
		}

		tracks := make([]Track, 0, len(page.Tracks))
		for _, st := range page.Tracks {
			tracks = append(tracks, trackFromFull(st.FullTrack))
		}

		next := ""
		if page.Next != "" {
			next = formatOffset(offset + len(page.Tracks))
		}
		return tracks, next, nil
	}

	return paginator.Collect(ctx, fetch)
}

// trackFromFull normalizes a Spotify track into the engine's Track shape.
func trackFromFull(ft spotify.FullTrack) Track {
	artists := make([]Artist, 0, len(ft.Artists))
	for _, a := range ft.Artists {
		artists = append(artists, Artist{ID: string(a.ID), Name: a.Name})
	}

	return Track{
		ID:          string(ft.ID),
		Title:       ft.Name,
		Artists:     artists,
		AlbumID:     string(ft.Album.ID),
		AlbumName:   ft.Album.Name,
		DurationSec: int(ft.Duration) / 1000,
		ISRC:        ft.ExternalIDs["isrc"],
	}
}

func toSpotifyIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func parseOffset(cursor string) int {
	offset := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &offset)
	}
	return offset
}

func formatOffset(offset int) string {
	return fmt.Sprintf("%d", offset)
}
