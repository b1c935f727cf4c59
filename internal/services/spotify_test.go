package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"radarsync/internal/shared"
)

// newTestService wires a SpotifyService to an httptest server with the rate
// limiter disabled so tests run at full speed.
func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := &SpotifyService{
		client:  spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/v1/")),
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	return svc, server
}

func TestSpotifyServiceBatchCeilings(t *testing.T) {
	// No server: ceiling violations must fail before any request is made.
	svc := &SpotifyService{limiter: rate.NewLimiter(rate.Inf, 0)}
	ctx := context.Background()

	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("id%d", i)
		}
		return out
	}

	tc := []struct {
		name string
		call func() error
	}{
		{"GetAlbums Over Limit", func() error {
			_, err := svc.GetAlbums(ctx, ids(21))
			return err
		}},
		{"GetTracks Over Limit", func() error {
			_, err := svc.GetTracks(ctx, ids(51))
			return err
		}},
		{"ReplacePlaylistItems Over Limit", func() error {
			return svc.ReplacePlaylistItems(ctx, "pl", ids(101))
		}},
		{"AddPlaylistItems Over Limit", func() error {
			return svc.AddPlaylistItems(ctx, "pl", ids(101))
		}},
		{"RemovePlaylistItems Over Limit", func() error {
			return svc.RemovePlaylistItems(ctx, "pl", ids(101))
		}},
		{"GetAlbums Empty", func() error {
			_, err := svc.GetAlbums(ctx, nil)
			return err
		}},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			err := c.call()
			if !errors.Is(err, shared.ErrBatchTooLarge) {
				t.Errorf("expected ErrBatchTooLarge, got %v", err)
			}
		})
	}
}

func TestSpotifyServiceGetPlaylist(t *testing.T) {
	var serverURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/ref123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"id": "ref123",
			"name": "Release Radar",
			"description": "Your weekly update",
			"public": false,
			"snapshot_id": "snap1",
			"owner": {"id": "spotify", "display_name": "Spotify"},
			"tracks": {
				"total": 3,
				"limit": 2,
				"offset": 0,
				"next": "%s/v1/playlists/ref123/tracks?offset=2",
				"items": [
					{"is_local": false, "track": {
						"id": "t1", "name": "Song One", "duration_ms": 215000,
						"artists": [{"id": "a1", "name": "Artist One"}],
						"album": {"id": "al1", "name": "Album One"},
						"external_ids": {"isrc": "USUM71900001"}
					}},
					{"is_local": true, "track": {
						"id": "", "name": "Local File", "duration_ms": 100000,
						"artists": [], "album": {}, "external_ids": {}
					}}
				]
			}
		}`, serverURL)
	})
	mux.HandleFunc("/v1/playlists/ref123/tracks", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"total": 3,
			"limit": 2,
			"offset": 2,
			"next": "",
			"items": [
				{"is_local": false, "track": {
					"id": "t2", "name": "Song Two", "duration_ms": 180500,
					"artists": [{"id": "a2", "name": "Artist Two"}, {"id": "a3", "name": "Artist Three"}],
					"album": {"id": "al2", "name": "Album Two"},
					"external_ids": {"isrc": "USUM71900002"}
				}}
			]
		}`)
	})

	svc, server := newTestService(t, mux)
	serverURL = server.URL

	playlist, err := svc.GetPlaylist(context.Background(), "ref123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if playlist.Name != "Release Radar" {
		t.Errorf("expected name 'Release Radar', got %s", playlist.Name)
	}
	if playlist.SnapshotID != "snap1" {
		t.Errorf("expected snapshot 'snap1', got %s", playlist.SnapshotID)
	}
	if playlist.TrackCount != 3 {
		t.Errorf("expected track count 3, got %d", playlist.TrackCount)
	}

	// Local file skipped; pagination followed across both pages.
	if len(playlist.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(playlist.Tracks))
	}

	first := playlist.Tracks[0]
	if first.ID != "t1" || first.ISRC != "USUM71900001" {
		t.Errorf("unexpected first track: %+v", first)
	}
	if first.DurationSec != 215 {
		t.Errorf("expected duration 215s, got %d", first.DurationSec)
	}

	second := playlist.Tracks[1]
	if second.ID != "t2" || len(second.Artists) != 2 {
		t.Errorf("unexpected second track: %+v", second)
	}
	if second.LeadArtist().Name != "Artist Two" {
		t.Errorf("expected lead artist 'Artist Two', got %s", second.LeadArtist().Name)
	}
}

func TestSpotifyServiceGetAlbums(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/albums", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "al1,al2" {
			t.Errorf("expected ids 'al1,al2', got %q", got)
		}
		fmt.Fprint(w, `{"albums": [
			{
				"id": "al1", "name": "Album One",
				"tracks": {"total": 2, "next": "", "items": [
					{"id": "t1", "name": "Song One", "duration_ms": 1000, "artists": []},
					{"id": "t2", "name": "Song Two", "duration_ms": 1000, "artists": []}
				]}
			},
			{
				"id": "al2", "name": "Album Two",
				"tracks": {"total": 1, "next": "", "items": [
					{"id": "t3", "name": "Song Three", "duration_ms": 1000, "artists": []}
				]}
			}
		]}`)
	})

	svc, _ := newTestService(t, mux)

	albums, err := svc.GetAlbums(context.Background(), []string{"al1", "al2"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(albums))
	}
	if albums[0].Name != "Album One" || len(albums[0].TrackIDs) != 2 {
		t.Errorf("unexpected first album: %+v", albums[0])
	}
	if albums[1].TrackIDs[0] != "t3" {
		t.Errorf("expected track 't3', got %s", albums[1].TrackIDs[0])
	}
}

func TestSpotifyServiceGetPlaylists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "", "0":
			fmt.Fprint(w, `{
				"total": 3, "next": "https://api.spotify.com/v1/me/playlists?offset=2",
				"items": [
					{"id": "p1", "name": "Mirror", "snapshot_id": "s1", "public": true,
					 "owner": {"display_name": "me"}, "tracks": {"total": 40}},
					{"id": "p2", "name": "Release Radar", "snapshot_id": "s2", "public": false,
					 "owner": {"display_name": "Spotify"}, "tracks": {"total": 30}}
				]
			}`)
		case "2":
			fmt.Fprint(w, `{
				"total": 3, "next": "",
				"items": [
					{"id": "p3", "name": "Archive", "snapshot_id": "s3", "public": false,
					 "owner": {"display_name": "me"}, "tracks": {"total": 812}}
				]
			}`)
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	})

	svc, _ := newTestService(t, mux)

	playlists, err := svc.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(playlists) != 3 {
		t.Fatalf("expected 3 playlists, got %d", len(playlists))
	}
	if playlists[1].Name != "Release Radar" || playlists[1].Owner != "Spotify" {
		t.Errorf("unexpected playlist: %+v", playlists[1])
	}
	if playlists[2].TrackCount != 812 {
		t.Errorf("expected track count 812, got %d", playlists[2].TrackCount)
	}
}

func TestSpotifyServiceWrites(t *testing.T) {
	var replaced, added, removed, described int

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/target/tracks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			replaced++
			w.WriteHeader(http.StatusCreated)
		case http.MethodPost:
			added++
			fmt.Fprint(w, `{"snapshot_id": "snap2"}`)
		case http.MethodDelete:
			removed++
			fmt.Fprint(w, `{"snapshot_id": "snap3"}`)
		}
	})
	mux.HandleFunc("/v1/playlists/target", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			described++
		}
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	if err := svc.ReplacePlaylistItems(ctx, "target", []string{"t1", "t2"}); err != nil {
		t.Errorf("replace: %v", err)
	}
	if err := svc.AddPlaylistItems(ctx, "target", []string{"t3"}); err != nil {
		t.Errorf("add: %v", err)
	}
	if err := svc.RemovePlaylistItems(ctx, "target", []string{"t1"}); err != nil {
		t.Errorf("remove: %v", err)
	}
	if err := svc.ChangePlaylistDescription(ctx, "target", "updated 08/29/2026"); err != nil {
		t.Errorf("describe: %v", err)
	}

	if replaced != 1 || added != 1 || removed != 1 || described != 1 {
		t.Errorf("unexpected call counts: replace=%d add=%d remove=%d describe=%d",
			replaced, added, removed, described)
	}
}

func TestTrackFromFull(t *testing.T) {
	ft := spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:       "t9",
			Name:     "Closer",
			Duration: 244960,
			Artists: []spotify.SimpleArtist{
				{ID: "a1", Name: "Nine Inch Nails"},
			},
		},
		Album:       spotify.SimpleAlbum{ID: "al9", Name: "The Downward Spiral"},
		ExternalIDs: map[string]string{"isrc": "USIR19400325"},
	}

	track := trackFromFull(ft)

	if track.ID != "t9" || track.Title != "Closer" {
		t.Errorf("unexpected track: %+v", track)
	}
	if track.DurationSec != 244 {
		t.Errorf("expected 244s, got %d", track.DurationSec)
	}
	if track.ISRC != "USIR19400325" {
		t.Errorf("expected ISRC, got %s", track.ISRC)
	}
	if track.AlbumName != "The Downward Spiral" {
		t.Errorf("expected album name, got %s", track.AlbumName)
	}
}

func TestOffsetCursor(t *testing.T) {
	tc := []struct {
		cursor string
		want   int
	}{
		{"", 0},
		{"0", 0},
		{"50", 50},
		{"1250", 1250},
	}

	for _, c := range tc {
		if got := parseOffset(c.cursor); got != c.want {
			t.Errorf("parseOffset(%q) = %d, want %d", c.cursor, got, c.want)
		}
	}

	if formatOffset(50) != "50" {
		t.Errorf("formatOffset(50) = %s", formatOffset(50))
	}
}
