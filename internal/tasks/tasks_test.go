package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"radarsync/internal/blacklist"
	"radarsync/internal/services"
	"radarsync/internal/shared"
	th "radarsync/internal/testing"
)

func testTrack(id, title, isrc string, dur int, albumID string, artists ...string) services.Track {
	credits := make([]services.Artist, 0, len(artists))
	for _, name := range artists {
		credits = append(credits, services.Artist{ID: "artist-" + name, Name: name})
	}
	return services.Track{
		ID:          id,
		Title:       title,
		Artists:     credits,
		AlbumID:     albumID,
		DurationSec: dur,
		ISRC:        isrc,
	}
}

// fixtureService builds a mock around the standard scenario: the reference
// holds one track from album X (Artist A) and one from album Y (Artist B).
// Album X carries three tracks, two of which are the same recording; album Y
// carries two tracks by Artist B.
func fixtureService() *th.MockService {
	mock := th.NewMockService()

	r1 := testTrack("r1", "Lead Single", "ISRCX1", 200, "albumX", "Artist A")
	r2 := testTrack("r2", "Other Single", "ISRCY1", 180, "albumY", "Artist B")

	mock.Playlists["ref"] = &services.Playlist{
		ID: "ref", Name: "Release Radar", TrackCount: 2,
		Tracks: []services.Track{r1, r2},
	}
	mock.Playlists["target"] = &services.Playlist{
		ID: "target", Name: "Release Radar Full", TrackCount: 0,
	}

	mock.Albums["albumX"] = services.Album{ID: "albumX", Name: "Album X", TrackIDs: []string{"x1", "x2", "x3"}}
	mock.Albums["albumY"] = services.Album{ID: "albumY", Name: "Album Y", TrackIDs: []string{"y1", "y2"}}

	mock.Tracks["x1"] = testTrack("x1", "Lead Single", "ISRCX1", 200, "albumX", "Artist A")
	mock.Tracks["x2"] = testTrack("x2", "Album Cut", "ISRCX2", 240, "albumX", "Artist A")
	// Same recording as x2 under a different track ID.
	mock.Tracks["x3"] = testTrack("x3", "Album Cut - Remastered", "ISRCX2", 240, "albumX", "Artist A")
	mock.Tracks["y1"] = testTrack("y1", "Other Single", "ISRCY1", 180, "albumY", "Artist B")
	mock.Tracks["y2"] = testTrack("y2", "B Side", "ISRCY2", 150, "albumY", "Artist B")

	return mock
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 11, 7, 9, 30, 0, 0, time.UTC)
	}
}

func newTestReconciler(mock *th.MockService, store blacklist.Store) *Reconciler {
	r := NewReconciler(mock, store, "stock")
	r.now = fixedClock()
	return r
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("Argument Guards", func(t *testing.T) {
		r := newTestReconciler(fixtureService(), blacklist.NewMemStore())

		_, err := r.Reconcile(ctx, ReconcileRequest{TargetID: "target"}, nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		_, err = r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref"}, nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Nil Service", func(t *testing.T) {
		r := &Reconciler{now: time.Now}
		_, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Stock Target Refused Before Any Write", func(t *testing.T) {
		mock := fixtureService()
		mock.Playlists["stock"] = &services.Playlist{ID: "stock", Name: "Release Radar"}
		r := newTestReconciler(mock, blacklist.NewMemStore())

		_, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "stock"}, nil)
		if !errors.Is(err, shared.ErrStockTarget) {
			t.Fatalf("expected ErrStockTarget, got %v", err)
		}

		var pErr *PhaseError
		if !errors.As(err, &pErr) || pErr.Phase != ResolvePlaylists {
			t.Errorf("expected PhaseError in resolve_playlists, got %v", err)
		}

		if calls := mock.WriteCalls(); calls != 0 {
			t.Errorf("expected zero write calls against stock target, got %d", calls)
		}
	})

	t.Run("Full Run", func(t *testing.T) {
		mock := fixtureService()
		store := blacklist.NewMemStore(services.Artist{Name: "Artist B"})
		r := newTestReconciler(mock, store)

		result, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, nil)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		if result.ReferenceName != "Release Radar" || result.TargetName != "Release Radar Full" {
			t.Errorf("unexpected playlist names: %s / %s", result.ReferenceName, result.TargetName)
		}
		if result.ReferenceTracks != 2 {
			t.Errorf("expected 2 reference tracks, got %d", result.ReferenceTracks)
		}

		// Artist B is blacklisted at the reference, so album Y never expands.
		if result.AlbumsExpanded != 1 {
			t.Errorf("expected 1 album expanded, got %d", result.AlbumsExpanded)
		}
		if result.Candidates != 3 {
			t.Errorf("expected 3 candidates from album X, got %d", result.Candidates)
		}
		if result.Duplicates != 1 {
			t.Errorf("expected 1 duplicate dropped, got %d", result.Duplicates)
		}
		if result.Written != 2 || result.Chunks != 1 {
			t.Errorf("expected 2 tracks in 1 chunk, got %d in %d", result.Written, result.Chunks)
		}
		if result.Wiped != 2 {
			t.Errorf("expected both reference tracks wiped, got %d", result.Wiped)
		}
		if len(result.WrittenTracks) != 2 || result.WrittenTracks[0].ID != "x1" || result.WrittenTracks[1].ID != "x2" {
			t.Errorf("expected written tracks x1, x2, got %v", result.WrittenTracks)
		}

		replaced := mock.Replaced["target"]
		if len(replaced) != 1 {
			t.Fatalf("expected exactly one replace call, got %d", len(replaced))
		}
		if len(replaced[0]) != 2 || replaced[0][0] != "x1" || replaced[0][1] != "x2" {
			t.Errorf("unexpected replace payload: %v", replaced[0])
		}
		if len(mock.Added["target"]) != 0 {
			t.Errorf("single-chunk plan should not append, got %d appends", len(mock.Added["target"]))
		}

		descriptions := mock.Descriptions["target"]
		if len(descriptions) != 1 {
			t.Fatalf("expected one description update, got %d", len(descriptions))
		}
		want := "Release Radar with full albums included. Updated on 11/07/2025."
		if descriptions[0] != want {
			t.Errorf("expected description %q, got %q", want, descriptions[0])
		}

		removed := mock.Removed["ref"]
		if len(removed) != 1 || len(removed[0]) != 2 {
			t.Errorf("expected one wipe chunk of 2 tracks, got %v", removed)
		}
	})

	t.Run("Keep Reference Skips Wipe", func(t *testing.T) {
		mock := fixtureService()
		r := newTestReconciler(mock, blacklist.NewMemStore())

		result, err := r.Reconcile(ctx, ReconcileRequest{
			ReferenceID: "ref", TargetID: "target", KeepReference: true,
		}, nil)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		if result.Wiped != 0 {
			t.Errorf("expected no wipe, got %d", result.Wiped)
		}
		if len(mock.Removed["ref"]) != 0 {
			t.Errorf("expected no remove calls, got %d", len(mock.Removed["ref"]))
		}
	})

	t.Run("Allow Duplicates Skips Dedup", func(t *testing.T) {
		mock := fixtureService()
		r := newTestReconciler(mock, blacklist.NewMemStore())

		result, err := r.Reconcile(ctx, ReconcileRequest{
			ReferenceID: "ref", TargetID: "target", AllowDuplicates: true,
		}, nil)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		// All 5 album tracks written, x3 included.
		if result.Written != 5 || result.Duplicates != 0 {
			t.Errorf("expected 5 written with 0 duplicates, got %d/%d", result.Written, result.Duplicates)
		}
	})

	t.Run("Empty Write Plan Issues No Writes", func(t *testing.T) {
		mock := fixtureService()
		store := blacklist.NewMemStore(
			services.Artist{Name: "Artist A"},
			services.Artist{Name: "Artist B"},
		)
		r := newTestReconciler(mock, store)

		result, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, nil)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		if result.Written != 0 || result.Chunks != 0 {
			t.Errorf("expected no writes, got %d in %d chunks", result.Written, result.Chunks)
		}
		if len(mock.Replaced["target"]) != 0 || len(mock.Added["target"]) != 0 || len(mock.Descriptions["target"]) != 0 {
			t.Error("expected target to be untouched by an empty plan")
		}

		// The reference is still drained; nothing survived the filter.
		if result.Wiped != 2 {
			t.Errorf("expected reference wipe to proceed, got %d", result.Wiped)
		}
	})

	t.Run("Chunked Writes Replace Then Append", func(t *testing.T) {
		mock := th.NewMockService()

		ids := make([]string, 0, 150)
		for i := 0; i < 150; i++ {
			id := fmt.Sprintf("t%03d", i)
			ids = append(ids, id)
			mock.Tracks[id] = testTrack(id, fmt.Sprintf("Track %03d", i), fmt.Sprintf("ISRC%03d", i), 100+i, "big", "Artist A")
		}
		mock.Albums["big"] = services.Album{ID: "big", Name: "Big Album", TrackIDs: ids}
		mock.Playlists["ref"] = &services.Playlist{
			ID: "ref", Name: "Release Radar", TrackCount: 1,
			Tracks: []services.Track{testTrack("t000", "Track 000", "ISRC000", 100, "big", "Artist A")},
		}
		mock.Playlists["target"] = &services.Playlist{ID: "target", Name: "Release Radar Full"}

		r := newTestReconciler(mock, blacklist.NewMemStore())
		result, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, nil)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}

		if result.Written != 150 || result.Chunks != 2 {
			t.Errorf("expected 150 written in 2 chunks, got %d in %d", result.Written, result.Chunks)
		}

		replaced := mock.Replaced["target"]
		added := mock.Added["target"]
		if len(replaced) != 1 || len(replaced[0]) != 100 {
			t.Fatalf("expected one replace of 100, got %d calls", len(replaced))
		}
		if len(added) != 1 || len(added[0]) != 50 {
			t.Fatalf("expected one append of 50, got %d calls", len(added))
		}
		if replaced[0][0] != "t000" || added[0][49] != "t149" {
			t.Errorf("expected candidate order preserved across chunks")
		}
	})

	t.Run("Phase Attribution", func(t *testing.T) {
		tc := []struct {
			failOn string
			phase  Phase
		}{
			{"GetPlaylist", ResolvePlaylists},
			{"GetAlbums", ExpandAlbums},
			{"GetTracks", ExpandAlbums},
			{"ChangePlaylistDescription", WriteChunks},
			{"ReplacePlaylistItems", WriteChunks},
			{"RemovePlaylistItems", WipeSource},
		}

		for _, c := range tc {
			t.Run(c.failOn, func(t *testing.T) {
				mock := fixtureService()
				mock.FailOn = c.failOn
				r := newTestReconciler(mock, blacklist.NewMemStore())

				_, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, nil)
				if err == nil {
					t.Fatal("expected failure")
				}

				var pErr *PhaseError
				if !errors.As(err, &pErr) {
					t.Fatalf("expected PhaseError, got %T: %v", err, err)
				}
				if pErr.Phase != c.phase {
					t.Errorf("expected phase %s, got %s", c.phase, pErr.Phase)
				}
			})
		}
	})

	t.Run("Context Cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		r := newTestReconciler(fixtureService(), blacklist.NewMemStore())
		_, err := r.Reconcile(cancelled, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Progress Updates Never Block", func(t *testing.T) {
		r := newTestReconciler(fixtureService(), blacklist.NewMemStore())

		// Unbuffered channel with no reader: every send must fall through.
		progress := make(chan ProgressUpdate)
		if _, err := r.Reconcile(ctx, ReconcileRequest{ReferenceID: "ref", TargetID: "target"}, progress); err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
	})
}

func TestDiff(t *testing.T) {
	ctx := context.Background()

	t.Run("Matched Missing And Extra", func(t *testing.T) {
		mock := th.NewMockService()
		common := testTrack("s1", "Shared Song", "ISRCS1", 200, "", "Artist A")
		// Same recording under a different provider ID still matches.
		commonAlias := testTrack("d9", "Shared Song", "ISRCS1", 200, "", "Artist A")
		onlySource := testTrack("s2", "Source Only", "ISRCS2", 180, "", "Artist A")
		onlyDest := testTrack("d2", "Dest Only", "ISRCD2", 150, "", "Artist B")

		mock.Playlists["src"] = &services.Playlist{
			ID: "src", Name: "Source", Tracks: []services.Track{common, onlySource},
		}
		mock.Playlists["dst"] = &services.Playlist{
			ID: "dst", Name: "Dest", Tracks: []services.Track{commonAlias, onlyDest},
		}

		r := newTestReconciler(mock, blacklist.NewMemStore())
		diff, err := r.Diff(ctx, "src", "dst", nil)
		if err != nil {
			t.Fatalf("diff failed: %v", err)
		}

		if diff.Matched != 1 {
			t.Errorf("expected 1 matched, got %d", diff.Matched)
		}
		if len(diff.MissingInDest) != 1 || diff.MissingInDest[0].TrackID != "s2" {
			t.Errorf("unexpected missing set: %+v", diff.MissingInDest)
		}
		if len(diff.ExtraInDest) != 1 || diff.ExtraInDest[0].TrackID != "d2" {
			t.Errorf("unexpected extra set: %+v", diff.ExtraInDest)
		}
	})

	t.Run("Fetch Failure", func(t *testing.T) {
		mock := fixtureService()
		mock.FailOn = "GetPlaylist"
		r := newTestReconciler(mock, blacklist.NewMemStore())

		_, err := r.Diff(ctx, "ref", "target", nil)
		var pErr *PhaseError
		if !errors.As(err, &pErr) || pErr.Phase != Compare {
			t.Errorf("expected PhaseError in compare, got %v", err)
		}
	})
}

func TestPhaseError(t *testing.T) {
	inner := errors.New("boom")
	err := phaseErr(WriteChunks, inner)

	if got := err.Error(); got != "write_chunks: boom" {
		t.Errorf("unexpected message: %q", got)
	}
	if !errors.Is(err, inner) {
		t.Error("expected PhaseError to unwrap to the inner error")
	}
}
