package tasks

import (
	"context"
	"fmt"
	"time"

	"radarsync/internal/batch"
	"radarsync/internal/blacklist"
	"radarsync/internal/fingerprint"
	"radarsync/internal/services"
	"radarsync/internal/shared"
)

// ReconcileRequest describes one reconciliation run. Constructed per
// invocation, never persisted.
type ReconcileRequest struct {
	ReferenceID     string // transient intake playlist, wiped after a successful run
	TargetID        string // durable playlist, fully regenerated each run
	AllowDuplicates bool   // skip fingerprint dedup when true
	KeepReference   bool   // skip the trailing wipe (dry-ish runs, debugging)
}

// ReconcileResult summarizes a completed run for reporting and archival.
type ReconcileResult struct {
	ReferenceID   string
	ReferenceName string
	TargetID      string
	TargetName    string

	ReferenceTracks int // tracks in the reference snapshot
	AlbumsExpanded  int // unique albums read
	Candidates      int // tracks after album expansion
	Blacklisted     int // candidates excluded by the blacklist
	Duplicates      int // candidates dropped by fingerprint dedup
	Written         int // tracks written to the target
	Chunks          int // write chunks issued
	Wiped           int // tracks removed from the reference

	// WrittenTracks holds the tracks written to the target, in write order,
	// for archival.
	WrittenTracks []services.Track

	StartedAt  time.Time
	FinishedAt time.Time
}

// DiffResult reports the fingerprint-level difference between two playlists,
// independent of which provider-assigned track IDs either side used.
type DiffResult struct {
	Source *services.Playlist
	Dest   *services.Playlist

	Matched       int
	MissingInDest []fingerprint.Fingerprint // identities in source absent from dest
	ExtraInDest   []fingerprint.Fingerprint // identities in dest absent from source
}

// Engine defines the playlist reconciliation operations.
type Engine interface {
	// Reconcile performs one full run per the replace-then-append protocol.
	Reconcile(ctx context.Context, req ReconcileRequest, progress chan<- ProgressUpdate) (*ReconcileResult, error)

	// Diff compares two playlists by content fingerprint.
	Diff(ctx context.Context, sourceID, destID string, progress chan<- ProgressUpdate) (*DiffResult, error)
}

// Reconciler implements Engine against an injected service and blacklist.
type Reconciler struct {
	service services.Service
	store   blacklist.Store
	stockID string
	now     func() time.Time
}

// NewReconciler creates a Reconciler. stockID is the read-only stock playlist
// identifier the safety invariant guards against.
func NewReconciler(service services.Service, store blacklist.Store, stockID string) *Reconciler {
	return &Reconciler{
		service: service,
		store:   store,
		stockID: stockID,
		now:     time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (r *Reconciler) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Reconcile runs the full state machine. Any failure aborts the run and is
// returned wrapped in a [PhaseError]; the target is left in whatever state
// the last successful chunk produced (a rerun re-issues the replace from the
// top, so partial writes heal on retry).
func (r *Reconciler) Reconcile(ctx context.Context, req ReconcileRequest, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	if r.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if req.ReferenceID == "" || req.TargetID == "" {
		return nil, fmt.Errorf("%w: reference and target playlist IDs", shared.ErrMissingArgument)
	}

	result := &ReconcileResult{
		ReferenceID: req.ReferenceID,
		TargetID:    req.TargetID,
		StartedAt:   r.now(),
	}

	reference, target, err := r.resolve(ctx, req, progress)
	if err != nil {
		return nil, phaseErr(ResolvePlaylists, err)
	}
	result.ReferenceName = reference.Name
	result.TargetName = target.Name
	result.ReferenceTracks = len(reference.Tracks)

	// Safety invariant: the stock playlist is externally curated and must
	// never be a write target. Checked before any write call is issued.
	if req.TargetID == r.stockID {
		return nil, phaseErr(ResolvePlaylists,
			fmt.Errorf("%w: %s", shared.ErrStockTarget, req.TargetID))
	}

	candidates, albumCount, err := r.expandAlbums(ctx, reference, progress)
	if err != nil {
		return nil, phaseErr(ExpandAlbums, err)
	}
	result.AlbumsExpanded = albumCount
	result.Candidates = len(candidates)

	kept, excluded := blacklist.Filter(candidates, r.store)
	result.Blacklisted = len(excluded)
	r.sendProgress(progress, filterUpdate(len(kept), len(excluded)))

	writeTracks := kept
	if !req.AllowDuplicates {
		collection := fingerprint.Classify(kept)
		writeTracks = distinctTracks(kept, collection)
		result.Duplicates = len(collection.Duplicates)
		r.sendProgress(progress, dedupUpdate(len(collection.Distinct), len(collection.Duplicates)))
	}

	written, chunks, err := r.writeChunks(ctx, req.TargetID, trackIDs(writeTracks), progress)
	if err != nil {
		return nil, phaseErr(WriteChunks, err)
	}
	result.Written = written
	result.Chunks = chunks
	result.WrittenTracks = writeTracks

	if !req.KeepReference {
		wiped, err := r.wipeReference(ctx, reference, progress)
		if err != nil {
			return nil, phaseErr(WipeSource, err)
		}
		result.Wiped = wiped
	}

	result.FinishedAt = r.now()
	r.sendProgress(progress, doneUpdate(result))
	return result, nil
}

// resolve fetches full snapshots of the reference and target playlists. A
// missing target means there is nothing safe to reconcile toward, so either
// fetch failure is fatal with no retry.
func (r *Reconciler) resolve(ctx context.Context, req ReconcileRequest, progress chan<- ProgressUpdate) (reference, target *services.Playlist, err error) {
	r.sendProgress(progress, resolvingUpdate(1, 2, "reference"))
	reference, err = r.service.GetPlaylist(ctx, req.ReferenceID)
	if err != nil {
		return nil, nil, fmt.Errorf("reference playlist %s: %w", req.ReferenceID, err)
	}
	r.sendProgress(progress, resolvedUpdate(1, 2, reference))

	r.sendProgress(progress, resolvingUpdate(2, 2, "target"))
	target, err = r.service.GetPlaylist(ctx, req.TargetID)
	if err != nil {
		return nil, nil, fmt.Errorf("target playlist %s: %w", req.TargetID, err)
	}
	r.sendProgress(progress, resolvedUpdate(2, 2, target))

	return reference, target, nil
}

// expandAlbums collects album IDs from the reference tracks (lead-artist
// blacklist applied up front so a blocked artist's whole album never loads),
// reads full album contents in batches, then fetches complete track metadata
// for fingerprinting. The target is synchronized to whole albums, not to the
// literal reference track list.
func (r *Reconciler) expandAlbums(ctx context.Context, reference *services.Playlist, progress chan<- ProgressUpdate) ([]services.Track, int, error) {
	refKept, _ := blacklist.Filter(reference.Tracks, r.store)

	albumIDs := uniqueAlbumIDs(refKept)
	if len(albumIDs) == 0 {
		return nil, 0, nil
	}

	albumChunks := batch.Split(albumIDs, batch.AlbumBatchRead)
	var candidateIDs []string
	seen := make(map[string]struct{})

	for i, chunk := range albumChunks {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		r.sendProgress(progress, expandAlbumsUpdate(i+1, len(albumChunks)))

		albums, err := r.service.GetAlbums(ctx, chunk.IDs)
		if err != nil {
			return nil, 0, fmt.Errorf("album batch %d/%d: %w", i+1, len(albumChunks), err)
		}

		for _, album := range albums {
			for _, id := range album.TrackIDs {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				candidateIDs = append(candidateIDs, id)
			}
		}
	}

	trackChunks := batch.Split(candidateIDs, batch.TrackBatchRead)
	candidates := make([]services.Track, 0, len(candidateIDs))

	for i, chunk := range trackChunks {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		r.sendProgress(progress, readTracksUpdate(i+1, len(trackChunks)))

		tracks, err := r.service.GetTracks(ctx, chunk.IDs)
		if err != nil {
			return nil, 0, fmt.Errorf("track batch %d/%d: %w", i+1, len(trackChunks), err)
		}
		candidates = append(candidates, tracks...)
	}

	return candidates, len(albumIDs), nil
}

// writeChunks drives the replace-then-append protocol. The first chunk stamps
// the target description with the current date and replaces the entire item
// list; later chunks append in strict order so the final playlist matches
// candidate order. An empty plan issues no writes at all: replacing with
// nothing would silently empty the target.
func (r *Reconciler) writeChunks(ctx context.Context, targetID string, ids []string, progress chan<- ProgressUpdate) (written, chunks int, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}

	plan := batch.Split(ids, batch.PlaylistItemWrite)
	for i, chunk := range plan {
		if err := ctx.Err(); err != nil {
			return written, i, err
		}
		r.sendProgress(progress, writeChunkUpdate(i+1, len(plan), len(chunk.IDs), chunk.First))

		if chunk.First {
			if err := r.service.ChangePlaylistDescription(ctx, targetID, r.description()); err != nil {
				return written, i, fmt.Errorf("description update: %w", err)
			}
			if err := r.service.ReplacePlaylistItems(ctx, targetID, chunk.IDs); err != nil {
				return written, i, fmt.Errorf("replace chunk 1/%d: %w", len(plan), err)
			}
		} else {
			if err := r.service.AddPlaylistItems(ctx, targetID, chunk.IDs); err != nil {
				return written, i, fmt.Errorf("append chunk %d/%d: %w", i+1, len(plan), err)
			}
		}
		written += len(chunk.IDs)
	}

	return written, len(plan), nil
}

// wipeReference drains the reference playlist: it is transient intake that is
// fully removed once merged into the durable target.
func (r *Reconciler) wipeReference(ctx context.Context, reference *services.Playlist, progress chan<- ProgressUpdate) (int, error) {
	ids := trackIDs(reference.Tracks)
	if len(ids) == 0 {
		return 0, nil
	}

	wiped := 0
	plan := batch.Split(ids, batch.PlaylistItemRemove)
	for i, chunk := range plan {
		if err := ctx.Err(); err != nil {
			return wiped, err
		}
		r.sendProgress(progress, wipeChunkUpdate(i+1, len(plan), len(chunk.IDs)))

		if err := r.service.RemovePlaylistItems(ctx, reference.ID, chunk.IDs); err != nil {
			return wiped, fmt.Errorf("remove chunk %d/%d: %w", i+1, len(plan), err)
		}
		wiped += len(chunk.IDs)
	}

	return wiped, nil
}

func (r *Reconciler) description() string {
	return fmt.Sprintf("Release Radar with full albums included. Updated on %s.",
		shared.DateStamp(r.now()))
}

// Diff compares two playlists by content fingerprint rather than track ID, so
// regional duplicates of the same recording count as matched.
func (r *Reconciler) Diff(ctx context.Context, sourceID, destID string, progress chan<- ProgressUpdate) (*DiffResult, error) {
	if r.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	r.sendProgress(progress, compareUpdate(1, 2, "source playlist"))
	source, err := r.service.GetPlaylist(ctx, sourceID)
	if err != nil {
		return nil, phaseErr(Compare, fmt.Errorf("source playlist %s: %w", sourceID, err))
	}

	r.sendProgress(progress, compareUpdate(2, 2, "destination playlist"))
	dest, err := r.service.GetPlaylist(ctx, destID)
	if err != nil {
		return nil, phaseErr(Compare, fmt.Errorf("destination playlist %s: %w", destID, err))
	}

	sourceSet := fingerprint.Classify(source.Tracks)
	destSet := fingerprint.Classify(dest.Tracks)

	missing := fingerprint.MissingFrom(sourceSet, destSet)
	extra := fingerprint.MissingFrom(destSet, sourceSet)

	return &DiffResult{
		Source:        source,
		Dest:          dest,
		Matched:       len(sourceSet.Distinct) - len(missing),
		MissingInDest: missing,
		ExtraInDest:   extra,
	}, nil
}

// distinctTracks maps a collection's distinct fingerprints back to their
// source tracks, preserving first-occurrence order.
func distinctTracks(tracks []services.Track, collection *fingerprint.Collection) []services.Track {
	byID := make(map[string]services.Track, len(tracks))
	for _, t := range tracks {
		if _, dup := byID[t.ID]; !dup {
			byID[t.ID] = t
		}
	}

	out := make([]services.Track, 0, len(collection.Distinct))
	for _, fp := range collection.Distinct {
		if t, ok := byID[fp.TrackID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// uniqueAlbumIDs returns album IDs in first-reference order, skipping tracks
// without one (local files, some podcast items).
func uniqueAlbumIDs(tracks []services.Track) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, t := range tracks {
		if t.AlbumID == "" {
			continue
		}
		if _, dup := seen[t.AlbumID]; dup {
			continue
		}
		seen[t.AlbumID] = struct{}{}
		ids = append(ids, t.AlbumID)
	}
	return ids
}

func trackIDs(tracks []services.Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
