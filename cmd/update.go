package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"radarsync/internal/formatter"
	"radarsync/internal/models"
	"radarsync/internal/repositories"
	"radarsync/internal/shared"
	"radarsync/internal/tasks"
)

// Update runs a full reconcile: the reference playlist is expanded into whole
// albums, the target playlist is rewritten, and the reference is wiped.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'radarsync auth login'", shared.ErrServiceUnavailable)
	}
	req := tasks.ReconcileRequest{
		ReferenceID:     cmd.String("reference"),
		TargetID:        cmd.String("target"),
		KeepReference:   cmd.Bool("keep-reference"),
		AllowDuplicates: cmd.Bool("allow-duplicates") || r.config.Playlists.AllowDuplicates,
	}
	if req.ReferenceID == "" && req.TargetID == "" {
		// Running purely from config, so the config must be complete.
		if err := r.config.Validate(); err != nil {
			return err
		}
	}
	if req.ReferenceID == "" {
		req.ReferenceID = r.config.Playlists.ReferenceID
	}
	if req.TargetID == "" {
		req.TargetID = r.config.Playlists.TargetID
	}

	r.logger.Info("starting reconcile", "reference", req.ReferenceID, "target", req.TargetID)
	r.writePlain("Reconciling album mirror...\n")
	r.writePlain("Reference: %s\n", req.ReferenceID)
	r.writePlain("Target: %s\n\n", req.TargetID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ResolvePlaylists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExpandAlbums:
				r.writePlain("💿 %s\n", update.Message)
			case tasks.FilterBlacklist, tasks.Dedup:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.WriteChunks:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.WipeSource:
				r.writePlain("🧹 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Reconcile(ctx, req, progressCh)
	close(progressCh)
	<-progressDone

	if !cmd.Bool("no-archive") {
		if archiveErr := r.archiveRun(req, result, err); archiveErr != nil {
			r.logger.Warn("failed to archive run", "error", archiveErr)
		}
	}

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Reconcile Complete!")
	r.writePlain("Reference: %s (%d tracks)\n", result.ReferenceName, result.ReferenceTracks)
	r.writePlain("Target: %s\n", result.TargetName)
	r.writePlain("Albums expanded: %d\n", result.AlbumsExpanded)
	r.writePlain("Candidates: %d (blacklisted %d, duplicates %d)\n", result.Candidates, result.Blacklisted, result.Duplicates)
	r.writePlain("Written: %d tracks in %d chunks\n", result.Written, result.Chunks)
	if req.KeepReference {
		r.writePlain("Reference kept (%d tracks untouched)\n", result.ReferenceTracks)
	} else {
		r.writePlain("Wiped from reference: %d tracks\n", result.Wiped)
	}
	r.writePlain("Took: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))

	return nil
}

// archiveRun records the run outcome in the local database. Failed runs are
// archived too, with the failing phase attributed from the [tasks.PhaseError].
func (r *Runner) archiveRun(req tasks.ReconcileRequest, result *tasks.ReconcileResult, runErr error) error {
	db, runs, tracks, err := r.openRepositories()
	if err != nil {
		return err
	}
	defer db.Close()

	seq, err := repositories.NextSequence(db, "runs")
	if err != nil {
		return err
	}

	referenceID, referenceName := req.ReferenceID, ""
	targetID, targetName := req.TargetID, ""
	if result != nil {
		referenceName = result.ReferenceName
		targetName = result.TargetName
	}

	run := models.NewRun(seq, referenceID, referenceName, targetID, targetName)
	if result != nil {
		run.SetCounts(result.Candidates, result.Blacklisted, result.Duplicates, result.Written, result.Chunks, result.Wiped)
		run.SetWindow(result.StartedAt, result.FinishedAt)
	}
	if runErr != nil {
		var phaseErr *tasks.PhaseError
		if errors.As(runErr, &phaseErr) {
			run.Fail(phaseErr.Phase.String())
		} else {
			run.Fail("unknown")
		}
	}

	if err := runs.Create(run); err != nil {
		return err
	}

	if result != nil && len(result.WrittenTracks) > 0 {
		records := make([]*models.TrackRecord, 0, len(result.WrittenTracks))
		for _, track := range result.WrittenTracks {
			seq, err := repositories.NextSequence(db, "tracks")
			if err != nil {
				return err
			}
			records = append(records, models.NewTrackRecord(
				seq, run.ID(), track.ID, track.Title,
				formatter.ArtistLine(track), track.AlbumName, track.DurationSec, track.ISRC,
			))
		}
		if err := tracks.CreateBatch(records); err != nil {
			return err
		}
	}

	r.logger.Info("run archived", "id", run.ID(), "sequence", run.Sequence(), "status", run.Status())
	return nil
}
